package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/ramborogers/hostaddr/announce"
	"github.com/ramborogers/hostaddr/checkin"
	"github.com/ramborogers/hostaddr/config"
	"github.com/ramborogers/hostaddr/ifaces"
	"github.com/ramborogers/hostaddr/web"
)

const version = "0.1.0"

// options are the parsed command line
type options struct {
	configPath string
	jsonOut    bool
	ifacesOut  bool
	tui        bool
	web        bool
	announce   bool
	checkin    bool
	peers      bool
	peersWait  time.Duration
	debug      bool
	version    bool

	cfg *config.Config
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("hostaddr", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	var (
		source, command, token, checkinURL, checkinToken, instance string
		port                                                       int
		interval                                                   time.Duration
	)
	fs.StringVar(&opts.configPath, "config", "", "TOML config file")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print the full result as JSON")
	fs.BoolVar(&opts.ifacesOut, "ifaces", false, "Print the interface table")
	fs.BoolVar(&opts.tui, "tui", false, "Start the terminal UI")
	fs.BoolVar(&opts.web, "web", false, "Serve the HTTP/websocket API")
	fs.BoolVar(&opts.announce, "announce", false, "Advertise host addresses over mDNS")
	fs.BoolVar(&opts.checkin, "checkin", false, "Report host addresses to a collector")
	fs.BoolVar(&opts.peers, "peers", false, "Browse mDNS for other hosts and print them")
	fs.DurationVar(&opts.peersWait, "peers-wait", 3*time.Second, "How long to browse for peers")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug mode (writes debug.log in current directory)")
	fs.BoolVar(&opts.version, "version", false, "Display version information and exit")

	fs.StringVar(&source, "source", "", "Interface source: auto, system or command")
	fs.StringVar(&command, "command", "", "Interface listing command (default ifconfig)")
	fs.IntVar(&port, "port", 0, "Web API port (default 8080)")
	fs.StringVar(&token, "token", "", "Web API auth token (random if unset)")
	fs.StringVar(&checkinURL, "checkin-url", "", "Collector URL")
	fs.StringVar(&checkinToken, "checkin-token", "", "Collector auth token")
	fs.DurationVar(&interval, "checkin-interval", 0, "Check-in interval (default 1h)")
	fs.StringVar(&instance, "instance", "", "mDNS instance name (default short hostname)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "hostaddr %s - Host Address Discovery\n\n", version)
		fmt.Fprintf(stderr, "Usage: hostaddr [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, errors.Errorf("unexpected argument '%s'", fs.Arg(0))
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	// Flags set explicitly win over the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = source
		case "command":
			cfg.Command = command
		case "debug":
			cfg.Debug = opts.debug
		case "port":
			cfg.Web.Port = port
		case "token":
			cfg.Web.Token = token
		case "checkin-url":
			cfg.Checkin.URL = checkinURL
		case "checkin-token":
			cfg.Checkin.Token = checkinToken
		case "checkin-interval":
			cfg.Checkin.Interval = config.Duration{Duration: interval}
		case "instance":
			cfg.MDNS.Instance = instance
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts.debug = cfg.Debug
	opts.cfg = cfg
	return opts, nil
}

func newResolver(cfg *config.Config) (*ifaces.Resolver, error) {
	source, err := ifaces.ParseSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	r := ifaces.NewResolver()
	r.Source = source
	if cfg.Command != "" {
		r.Command = cfg.Command
	}
	r.Args = cfg.Args
	return r, nil
}

func setupLogging(debug bool) (io.Closer, error) {
	if !debug {
		log.SetOutput(io.Discard)
		return nil, nil
	}
	f, err := os.OpenFile("debug.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, errors.Wrap(err, "error opening debug.log")
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	return f, nil
}

func printAddresses(w io.Writer, res ifaces.Result) {
	for _, addr := range res.Addresses {
		fmt.Fprintln(w, addr)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printInterfaces writes one row per unicast entry
func printInterfaces(w io.Writer, res ifaces.Result, gatewayIface string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INTERFACE\tSTATE\tFAMILY\tADDRESS\tNETMASK\tBROADCAST\tFLAGS")
	for _, iface := range res.Interfaces {
		name := iface.Name
		if name == gatewayIface {
			name += "*"
		}
		state := "down"
		if iface.Up {
			state = "up"
		}
		for _, a := range iface.Unicast {
			address := a.Address
			if a.Family == ifaces.FamilyPacket {
				address = iface.MAC
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				name, state, a.Family, dash(address), dash(a.Netmask), dash(a.Broadcast), a.Flags)
		}
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printPeers(w io.Writer, peers []announce.Peer) {
	if len(peers) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No peers found")
		return
	}
	for _, p := range peers {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Instance, p.Host, strings.Join(p.Addresses, ","))
	}
}

func generateToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// serve runs the long-lived surfaces until ctx is cancelled
func serve(ctx context.Context, opts *options, resolver *ifaces.Resolver, stdout io.Writer) error {
	cfg := opts.cfg
	errCh := make(chan error, 1)

	if opts.web {
		token := cfg.Web.Token
		if token == "" {
			token = generateToken()
		}
		srv, err := web.NewServer(cfg.Web.Port, token, version, resolver)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s http://localhost:%d/?auth=%s\n",
			color.New(color.FgGreen, color.Bold).Sprint("[URL]"), cfg.Web.Port, token)
		go func() {
			if err := srv.Start(ctx, cfg.Web.Refresh.Duration); err != nil {
				errCh <- errors.Wrap(err, "web server")
			}
		}()
	}

	if opts.announce {
		res := resolver.Resolve(ctx)
		hostname, _ := os.Hostname()
		port := cfg.MDNS.Port
		if port == 0 && opts.web {
			port = cfg.Web.Port
		}
		server, err := announce.Advertise(announce.Announcement{
			Instance:  cfg.MDNS.Instance,
			Service:   cfg.MDNS.Service,
			Host:      hostname,
			Port:      port,
			Addresses: res.Addresses,
			Source:    string(res.Source),
			Version:   version,
		})
		if err != nil {
			return err
		}
		defer server.Shutdown()
		fmt.Fprintf(stdout, "%s %s on %s\n",
			color.New(color.FgCyan, color.Bold).Sprint("[MDNS]"), cfg.MDNS.Service, strings.Join(res.Addresses, ", "))
	}

	if opts.checkin {
		if cfg.Checkin.URL == "" {
			return errors.New("check-in needs a collector URL (-checkin-url or [checkin] url)")
		}
		client, err := checkin.NewClient(cfg.Checkin.URL, cfg.Checkin.Token, version, cfg.Checkin.Interval.Duration, resolver)
		if err != nil {
			return err
		}
		if err := client.Start(ctx); err != nil {
			return err
		}
		defer client.Stop()
		fmt.Fprintf(stdout, "%s reporting to %s every %s\n",
			color.New(color.FgBlue, color.Bold).Sprint("[CHECKIN]"), cfg.Checkin.URL, cfg.Checkin.Interval)
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func run(opts *options, stdout io.Writer) error {
	resolver, err := newResolver(opts.cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.tui:
		return runTUI(resolver)
	case opts.web || opts.announce || opts.checkin:
		return serve(ctx, opts, resolver, stdout)
	case opts.peers:
		peers, err := announce.Browse(ctx, opts.cfg.MDNS.Service, opts.peersWait)
		if err != nil {
			return err
		}
		if opts.jsonOut {
			return printJSON(stdout, peers)
		}
		printPeers(stdout, peers)
		return nil
	}

	res := resolver.Resolve(ctx)
	switch {
	case opts.jsonOut:
		return printJSON(stdout, res)
	case opts.ifacesOut:
		if res.Source == ifaces.SourceNone {
			return ifaces.ErrUnavailable
		}
		gwIface, _, err := ifaces.GatewayInterface(res.Interfaces)
		if err != nil {
			log.Printf("DEBUG: %v", err)
		}
		return printInterfaces(stdout, res, gwIface)
	default:
		printAddresses(stdout, res)
		return nil
	}
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if opts.version {
		fmt.Printf("hostaddr %s\n", version)
		return
	}

	closer, err := setupLogging(opts.debug)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	if err := run(opts, os.Stdout); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		if closer != nil {
			closer.Close()
		}
		os.Exit(1)
	}
}
