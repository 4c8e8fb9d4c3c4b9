// Package announce advertises this host's addresses over mDNS and browses
// for other hosts doing the same.
package announce

import (
	"context"
	"log"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/pkg/errors"
)

// DefaultService is the mDNS service type hosts are advertised under
const DefaultService = "_hostaddr._tcp"

const domain = "local."

// Announcement describes what gets advertised
type Announcement struct {
	Instance  string
	Service   string
	Host      string
	Port      int
	Addresses []string
	Source    string
	Version   string
}

// Peer is another host found while browsing
type Peer struct {
	Instance  string   `json:"instance"`
	Host      string   `json:"host"`
	Addr      string   `json:"addr,omitempty"`
	Port      int      `json:"port"`
	Addresses []string `json:"addresses"`
	Source    string   `json:"source,omitempty"`
	Version   string   `json:"version,omitempty"`
}

// Server is a running mDNS responder
type Server struct {
	server *mdns.Server
}

// Shutdown stops answering queries
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// Advertise starts responding to mDNS queries for a
func Advertise(a Announcement) (*Server, error) {
	service := a.Service
	if service == "" {
		service = DefaultService
	}
	instance := a.Instance
	if instance == "" {
		instance = shortHost(a.Host)
	}
	ips := parseIPs(a.Addresses)
	if len(ips) == 0 {
		return nil, errors.New("no IP addresses to advertise")
	}

	svc, err := mdns.NewMDNSService(instance, service, domain, hostFQDN(a.Host), a.Port, ips, txtRecords(a))
	if err != nil {
		return nil, errors.Wrap(err, "creating mDNS service")
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return nil, errors.Wrap(err, "starting mDNS server")
	}
	log.Printf("DEBUG: Advertising %s.%s%s on %v", instance, service, domain, a.Addresses)
	return &Server{server: server}, nil
}

// Browse queries for hosts advertising service until the timeout or ctx
// expires, whichever is first.
func Browse(ctx context.Context, service string, timeout time.Duration) ([]Peer, error) {
	if service == "" {
		service = DefaultService
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, errors.Wrap(context.DeadlineExceeded, "browsing "+service)
	}

	entriesCh := make(chan *mdns.ServiceEntry, 100)
	done := make(chan []Peer)
	go func() {
		seen := make(map[string]bool)
		var peers []Peer
		for entry := range entriesCh {
			if entry == nil || seen[entry.Name] {
				continue
			}
			seen[entry.Name] = true
			peer := peerFromEntry(entry, service)
			log.Printf("DEBUG: Found peer %s at %s (%v)", peer.Instance, peer.Addr, peer.Addresses)
			peers = append(peers, peer)
		}
		done <- peers
	}()

	params := &mdns.QueryParam{
		Service:     service,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entriesCh,
		DisableIPv6: true,
	}
	err := mdns.Query(params)
	close(entriesCh)
	peers := <-done
	if err != nil {
		return peers, errors.Wrapf(err, "browsing %s", service)
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Instance < peers[j].Instance })
	return peers, nil
}

func peerFromEntry(entry *mdns.ServiceEntry, service string) Peer {
	peer := Peer{
		Instance: instanceName(entry.Name, service),
		Host:     strings.TrimSuffix(strings.TrimSuffix(entry.Host, "."), ".local"),
		Port:     entry.Port,
	}
	if entry.AddrV4 != nil {
		peer.Addr = entry.AddrV4.String()
	}
	fields := parseTXT(entry.InfoFields)
	if addrs := fields["addrs"]; addrs != "" {
		peer.Addresses = strings.Split(addrs, ",")
	} else if peer.Addr != "" {
		peer.Addresses = []string{peer.Addr}
	}
	peer.Source = fields["source"]
	peer.Version = fields["version"]
	return peer
}

// instanceName strips the service and domain from an entry name and
// removes DNS escapes: "web\ 01._hostaddr._tcp.local." -> "web 01".
func instanceName(name, service string) string {
	name = strings.TrimSuffix(name, ".")
	name = strings.TrimSuffix(name, ".local")
	name = strings.TrimSuffix(name, "."+strings.Trim(service, "."))
	return strings.ReplaceAll(name, "\\", "")
}

func txtRecords(a Announcement) []string {
	txt := []string{"addrs=" + strings.Join(a.Addresses, ",")}
	if a.Source != "" {
		txt = append(txt, "source="+a.Source)
	}
	if a.Version != "" {
		txt = append(txt, "version="+a.Version)
	}
	return txt
}

func parseTXT(fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if k, v, ok := strings.Cut(f, "="); ok {
			out[k] = v
		}
	}
	return out
}

// parseIPs keeps the entries that are literal IP addresses; a fallback
// hostname is not advertisable.
func parseIPs(addrs []string) []net.IP {
	var ips []net.IP
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil {
			ips = append(ips, ip)
		}
	}
	return ips
}

// hostFQDN turns a hostname into the fully qualified name mDNS requires.
// Single-label names go under .local.
func hostFQDN(host string) string {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return ""
	}
	if !strings.Contains(host, ".") {
		return host + "." + domain
	}
	return host + "."
}

func shortHost(host string) string {
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}
