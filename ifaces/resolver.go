package ifaces

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned when neither the system query nor the listing
// command produced an interface table.
var ErrUnavailable = errors.New("network interfaces unavailable")

// Source tells where an interface table came from
type Source string

// Query sources
const (
	SourceAuto    Source = "auto"
	SourceSystem  Source = "system"
	SourceCommand Source = "command"
	SourceNone    Source = "none"
)

// ParseSource validates a configured source name
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(s)); src {
	case "", SourceAuto:
		return SourceAuto, nil
	case SourceSystem, SourceCommand:
		return src, nil
	default:
		return "", fmt.Errorf("unknown interface source %q (want auto, system or command)", s)
	}
}

// Result is the outcome of one host address query
type Result struct {
	Interfaces Table    `json:"interfaces"`
	Source     Source   `json:"source"`
	Addresses  []string `json:"addresses"`
	Fallback   bool     `json:"fallback"`
}

// Resolver finds the host's addresses from the system interface table or,
// failing that, from the output of the listing command.
type Resolver struct {
	// Source selects which paths are tried; SourceAuto tries the system
	// query first and the command second.
	Source  Source
	System  SystemQuery
	Runner  CommandRunner
	Command string
	Args    []string

	// Hostname, LookupHost and LookupAddr back the reverse-DNS fallback
	Hostname   func() (string, error)
	LookupHost func(ctx context.Context, host string) ([]string, error)
	LookupAddr func(ctx context.Context, addr string) ([]string, error)
}

// NewResolver creates a resolver wired to the OS
func NewResolver() *Resolver {
	return &Resolver{
		Source:     SourceAuto,
		System:     NetQuery{},
		Runner:     ExecRunner{},
		Command:    DefaultCommand,
		Hostname:   os.Hostname,
		LookupHost: net.DefaultResolver.LookupHost,
		LookupAddr: net.DefaultResolver.LookupAddr,
	}
}

// GetNetworkInterfaces returns the interface table, or ErrUnavailable if
// neither the system query nor the command succeeded.
func (r *Resolver) GetNetworkInterfaces(ctx context.Context) (Table, error) {
	table, _, err := r.interfaces(ctx)
	return table, err
}

// GetHostAddress returns this host's usable IPv4 addresses. When none are
// found it returns the reverse-DNS name of the hostname instead, so the
// result is never empty.
func (r *Resolver) GetHostAddress(ctx context.Context) []string {
	return r.Resolve(ctx).Addresses
}

// Resolve runs a full query and reports how the addresses were obtained
func (r *Resolver) Resolve(ctx context.Context) Result {
	table, source, err := r.interfaces(ctx)
	if err != nil {
		log.Printf("DEBUG: %v", err)
	}

	res := Result{
		Interfaces: table,
		Source:     source,
		Addresses:  HostAddresses(table),
	}
	if len(res.Addresses) == 0 {
		res.Addresses = []string{r.fallbackName(ctx)}
		res.Fallback = true
	}
	log.Printf("DEBUG: Host addresses from %s: %v (fallback: %t)", res.Source, res.Addresses, res.Fallback)
	return res
}

func (r *Resolver) interfaces(ctx context.Context) (Table, Source, error) {
	source := r.Source
	if source == "" {
		source = SourceAuto
	}

	var errs []string
	if source != SourceCommand && r.System != nil {
		table, err := r.System.Interfaces()
		if err == nil {
			return table, SourceSystem, nil
		}
		errs = append(errs, err.Error())
	}

	if source != SourceSystem && r.Runner != nil {
		command := r.Command
		if command == "" {
			command = DefaultCommand
		}
		lines, err := r.Runner.Run(ctx, command, r.Args...)
		if err == nil {
			return ParseIfconfig(lines), SourceCommand, nil
		}
		errs = append(errs, err.Error())
	}

	if len(errs) == 0 {
		return nil, SourceNone, ErrUnavailable
	}
	return nil, SourceNone, errors.Wrap(ErrUnavailable, strings.Join(errs, "; "))
}

// fallbackName resolves the hostname forward and back again. Lookup
// failures degrade to the hostname itself.
func (r *Resolver) fallbackName(ctx context.Context) string {
	hostname := "localhost"
	if r.Hostname != nil {
		if h, err := r.Hostname(); err == nil && h != "" {
			hostname = h
		}
	}
	if r.LookupHost == nil || r.LookupAddr == nil {
		return hostname
	}

	addrs, err := r.LookupHost(ctx, hostname)
	if err != nil || len(addrs) == 0 {
		log.Printf("DEBUG: Forward lookup of %s failed: %v", hostname, err)
		return hostname
	}
	names, err := r.LookupAddr(ctx, addrs[0])
	if err != nil || len(names) == 0 {
		log.Printf("DEBUG: Reverse lookup of %s failed: %v", addrs[0], err)
		return hostname
	}
	return strings.TrimSuffix(names[0], ".")
}
