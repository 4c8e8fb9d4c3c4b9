// Package ifaces reads the host network interface table, either from the OS
// or from ifconfig output, and picks the addresses usable as the host address.
package ifaces

import (
	"fmt"
	"strings"
)

// Family is the protocol family of a unicast entry
type Family int

// Protocol families, numbered as in the Linux socket headers
const (
	FamilyInet   Family = 2
	FamilyInet6  Family = 10
	FamilyPacket Family = 17
)

func (f Family) String() string {
	switch f {
	case FamilyInet:
		return "inet"
	case FamilyInet6:
		return "inet6"
	case FamilyPacket:
		return "packet"
	default:
		return "unknown"
	}
}

// MarshalText lets families show up by name in JSON
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts the names written by MarshalText
func (f *Family) UnmarshalText(text []byte) error {
	switch string(text) {
	case "inet":
		*f = FamilyInet
	case "inet6":
		*f = FamilyInet6
	case "packet":
		*f = FamilyPacket
	default:
		return fmt.Errorf("unknown address family %q", text)
	}
	return nil
}

// Flags is the device flag bitset reported for an interface
type Flags uint32

// Device/interface flags
const (
	FlagUp Flags = 1 << iota
	FlagBroadcast
	FlagDebug
	FlagLoopback
	FlagPointToPoint
	FlagNoTrailers
	FlagRunning
	FlagNoARP
	FlagPromisc
	FlagAllMulti
	FlagMaster
	FlagSlave
	FlagMulticast
	FlagPortSel
	FlagAutoMedia
	FlagDynamic
)

// flagNames maps the words printed by ifconfig to their bits. Order of
// flagOrder is the bit order, used when rendering.
var (
	flagNames = map[string]Flags{
		"UP":          FlagUp,
		"BROADCAST":   FlagBroadcast,
		"DEBUG":       FlagDebug,
		"LOOPBACK":    FlagLoopback,
		"POINTOPOINT": FlagPointToPoint,
		"NOTRAILERS":  FlagNoTrailers,
		"RUNNING":     FlagRunning,
		"NOARP":       FlagNoARP,
		"PROMISC":     FlagPromisc,
		"ALLMULTI":    FlagAllMulti,
		"MASTER":      FlagMaster,
		"SLAVE":       FlagSlave,
		"MULTICAST":   FlagMulticast,
		"PORTSEL":     FlagPortSel,
		"AUTOMEDIA":   FlagAutoMedia,
		"DYNAMIC":     FlagDynamic,
	}
	flagOrder = []string{
		"UP", "BROADCAST", "DEBUG", "LOOPBACK", "POINTOPOINT", "NOTRAILERS",
		"RUNNING", "NOARP", "PROMISC", "ALLMULTI", "MASTER", "SLAVE",
		"MULTICAST", "PORTSEL", "AUTOMEDIA", "DYNAMIC",
	}
)

// Has reports whether every bit of o is set in f
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// String renders the known bits as UP|BROADCAST|...
func (f Flags) String() string {
	var names []string
	for _, name := range flagOrder {
		if f&flagNames[name] != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "|")
}

// Address is one unicast entry of an interface
type Address struct {
	Flags     Flags  `json:"flags"`
	Family    Family `json:"family"`
	Address   string `json:"address,omitempty"`
	Netmask   string `json:"netmask,omitempty"`
	Broadcast string `json:"broadcast,omitempty"`
}

// Interface represents a network interface and its unicast entries.
// Unicast always starts with the link-layer (FamilyPacket) placeholder.
type Interface struct {
	Name    string    `json:"name"`
	Up      bool      `json:"up"`
	MAC     string    `json:"mac,omitempty"`
	MTU     int       `json:"mtu,omitempty"`
	Unicast []Address `json:"unicast"`
}

// Table holds interfaces in the order they were first seen
type Table []Interface

// Lookup returns the interface with the given name
func (t Table) Lookup(name string) (Interface, bool) {
	for _, iface := range t {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// Names returns the interface names in table order
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for _, iface := range t {
		names = append(names, iface.Name)
	}
	return names
}
