package ifaces

import (
	"log"
	"net"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned when the structured interface query is not
// available on this platform.
var ErrUnsupported = errors.New("structured interface query not supported")

// SystemQuery returns the interface table straight from the OS
type SystemQuery interface {
	Interfaces() (Table, error)
}

// NetQuery answers SystemQuery from the net package
type NetQuery struct{}

// Interfaces lists the system interfaces with their addresses
func (NetQuery) Interfaces() (Table, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(ErrUnsupported, err.Error())
	}

	table := make(Table, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			log.Printf("DEBUG: Skipping addresses of %s: %v", iface.Name, err)
			addrs = nil
		}
		table = append(table, fromNet(iface, addrs))
	}
	return table, nil
}

// netFlags pairs the net package flags with ours
var netFlags = []struct {
	from net.Flags
	to   Flags
}{
	{net.FlagUp, FlagUp},
	{net.FlagBroadcast, FlagBroadcast},
	{net.FlagLoopback, FlagLoopback},
	{net.FlagPointToPoint, FlagPointToPoint},
	{net.FlagMulticast, FlagMulticast},
	{net.FlagRunning, FlagRunning},
}

func convertFlags(nf net.Flags) Flags {
	var flags Flags
	for _, f := range netFlags {
		if nf&f.from != 0 {
			flags |= f.to
		}
	}
	return flags
}

// fromNet builds the interface record for one net.Interface. Every entry
// carries the interface flags, the same way ifconfig output is parsed.
func fromNet(iface net.Interface, addrs []net.Addr) Interface {
	flags := convertFlags(iface.Flags)
	rec := Interface{
		Name:    iface.Name,
		Up:      flags&FlagUp != 0,
		MAC:     iface.HardwareAddr.String(),
		MTU:     iface.MTU,
		Unicast: []Address{{Flags: flags, Family: FamilyPacket}},
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		if ip4 := ipNet.IP.To4(); ip4 != nil {
			entry := Address{
				Flags:   flags,
				Family:  FamilyInet,
				Address: ip4.String(),
			}
			if len(ipNet.Mask) == net.IPv4len {
				entry.Netmask = net.IP(ipNet.Mask).String()
				if flags&FlagBroadcast != 0 {
					entry.Broadcast = broadcastAddr(ip4, ipNet.Mask).String()
				}
			} else if ones, bits := ipNet.Mask.Size(); bits == 8*net.IPv6len && ones >= 96 {
				mask := net.CIDRMask(ones-96, 32)
				entry.Netmask = net.IP(mask).String()
				if flags&FlagBroadcast != 0 {
					entry.Broadcast = broadcastAddr(ip4, mask).String()
				}
			}
			rec.Unicast = append(rec.Unicast, entry)
			continue
		}

		ones, _ := ipNet.Mask.Size()
		rec.Unicast = append(rec.Unicast, Address{
			Flags:   flags,
			Family:  FamilyInet6,
			Address: ipNet.IP.String(),
			Netmask: PrefixToNetmask(ones),
		})
	}
	return rec
}

func broadcastAddr(ip net.IP, mask net.IPMask) net.IP {
	b := make(net.IP, net.IPv4len)
	for i := range b {
		b[i] = ip[i] | ^mask[i]
	}
	return b
}
