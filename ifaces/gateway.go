package ifaces

import (
	"net"

	"github.com/jackpal/gateway"
	"github.com/pkg/errors"
)

// discoverGateway is swapped out in tests
var discoverGateway = gateway.DiscoverGateway

// GatewayInterface returns the name of the interface that reaches the
// default gateway, along with the gateway address.
func GatewayInterface(t Table) (string, net.IP, error) {
	gw, err := discoverGateway()
	if err != nil {
		return "", nil, errors.Wrap(err, "discovering gateway")
	}
	name, ok := MatchGateway(t, gw)
	if !ok {
		return "", gw, errors.Errorf("no interface on the subnet of gateway %s", gw)
	}
	return name, gw, nil
}

// MatchGateway finds the first interface with an IPv4 subnet containing gw
func MatchGateway(t Table, gw net.IP) (string, bool) {
	gw4 := gw.To4()
	if gw4 == nil {
		return "", false
	}
	for _, iface := range t {
		for _, addr := range iface.Unicast {
			if addr.Family != FamilyInet {
				continue
			}
			ip := net.ParseIP(addr.Address).To4()
			mask := net.ParseIP(addr.Netmask).To4()
			if ip == nil || mask == nil {
				continue
			}
			subnet := net.IPNet{IP: ip.Mask(net.IPMask(mask)), Mask: net.IPMask(mask)}
			if subnet.Contains(gw4) {
				return iface.Name, true
			}
		}
	}
	return "", false
}
