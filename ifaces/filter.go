package ifaces

// HostAddresses selects the IPv4 addresses usable as this host's address.
// Interfaces that are down, loopback, or not running are skipped as a whole:
// one such entry disqualifies every address on the interface. Addresses are
// returned in table order, then entry order.
func HostAddresses(t Table) []string {
	var ips []string
	for _, iface := range t {
		if !iface.Up || len(iface.Unicast) == 0 {
			continue
		}
		ips = append(ips, usableAddresses(iface)...)
	}
	return ips
}

func usableAddresses(iface Interface) []string {
	var ips []string
	for _, addr := range iface.Unicast {
		if addr.Flags&FlagLoopback != 0 || addr.Flags&FlagUp == 0 || addr.Flags&FlagRunning == 0 {
			return nil
		}
		if addr.Family != FamilyInet {
			continue
		}
		ips = append(ips, addr.Address)
	}
	return ips
}
