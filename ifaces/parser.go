package ifaces

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headerRe  = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._:-]*?):?[ \t]+(.*)$`)
	flagsRe   = regexp.MustCompile(`(?:^|\s)flags=([0-9A-Fa-f]+)(?:<([^>]*)>)?`)
	macRe     = regexp.MustCompile(`\s(?:HWaddr|ether)\s([A-Fa-f0-9:]+)`)
	mtuRe     = regexp.MustCompile(`\s(?:mtu\s|MTU:)([0-9]+)`)
	ipv4Mask  = `(0[xX][0-9A-Fa-f]+|[0-9.]+)`
	ipv6Token = `([:A-Fa-f0-9.]+)(?:%\S+)?`
)

// addrPattern recognises one address line grammar
type addrPattern struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) Address
}

// addrPatterns are tried in order; the first match wins. Patterns carrying a
// broadcast address come before their shorter variants.
var addrPatterns = []addrPattern{
	{
		name: "inet addr bcast mask",
		re:   regexp.MustCompile(`^\s+inet addr:([0-9.]+)\s+Bcast:([0-9.]+)\s+Mask:([0-9.]+)`),
		build: func(m []string) Address {
			return Address{Family: FamilyInet, Address: m[1], Netmask: m[3], Broadcast: m[2]}
		},
	},
	{
		name: "inet addr mask",
		re:   regexp.MustCompile(`^\s+inet addr:([0-9.]+)\s+Mask:([0-9.]+)`),
		build: func(m []string) Address {
			return Address{Family: FamilyInet, Address: m[1], Netmask: m[2]}
		},
	},
	{
		name: "inet netmask broadcast",
		re:   regexp.MustCompile(`^\s+inet ([0-9.]+)\s+netmask ` + ipv4Mask + `\s+broadcast ([0-9.]+)`),
		build: func(m []string) Address {
			return Address{Family: FamilyInet, Address: m[1], Netmask: dottedNetmask(m[2]), Broadcast: m[3]}
		},
	},
	{
		name: "inet netmask",
		re:   regexp.MustCompile(`^\s+inet ([0-9.]+)\s+netmask ` + ipv4Mask),
		build: func(m []string) Address {
			return Address{Family: FamilyInet, Address: m[1], Netmask: dottedNetmask(m[2])}
		},
	},
	{
		name: "inet6 addr",
		re:   regexp.MustCompile(`^\s+inet6 addr: ?` + ipv6Token + `/([0-9]+)`),
		build: func(m []string) Address {
			return Address{Family: FamilyInet6, Address: m[1], Netmask: prefixNetmask(m[2])}
		},
	},
	{
		name: "inet6 prefixlen",
		re:   regexp.MustCompile(`^\s+inet6 ` + ipv6Token + `\s+prefixlen ([0-9]+)`),
		build: func(m []string) Address {
			return Address{Family: FamilyInet6, Address: m[1], Netmask: prefixNetmask(m[2])}
		},
	},
}

func prefixNetmask(s string) string {
	n, err := strconv.Atoi(s)
	if err != nil {
		n = 128
	}
	return PrefixToNetmask(n)
}

// block is the header remainder and continuation lines of one interface
type block struct {
	name  string
	lines []string
}

// ParseIfconfig converts ifconfig output into an interface table. Lines that
// match none of the known grammars are skipped; the result may be empty.
func ParseIfconfig(lines []string) Table {
	var table Table
	index := make(map[string]int)

	for _, b := range splitBlocks(lines) {
		iface := b.build()
		i, ok := index[b.name]
		if !ok {
			index[b.name] = len(table)
			table = append(table, iface)
			continue
		}

		// A repeated header starts the interface over, but keeps what was
		// learned about the link itself.
		prev := table[i]
		if iface.MAC == "" {
			iface.MAC = prev.MAC
		}
		if iface.MTU == 0 {
			iface.MTU = prev.MTU
		}
		table[i] = iface
	}
	return table
}

// splitBlocks groups lines per interface. Lines before the first header
// belong to no interface and are dropped.
func splitBlocks(lines []string) []block {
	var blocks []block
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if m := headerRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, block{name: m[1], lines: []string{m[2]}})
			continue
		}
		if len(blocks) == 0 {
			continue
		}
		cur := &blocks[len(blocks)-1]
		cur.lines = append(cur.lines, line)
	}
	return blocks
}

// build creates the interface for a block. Flags may be printed after the
// address lines, so they are applied to every entry once the block is done.
func (b block) build() Interface {
	iface := Interface{
		Name:    b.name,
		Unicast: []Address{{Family: FamilyPacket}},
	}

	var flags Flags
	for _, line := range b.lines {
		if f, ok := extractFlags(line); ok {
			flags = f
			if f&FlagUp != 0 {
				iface.Up = true
			}
		}

		if m := macRe.FindStringSubmatch(line); m != nil {
			iface.MAC = m[1]
			continue
		}

		if m := mtuRe.FindStringSubmatch(line); m != nil {
			if mtu, err := strconv.Atoi(m[1]); err == nil {
				iface.MTU = mtu
			}
		}

		if addr, ok := matchAddress(line); ok {
			iface.Unicast = append(iface.Unicast, addr)
		}
	}

	for i := range iface.Unicast {
		iface.Unicast[i].Flags = flags
	}
	return iface
}

// portableFlags have the same bit values in Linux and BSD headers
const portableFlags = FlagUp | FlagBroadcast | FlagLoopback | FlagPointToPoint | FlagRunning

// extractFlags reads either the numeric flags=NNNN form or the list of flag
// words printed on the MTU: line of older ifconfig versions.
func extractFlags(line string) (Flags, bool) {
	if m := flagsRe.FindStringSubmatch(line); m != nil {
		return numericFlags(m[1], m[2])
	}

	if !strings.Contains(line, "MTU:") {
		return 0, false
	}
	return wordFlags(strings.Fields(line)), true
}

// numericFlags parses the value of flags=. Linux prints it in decimal, BSD
// and macOS in hex; the <WORDS> list that follows decides which one it is.
func numericFlags(digits, words string) (Flags, bool) {
	dec, decErr := strconv.ParseUint(digits, 10, 32)
	if decErr == nil && words == "" {
		return Flags(dec), true
	}

	named := wordFlags(strings.Split(words, ",")) & portableFlags
	if decErr == nil && Flags(dec)&portableFlags == named {
		return Flags(dec), true
	}
	if hex, err := strconv.ParseUint(digits, 16, 32); err == nil && Flags(hex)&portableFlags == named {
		return Flags(hex), true
	}
	if decErr == nil {
		return Flags(dec), true
	}
	return 0, false
}

func wordFlags(words []string) Flags {
	var flags Flags
	for _, word := range words {
		flags |= flagNames[word]
	}
	return flags
}

func matchAddress(line string) (Address, bool) {
	for _, p := range addrPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return p.build(m), true
		}
	}
	return Address{}, false
}
