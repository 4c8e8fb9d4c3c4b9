package ifaces

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// PrefixToNetmask converts an IPv6 prefix length into the colon separated
// mask form used for inet6 entries. Only the groups covered by the prefix are
// written; prefixes up to 112 bits end in "::".
func PrefixToNetmask(prefixLen int) string {
	if prefixLen < 0 {
		prefixLen = 0
	}
	if prefixLen > 128 {
		prefixLen = 128
	}

	var words []string
	for i := prefixLen; i > 0; i -= 16 {
		n := 0
		if i <= 16 {
			n = 16 - i
		}
		words = append(words, fmt.Sprintf("%x", 0xffff&(^0<<n)))
	}

	netmask := strings.Join(words, ":")
	if prefixLen <= 112 {
		netmask += "::"
	}
	return netmask
}

// dottedNetmask normalises an IPv4 mask. BSD ifconfig prints masks as
// 0xffffff00; those are converted to dotted quads, anything else is returned
// as is.
func dottedNetmask(mask string) string {
	if !strings.HasPrefix(mask, "0x") && !strings.HasPrefix(mask, "0X") {
		return mask
	}
	v, err := strconv.ParseUint(mask[2:], 16, 32)
	if err != nil {
		return mask
	}
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v)).String()
}
