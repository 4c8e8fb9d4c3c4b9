package ifaces

import (
	"strings"
)

// NormalizeMACAddress converts a MAC address to upper case colon separated
// form. Octets printed without their leading zero (0:1c:42:...) are padded.
func NormalizeMACAddress(mac string) string {
	parts := strings.FieldsFunc(strings.ToUpper(mac), func(r rune) bool {
		return r == ':' || r == '-' || r == '.'
	})
	if len(parts) == 6 {
		for i, p := range parts {
			if len(p) == 1 {
				parts[i] = "0" + p
			}
		}
		return strings.Join(parts, ":")
	}

	// xxxx.xxxx.xxxx and bare hex
	var result strings.Builder
	for i, char := range strings.Join(parts, "") {
		if i > 0 && i%2 == 0 {
			result.WriteRune(':')
		}
		result.WriteRune(char)
	}
	return result.String()
}
