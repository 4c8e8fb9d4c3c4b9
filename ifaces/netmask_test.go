package ifaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixToNetmask(t *testing.T) {
	tests := []struct {
		prefix int
		want   string
	}{
		{0, "::"},
		{8, "ff00::"},
		{10, "ffc0::"},
		{16, "ffff::"},
		{48, "ffff:ffff:ffff::"},
		{60, "ffff:ffff:ffff:fff0::"},
		{64, "ffff:ffff:ffff:ffff::"},
		{112, "ffff:ffff:ffff:ffff:ffff:ffff:ffff::"},
		{120, "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ff00"},
		{128, "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"},
		{200, "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"},
		{-4, "::"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrefixToNetmask(tt.prefix), "prefix %d", tt.prefix)
	}
}

func TestDottedNetmask(t *testing.T) {
	assert.Equal(t, "255.255.255.0", dottedNetmask("0xffffff00"))
	assert.Equal(t, "255.0.0.0", dottedNetmask("0xff000000"))
	assert.Equal(t, "255.255.0.0", dottedNetmask("255.255.0.0"))
	assert.Equal(t, "0xnothex", dottedNetmask("0xnothex"))
}
