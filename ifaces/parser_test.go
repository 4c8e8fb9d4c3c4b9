package ifaces

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []string {
	t.Helper()
	bs, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return SplitLines(string(bs))
}

const (
	ethFlags  = FlagUp | FlagBroadcast | FlagRunning | FlagMulticast // 4163
	loFlags   = FlagUp | FlagLoopback | FlagRunning                  // 73
	ipv6Mask  = "ffff:ffff:ffff:ffff::"
	hostMask6 = "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff"
)

func TestHostAddressesFromFixtures(t *testing.T) {
	tests := []struct {
		fixture string
		want    []string
	}{
		{"ubuntu-12.04.txt", []string{"10.171.0.29"}},
		{"ubuntu-14.04.txt", []string{"10.211.2.19"}},
		{"ubuntu-16.04-docker.txt", []string{"10.181.0.10"}},
		{"ubuntu-16.04-multi.txt", []string{"172.25.12.1", "172.26.11.64"}},
		{"ubuntu-18.04.txt", []string{"10.171.0.63"}},
		{"ubuntu-20.04.txt", []string{"172.25.31.1"}},
		{"ubuntu-22.04-docker.txt", []string{"10.191.0.70"}},
		{"macos-ventura.txt", []string{"192.168.1.23"}},
	}
	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			table := ParseIfconfig(readFixture(t, tt.fixture))
			assert.Equal(t, tt.want, HostAddresses(table))
		})
	}
}

func TestParseIfconfigVerboseFlags(t *testing.T) {
	table := ParseIfconfig(readFixture(t, "ubuntu-12.04.txt"))

	want := Table{
		{
			Name: "eth0",
			Up:   true,
			MAC:  "ce:51:0e:b7:f0:84",
			MTU:  1500,
			Unicast: []Address{
				{Flags: ethFlags, Family: FamilyPacket},
				{Flags: ethFlags, Family: FamilyInet, Address: "10.171.0.29", Netmask: "255.255.0.0", Broadcast: "10.171.255.255"},
				{Flags: ethFlags, Family: FamilyInet6, Address: "fe80::cc51:eff:feb7:f084", Netmask: ipv6Mask},
			},
		},
		{
			Name: "lo",
			Up:   true,
			MTU:  16436,
			Unicast: []Address{
				{Flags: loFlags, Family: FamilyPacket},
				{Flags: loFlags, Family: FamilyInet, Address: "127.0.0.1", Netmask: "255.0.0.0"},
				{Flags: loFlags, Family: FamilyInet6, Address: "::1", Netmask: hostMask6},
			},
		},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("ParseIfconfig mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIfconfigCompactFlags(t *testing.T) {
	table := ParseIfconfig(readFixture(t, "ubuntu-18.04.txt"))

	want := Table{
		{
			Name: "eth0",
			Up:   true,
			MAC:  "96:12:e3:2b:24:81",
			MTU:  1500,
			Unicast: []Address{
				{Flags: ethFlags, Family: FamilyPacket},
				{Flags: ethFlags, Family: FamilyInet, Address: "10.171.0.63", Netmask: "255.255.0.0", Broadcast: "10.171.255.255"},
				{Flags: ethFlags, Family: FamilyInet6, Address: "fe80::9412:e3ff:fe2b:2481", Netmask: ipv6Mask},
			},
		},
		{
			Name: "lo",
			Up:   true,
			MTU:  65536,
			Unicast: []Address{
				{Flags: loFlags, Family: FamilyPacket},
				{Flags: loFlags, Family: FamilyInet, Address: "127.0.0.1", Netmask: "255.0.0.0"},
				{Flags: loFlags, Family: FamilyInet6, Address: "::1", Netmask: hostMask6},
			},
		},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("ParseIfconfig mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIfconfigMacOS(t *testing.T) {
	table := ParseIfconfig(readFixture(t, "macos-ventura.txt"))
	assert.Equal(t, []string{"lo0", "gif0", "stf0", "en0", "utun0"}, table.Names())

	lo0, ok := table.Lookup("lo0")
	require.True(t, ok)
	assert.True(t, lo0.Unicast[0].Flags.Has(FlagLoopback|FlagRunning|FlagUp))
	assert.Equal(t, "255.0.0.0", lo0.Unicast[1].Netmask)
	assert.Equal(t, "fe80::1", lo0.Unicast[3].Address)

	en0, ok := table.Lookup("en0")
	require.True(t, ok)
	assert.True(t, en0.Up)
	assert.Equal(t, "3c:22:fb:7a:10:5e", en0.MAC)
	assert.Equal(t, 1500, en0.MTU)
	assert.Equal(t, Flags(0x8863), en0.Unicast[0].Flags)
	assert.Equal(t, Address{
		Flags:   Flags(0x8863),
		Family:  FamilyInet6,
		Address: "fe80::18a4:2c1b:8e0d:f3a2",
		Netmask: ipv6Mask,
	}, en0.Unicast[1])
	assert.Equal(t, Address{
		Flags:     Flags(0x8863),
		Family:    FamilyInet,
		Address:   "192.168.1.23",
		Netmask:   "255.255.255.0",
		Broadcast: "192.168.1.255",
	}, en0.Unicast[2])

	gif0, ok := table.Lookup("gif0")
	require.True(t, ok)
	assert.False(t, gif0.Up)
	assert.Equal(t, FlagPointToPoint, gif0.Unicast[0].Flags&portableFlags)

	stf0, ok := table.Lookup("stf0")
	require.True(t, ok)
	assert.False(t, stf0.Up)
	assert.Equal(t, Flags(0), stf0.Unicast[0].Flags)
}

func TestFlagGrammarsAgree(t *testing.T) {
	tests := []struct {
		compact string
		verbose string
		want    Flags
	}{
		{
			compact: "eth0: flags=4163<UP,BROADCAST,RUNNING,MULTICAST>  mtu 1500",
			verbose: "          UP BROADCAST RUNNING MULTICAST  MTU:1500  Metric:1",
			want:    ethFlags,
		},
		{
			compact: "lo: flags=73<UP,LOOPBACK,RUNNING>  mtu 65536",
			verbose: "          UP LOOPBACK RUNNING  MTU:65536  Metric:1",
			want:    loFlags,
		},
		{
			compact: "docker0: flags=4099<UP,BROADCAST,MULTICAST>  mtu 1500",
			verbose: "          UP BROADCAST MULTICAST  MTU:1500  Metric:1",
			want:    FlagUp | FlagBroadcast | FlagMulticast,
		},
		{
			compact: "tun0: flags=4305<UP,POINTOPOINT,RUNNING,NOARP,MULTICAST>  mtu 1500",
			verbose: "          UP POINTOPOINT RUNNING NOARP MULTICAST  MTU:1500  Metric:1",
			want:    FlagUp | FlagPointToPoint | FlagRunning | FlagNoARP | FlagMulticast,
		},
	}
	for _, tt := range tests {
		compact := ParseIfconfig([]string{tt.compact})
		verbose := ParseIfconfig([]string{"eth0      Link encap:Ethernet", tt.verbose})
		require.Len(t, compact, 1)
		require.Len(t, verbose, 1)
		assert.Equal(t, tt.want, compact[0].Unicast[0].Flags, tt.compact)
		assert.Equal(t, tt.want, verbose[0].Unicast[0].Flags, tt.verbose)
		assert.Equal(t, tt.want.Has(FlagUp), compact[0].Up)
		assert.Equal(t, tt.want.Has(FlagUp), verbose[0].Up)
	}
}

func TestParseIfconfigIdempotent(t *testing.T) {
	for _, fixture := range []string{"ubuntu-16.04-multi.txt", "ubuntu-22.04-docker.txt", "macos-ventura.txt"} {
		lines := readFixture(t, fixture)
		if diff := cmp.Diff(ParseIfconfig(lines), ParseIfconfig(lines)); diff != "" {
			t.Errorf("%s: second parse differs (-first +second):\n%s", fixture, diff)
		}
	}
}

func TestParseIfconfigFlagsAppliedToEarlierEntries(t *testing.T) {
	table := ParseIfconfig(readFixture(t, "ubuntu-16.04-docker.txt"))

	docker0, ok := table.Lookup("docker0")
	require.True(t, ok)
	require.Len(t, docker0.Unicast, 2)
	for _, addr := range docker0.Unicast {
		assert.Equal(t, FlagUp|FlagBroadcast|FlagMulticast, addr.Flags)
	}
	assert.True(t, docker0.Up)
	assert.Equal(t, "172.17.0.1", docker0.Unicast[1].Address)
	assert.Equal(t, "172.17.255.255", docker0.Unicast[1].Broadcast)
}

func TestParseIfconfigInterfaceNames(t *testing.T) {
	lines := []string{
		"eth0: flags=4163<UP,BROADCAST,RUNNING,MULTICAST>  mtu 1500",
		"        inet 10.0.0.2  netmask 255.255.255.0  broadcast 10.0.0.255",
		"br-1a2b3c4d5e6f: flags=4099<UP,BROADCAST,MULTICAST>  mtu 1500",
		"        inet 172.18.0.1  netmask 255.255.0.0  broadcast 172.18.255.255",
		"eth0.100: flags=4163<UP,BROADCAST,RUNNING,MULTICAST>  mtu 1500",
		"        inet 10.100.0.2  netmask 255.255.255.0  broadcast 10.100.0.255",
		"eth0:1    Link encap:Ethernet  HWaddr 52:54:00:12:34:56",
		"          inet addr:10.0.1.2  Bcast:10.0.1.255  Mask:255.255.255.0",
		"          UP BROADCAST RUNNING MULTICAST  MTU:1500  Metric:1",
	}
	table := ParseIfconfig(lines)
	assert.Equal(t, []string{"eth0", "br-1a2b3c4d5e6f", "eth0.100", "eth0:1"}, table.Names())
	assert.Equal(t, []string{"10.0.0.2", "10.100.0.2", "10.0.1.2"}, HostAddresses(table))

	eth0, _ := table.Lookup("eth0")
	assert.Equal(t, ethFlags, eth0.Unicast[0].Flags)
}

func TestParseIfconfigRepeatedHeader(t *testing.T) {
	lines := []string{
		"eth0      Link encap:Ethernet  HWaddr 52:54:00:12:34:56",
		"          inet addr:10.0.0.2  Bcast:10.0.0.255  Mask:255.255.255.0",
		"          UP BROADCAST RUNNING MULTICAST  MTU:9000  Metric:1",
		"lo        Link encap:Local Loopback",
		"          UP LOOPBACK RUNNING  MTU:65536  Metric:1",
		"eth0: flags=4099<UP,BROADCAST,MULTICAST>",
		"        inet 10.0.0.3  netmask 255.255.255.0",
	}
	table := ParseIfconfig(lines)
	assert.Equal(t, []string{"eth0", "lo"}, table.Names())

	eth0, _ := table.Lookup("eth0")
	assert.Equal(t, "52:54:00:12:34:56", eth0.MAC)
	assert.Equal(t, 9000, eth0.MTU)
	require.Len(t, eth0.Unicast, 2)
	assert.Equal(t, "10.0.0.3", eth0.Unicast[1].Address)
	assert.Empty(t, HostAddresses(table))
}

func TestParseIfconfigSkipsNoise(t *testing.T) {
	assert.Empty(t, ParseIfconfig(nil))
	assert.Empty(t, ParseIfconfig([]string{"", "   ", "        inet 10.0.0.2  netmask 255.0.0.0"}))

	table := ParseIfconfig(strings.Split("garbage\n\n\tnot an address\n", "\n"))
	assert.Empty(t, table)

	table = ParseIfconfig([]string{
		"wlan0: flags=4163<UP,BROADCAST,RUNNING,MULTICAST>  mtu 1500",
		"        this line means nothing",
		"        inet 999",
	})
	require.Len(t, table, 1)
	assert.Len(t, table[0].Unicast, 1)
	assert.Equal(t, FamilyPacket, table[0].Unicast[0].Family)
}

func TestAddrPatterns(t *testing.T) {
	tests := []struct {
		pattern string
		line    string
		want    Address
	}{
		{
			pattern: "inet addr bcast mask",
			line:    "          inet addr:10.171.0.29  Bcast:10.171.255.255  Mask:255.255.0.0",
			want:    Address{Family: FamilyInet, Address: "10.171.0.29", Netmask: "255.255.0.0", Broadcast: "10.171.255.255"},
		},
		{
			pattern: "inet addr mask",
			line:    "          inet addr:127.0.0.1  Mask:255.0.0.0",
			want:    Address{Family: FamilyInet, Address: "127.0.0.1", Netmask: "255.0.0.0"},
		},
		{
			pattern: "inet netmask broadcast",
			line:    "        inet 10.171.0.63  netmask 255.255.0.0  broadcast 10.171.255.255",
			want:    Address{Family: FamilyInet, Address: "10.171.0.63", Netmask: "255.255.0.0", Broadcast: "10.171.255.255"},
		},
		{
			pattern: "inet netmask",
			line:    "\tinet 127.0.0.1 netmask 0xff000000",
			want:    Address{Family: FamilyInet, Address: "127.0.0.1", Netmask: "255.0.0.0"},
		},
		{
			pattern: "inet6 addr",
			line:    "          inet6 addr: fe80::cc51:eff:feb7:f084/64 Scope:Link",
			want:    Address{Family: FamilyInet6, Address: "fe80::cc51:eff:feb7:f084", Netmask: ipv6Mask},
		},
		{
			pattern: "inet6 prefixlen",
			line:    "        inet6 fe80::9412:e3ff:fe2b:2481  prefixlen 64  scopeid 0x20<link>",
			want:    Address{Family: FamilyInet6, Address: "fe80::9412:e3ff:fe2b:2481", Netmask: ipv6Mask},
		},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			var matched []string
			for _, p := range addrPatterns {
				if p.re.MatchString(tt.line) {
					matched = append(matched, p.name)
				}
			}
			require.NotEmpty(t, matched)
			assert.Equal(t, tt.pattern, matched[0], "first matching pattern")

			got, ok := matchAddress(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddrPatternsNeedIndent(t *testing.T) {
	_, ok := matchAddress("inet 10.0.0.1  netmask 255.0.0.0")
	assert.False(t, ok)
}
