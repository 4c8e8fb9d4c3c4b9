package ifaces

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSystem struct {
	table Table
	err   error
	calls int
}

func (f *fakeSystem) Interfaces() (Table, error) {
	f.calls++
	return f.table, f.err
}

type fakeRunner struct {
	lines []string
	err   error
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]string, error) {
	f.calls = append(f.calls, name)
	return f.lines, f.err
}

func testResolver(sys SystemQuery, runner CommandRunner) *Resolver {
	return &Resolver{
		System:   sys,
		Runner:   runner,
		Hostname: func() (string, error) { return "web-01", nil },
		LookupHost: func(ctx context.Context, host string) ([]string, error) {
			return []string{"10.50.0.7"}, nil
		},
		LookupAddr: func(ctx context.Context, addr string) ([]string, error) {
			return []string{"web-01.prod.example.com."}, nil
		},
	}
}

func fixtureLines(t *testing.T, name string) []string {
	t.Helper()
	bs, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return SplitLines(string(bs))
}

func TestResolverPrefersSystem(t *testing.T) {
	sys := &fakeSystem{table: Table{iface("eth0", true, ethFlags, inet("10.0.0.5"))}}
	runner := &fakeRunner{}
	r := testResolver(sys, runner)

	res := r.Resolve(context.Background())
	assert.Equal(t, SourceSystem, res.Source)
	assert.Equal(t, []string{"10.0.0.5"}, res.Addresses)
	assert.False(t, res.Fallback)
	assert.Empty(t, runner.calls)
}

func TestResolverFallsBackToCommand(t *testing.T) {
	sys := &fakeSystem{err: ErrUnsupported}
	runner := &fakeRunner{lines: fixtureLines(t, "ubuntu-16.04-multi.txt")}
	r := testResolver(sys, runner)

	table, err := r.GetNetworkInterfaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ens3", "ens20", "lo"}, table.Names())

	assert.Equal(t, []string{"172.25.12.1", "172.26.11.64"}, r.GetHostAddress(context.Background()))
	assert.Equal(t, []string{DefaultCommand, DefaultCommand}, runner.calls)
}

func TestResolverCommandSource(t *testing.T) {
	sys := &fakeSystem{table: Table{iface("eth0", true, ethFlags, inet("10.0.0.5"))}}
	runner := &fakeRunner{lines: fixtureLines(t, "ubuntu-18.04.txt")}
	r := testResolver(sys, runner)
	r.Source = SourceCommand
	r.Command = "/usr/local/sbin/ifconfig"

	res := r.Resolve(context.Background())
	assert.Equal(t, SourceCommand, res.Source)
	assert.Equal(t, []string{"10.171.0.63"}, res.Addresses)
	assert.Equal(t, 0, sys.calls)
	assert.Equal(t, []string{"/usr/local/sbin/ifconfig"}, runner.calls)
}

func TestResolverSystemSourceDoesNotRunCommand(t *testing.T) {
	sys := &fakeSystem{err: ErrUnsupported}
	runner := &fakeRunner{lines: fixtureLines(t, "ubuntu-18.04.txt")}
	r := testResolver(sys, runner)
	r.Source = SourceSystem

	_, err := r.GetNetworkInterfaces(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Empty(t, runner.calls)
}

func TestResolverUnavailable(t *testing.T) {
	sys := &fakeSystem{err: ErrUnsupported}
	runner := &fakeRunner{err: errors.New("exec: \"ifconfig\": executable file not found in $PATH")}
	r := testResolver(sys, runner)

	table, err := r.GetNetworkInterfaces(context.Background())
	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "executable file not found")

	res := r.Resolve(context.Background())
	assert.Equal(t, SourceNone, res.Source)
	assert.True(t, res.Fallback)
	assert.Equal(t, []string{"web-01.prod.example.com"}, res.Addresses)
}

func TestResolverEmptyResultFallsBack(t *testing.T) {
	sys := &fakeSystem{table: Table{iface("lo", true, loFlags, inet("127.0.0.1"))}}
	r := testResolver(sys, nil)

	assert.Equal(t, []string{"web-01.prod.example.com"}, r.GetHostAddress(context.Background()))
}

func TestResolverEmptyCommandOutput(t *testing.T) {
	r := testResolver(nil, &fakeRunner{lines: []string{}})

	table, err := r.GetNetworkInterfaces(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)
	assert.Equal(t, []string{"web-01.prod.example.com"}, r.GetHostAddress(context.Background()))
}

func TestFallbackName(t *testing.T) {
	ctx := context.Background()

	r := testResolver(nil, nil)
	r.LookupAddr = func(ctx context.Context, addr string) ([]string, error) {
		return nil, errors.New("no PTR record")
	}
	assert.Equal(t, "web-01", r.fallbackName(ctx))

	r = testResolver(nil, nil)
	r.LookupHost = func(ctx context.Context, host string) ([]string, error) {
		return nil, errors.New("no such host")
	}
	assert.Equal(t, "web-01", r.fallbackName(ctx))

	r = testResolver(nil, nil)
	r.Hostname = func() (string, error) { return "", errors.New("uname failed") }
	r.LookupHost = nil
	assert.Equal(t, "localhost", r.fallbackName(ctx))
}

func TestParseSource(t *testing.T) {
	for in, want := range map[string]Source{"": SourceAuto, "auto": SourceAuto, "System": SourceSystem, "command": SourceCommand} {
		got, err := ParseSource(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSource("netlink")
	assert.Error(t, err)
}
