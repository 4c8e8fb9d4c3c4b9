package ifaces

import (
	"context"
	"log"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultCommand is the legacy interface listing command
const DefaultCommand = "ifconfig"

// sbinDirs are searched when the command is not on PATH; ifconfig usually
// lives there and unprivileged PATHs often lack them.
var sbinDirs = []string{"/sbin", "/usr/sbin"}

// CommandRunner runs an external command and returns its standard output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]string, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes name and returns its stdout split into lines. A command that
// cannot be found, fails to start, or exits non-zero is an error; a command
// that prints nothing is not.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]string, error) {
	path, err := lookCommand(name)
	if err != nil {
		return nil, err
	}

	log.Printf("DEBUG: Running %s %v", path, args)
	output, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return nil, errors.Wrapf(err, "running %s", name)
	}
	return SplitLines(string(output)), nil
}

func lookCommand(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err == nil {
		return path, nil
	}
	if strings.ContainsRune(name, filepath.Separator) {
		return "", errors.Wrapf(err, "looking up %s", name)
	}
	for _, dir := range sbinDirs {
		if p, err := exec.LookPath(filepath.Join(dir, name)); err == nil {
			return p, nil
		}
	}
	return "", errors.Wrapf(err, "looking up %s", name)
}

// SplitLines splits command output into lines, dropping the empty element
// after a trailing newline and any carriage returns.
func SplitLines(output string) []string {
	output = strings.TrimSuffix(output, "\n")
	if output == "" {
		return []string{}
	}
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}
