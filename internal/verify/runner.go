package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRunner abstracts process execution so oracles can be tested without
// the real toolchain.
type CommandRunner interface {
	Run(ctx context.Context, dir string, argv []string) (stdout string, stderr string, exitCode int, err error)
	LookPath(name string) (string, error)
}

var errEmptyCommand = errors.New("empty command")

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, argv []string) (string, string, int, error) {
	if len(argv) == 0 {
		return "", "", -1, errEmptyCommand
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), -1, fmt.Errorf("exec %s: %w", argv[0], err)
		}
		exitCode = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), exitCode, nil
}

func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
