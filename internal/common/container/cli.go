package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/utils/logger"

	"github.com/google/shlex"
	"go.uber.org/zap"
)

// commandRunner executes the runtime binary and returns its stdout and stderr.
type commandRunner func(ctx context.Context, binary string, args ...string) (stdout, stderr []byte, err error)

// CLIRuntime implements Runtime using the docker or podman CLI.
type CLIRuntime struct {
	binary   string
	baseArgs []string
	timeout  time.Duration
	run      commandRunner
}

// NewCLIRuntime builds a runtime from a command line such as "docker" or
// "sudo -n podman". An empty command auto-detects docker, then podman.
func NewCLIRuntime(command string, timeout time.Duration) (*CLIRuntime, error) {
	if strings.TrimSpace(command) == "" {
		detected, err := DetectRuntime()
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.RuntimeUnavailable)
		}
		command = detected
	}
	parts, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse runtime command failed: %w", err)
	}
	if len(parts) == 0 || parts[0] == "" {
		return nil, pkgerrors.Wrap(ErrNoRuntime, pkgerrors.RuntimeUnavailable)
	}
	return &CLIRuntime{
		binary:   parts[0],
		baseArgs: parts[1:],
		timeout:  timeout,
		run:      execRunner,
	}, nil
}

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Create creates a new container but does not start it.
func (r *CLIRuntime) Create(ctx context.Context, spec CreateSpec) error {
	args := []string{"create", "--name", spec.Name}
	for _, label := range spec.Labels {
		args = append(args, "--label", label.Key+"="+label.Value)
	}
	if spec.Init {
		args = append(args, "--init")
	}
	if spec.Entrypoint != nil {
		args = append(args, "--entrypoint", *spec.Entrypoint)
	}
	for _, port := range spec.PublishPorts {
		args = append(args, "-p", strconv.Itoa(port))
	}
	for _, volume := range spec.Volumes {
		args = append(args, "-v", volume)
	}

	// Image and command come last
	args = append(args, spec.Image)
	args = append(args, spec.Cmd...)

	_, err := r.call(ctx, "create", spec.Name, args...)
	return err
}

// Start starts a previously created container.
func (r *CLIRuntime) Start(ctx context.Context, name string) error {
	_, err := r.call(ctx, "start", name, "start", name)
	return err
}

// Stop stops a running container.
func (r *CLIRuntime) Stop(ctx context.Context, name string) error {
	_, err := r.call(ctx, "stop", name, "stop", name)
	return err
}

// Remove removes a container in any state, with its volumes.
func (r *CLIRuntime) Remove(ctx context.Context, name string) error {
	_, err := r.call(ctx, "remove", name, "rm", "-f", "-v", name)
	return err
}

// Exec runs a command inside a running container.
func (r *CLIRuntime) Exec(ctx context.Context, name string, cmd []string) error {
	args := append([]string{"exec", name}, cmd...)
	_, err := r.call(ctx, "exec", name, args...)
	return err
}

// Inspect renders format against the container.
func (r *CLIRuntime) Inspect(ctx context.Context, name, format string) (string, error) {
	out, err := r.call(ctx, "inspect", name, "inspect", "-f", format, name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ListByLabel lists containers in every state carrying the label.
func (r *CLIRuntime) ListByLabel(ctx context.Context, key, value string) ([]Summary, error) {
	out, err := r.call(ctx, "list", "",
		"ps", "--all",
		"--filter", "label="+key+"="+value,
		"--format", "{{.Names}} {{.Status}}",
	)
	if err != nil {
		return nil, err
	}
	return parseSummaries(string(out)), nil
}

func parseSummaries(out string) []Summary {
	var result []Summary
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, status, _ := strings.Cut(line, " ")
		result = append(result, Summary{Name: name, Status: strings.TrimSpace(status)})
	}
	return result
}

// call runs one runtime command. Only the operation and container name are
// logged: arguments can carry connection tokens and session credentials.
func (r *CLIRuntime) call(ctx context.Context, op, name string, args ...string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	full := make([]string, 0, len(r.baseArgs)+len(args))
	full = append(full, r.baseArgs...)
	full = append(full, args...)

	start := time.Now()
	stdout, stderr, err := r.run(ctx, r.binary, full...)
	logger.Debug(ctx, "container runtime call",
		zap.String("op", op),
		zap.String("container", name),
		zap.Duration("latency", time.Since(start)),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		return nil, classify(op, name, stderr, err)
	}
	return stdout, nil
}

func classify(op, name string, stderr []byte, err error) error {
	msg := string(stderr)
	lower := strings.ToLower(msg)
	cause := err
	switch {
	case strings.Contains(lower, "no such container"),
		strings.Contains(lower, "no container with name or id"),
		strings.Contains(lower, "no such object"):
		cause = ErrNotFound
	case strings.Contains(lower, "is already in use"):
		cause = ErrConflict
	}
	var exitErr *exec.ExitError
	if cause == err && !errors.As(err, &exitErr) && msg == "" {
		msg = err.Error()
	}
	return &OpError{Op: op, Name: name, Stderr: msg, Err: cause}
}

var _ Runtime = (*CLIRuntime)(nil)
