package container

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the named container does not exist.
	ErrNotFound = errors.New("container not found")
	// ErrConflict is returned when a container with the same name already exists.
	ErrConflict = errors.New("container name already in use")
)

// Label is a key=value runtime label.
type Label struct {
	Key   string
	Value string
}

// CreateSpec specifies container creation parameters.
type CreateSpec struct {
	// Name is the container name (e.g. "vscs_user_42")
	Name string

	// Image is the container image
	Image string

	// Labels are attached to the container and used for listing
	Labels []Label

	// Init runs an init process as PID 1
	Init bool

	// Entrypoint overrides the image entrypoint when non-nil; an empty
	// string clears it.
	Entrypoint *string

	// PublishPorts are container ports published on random host ports
	PublishPorts []int

	// Volumes are bind mounts in "host:container[:opts]" form
	Volumes []string

	// Cmd is the command and arguments to run
	Cmd []string
}

// Summary is one line of a container listing.
type Summary struct {
	Name   string
	Status string
}

// Runtime is the container engine. Every method blocks until the engine
// answers; cancellation follows ctx.
type Runtime interface {
	// Create creates a container without starting it.
	Create(ctx context.Context, spec CreateSpec) error

	// Start starts a created or stopped container. Starting a running
	// container is not an error.
	Start(ctx context.Context, name string) error

	// Stop stops a running container. Stopping a stopped container is not an error.
	Stop(ctx context.Context, name string) error

	// Remove force-removes a container together with its anonymous volumes.
	Remove(ctx context.Context, name string) error

	// Exec runs cmd inside a running container and waits for it.
	Exec(ctx context.Context, name string, cmd []string) error

	// Inspect renders a Go template against the container record.
	Inspect(ctx context.Context, name, format string) (string, error)

	// ListByLabel lists all containers, running or not, carrying key=value.
	ListByLabel(ctx context.Context, key, value string) ([]Summary, error)
}

// OpError describes a failed runtime call.
type OpError struct {
	Op     string
	Name   string
	Stderr string
	Err    error
}

func (e *OpError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Name == "" {
		return fmt.Sprintf("container %s failed: %s", e.Op, msg)
	}
	return fmt.Sprintf("container %s %s failed: %s", e.Op, e.Name, msg)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
