package container

import (
	"errors"
	"os/exec"
)

// ErrNoRuntime is returned when no container runtime is found.
var ErrNoRuntime = errors.New("no container runtime found (need docker or podman)")

// DetectRuntime finds an available container runtime, docker first.
func DetectRuntime() (string, error) {
	for _, bin := range []string{"docker", "podman"} {
		if _, err := exec.LookPath(bin); err == nil {
			return bin, nil
		}
	}
	return "", ErrNoRuntime
}
