package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is where the farm writes the session environment inside every
// editor container and where the aoi CLI looks for it.
const DefaultPath = "/tmp/env.json"

// Env is the credential bundle handed to the CLI running inside a container.
type Env struct {
	Token     string `json:"token"`
	ContestID string `json:"contestId,omitempty"`
	APIRoot   string `json:"apiRoot"`
}

// Encode renders the env as indented JSON.
func Encode(env Env) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal session env failed: %w", err)
	}
	return data, nil
}

// Load reads the session env. A missing file is reported with os.ErrNotExist
// in the chain so callers can tell "not inside a farm container" apart.
func Load(path string) (Env, error) {
	var env Env
	data, err := os.ReadFile(path)
	if err != nil {
		return env, fmt.Errorf("read session env failed: %w", err)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("parse session env failed: %w", err)
	}
	env.APIRoot = strings.TrimRight(env.APIRoot, "/")
	return env, nil
}

// Save writes the env with owner-only permissions.
func Save(path string, env Env) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session env dir failed: %w", err)
	}
	data, err := Encode(env)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session env failed: %w", err)
	}
	return nil
}
