// Package config loads the project files the aoi CLI works with: the problem
// data configuration, the aoi project file and statement front matter.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "vscsfarm/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Extensions tried, in order, when looking up a project file by base name.
var Extensions = []string{".yaml", ".yml", ".json"}

// ProjectType is the only project type the CLI deploys.
const ProjectType = "problem"

// Project is the aoi project file.
type Project struct {
	Type      string `yaml:"type" json:"type"`
	Server    string `yaml:"server" json:"server"`
	ProblemID string `yaml:"problemId" json:"problemId"`
}

// Validate checks the project describes a deployable problem.
func (p Project) Validate() error {
	switch {
	case p.Type != ProjectType:
		return pkgerrors.New(pkgerrors.ProblemConfigInvalid).WithMessage("Invalid configuration").
			WithDetail("type", p.Type)
	case p.Server == "":
		return pkgerrors.New(pkgerrors.ProblemConfigInvalid).WithMessage("Invalid configuration").
			WithDetail("field", "server")
	case p.ProblemID == "":
		return pkgerrors.New(pkgerrors.ProblemConfigInvalid).WithMessage("Invalid configuration").
			WithDetail("field", "problemId")
	}
	return nil
}

// Find returns the first existing file named base plus one of Extensions.
func Find(dir, base string) (string, error) {
	for _, ext := range Extensions {
		p := filepath.Join(dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s failed: %w", p, err)
		}
	}
	return "", fmt.Errorf("no %s%s file found in %s: %w", base, strings.Join(Extensions, "|"), dir, fs.ErrNotExist)
}

// LoadProject reads aoi.{yaml,yml,json} from dir and validates it.
func LoadProject(dir string) (Project, error) {
	var project Project
	p, err := Find(dir, "aoi")
	if err != nil {
		return project, err
	}
	if err := decodeFile(p, &project); err != nil {
		return project, pkgerrors.Wrap(err, pkgerrors.ProblemConfigInvalid).WithMessage("Invalid configuration")
	}
	return project, project.Validate()
}

// LoadDataConfig reads problem.{yaml,yml,json} from dir. The content is
// passed to the platform as is, so it only has to be a mapping.
func LoadDataConfig(dir string) (map[string]interface{}, error) {
	p, err := Find(dir, "problem")
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := decodeFile(p, &raw); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ProblemConfigInvalid).WithMessage("Invalid data configuration")
	}
	cfg, ok := raw.(map[string]interface{})
	if !ok || len(cfg) == 0 {
		return nil, pkgerrors.New(pkgerrors.ProblemConfigInvalid).WithMessage("Invalid data configuration")
	}
	return cfg, nil
}

func decodeFile(p string, out interface{}) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return fmt.Errorf("read %s failed: %w", p, err)
	}
	if strings.EqualFold(filepath.Ext(p), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("parse %s failed: %w", p, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s failed: %w", p, err)
	}
	return nil
}
