package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	pkgerrors "vscsfarm/pkg/errors"

	"gopkg.in/yaml.v3"
)

// StatementMeta is the optional front matter of statement.md.
type StatementMeta struct {
	Title string   `yaml:"title"`
	Slug  string   `yaml:"slug"`
	Tags  []string `yaml:"tags"`
}

// Statement is a parsed statement file.
type Statement struct {
	Meta StatementMeta
	Body string
}

// LoadStatement reads and parses a markdown statement.
func LoadStatement(p string) (Statement, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Statement{}, fmt.Errorf("read statement failed: %w", err)
	}
	return ParseStatement(data)
}

// ParseStatement splits YAML front matter delimited by "---" lines from the
// markdown body.
func ParseStatement(data []byte) (Statement, error) {
	text := strings.ReplaceAll(string(bytes.TrimPrefix(data, []byte("\ufeff"))), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return Statement{Body: text}, nil
	}
	rest := text[len("---\n"):]

	var front, body string
	if strings.HasPrefix(rest, "---\n") || rest == "---" {
		body = strings.TrimPrefix(strings.TrimPrefix(rest, "---"), "\n")
	} else {
		end := strings.Index(rest, "\n---\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n---") {
				return Statement{Body: text}, nil
			}
			end = len(rest) - len("\n---")
			front, body = rest[:end], ""
		} else {
			front, body = rest[:end], rest[end+len("\n---\n"):]
		}
	}

	var meta StatementMeta
	if strings.TrimSpace(front) != "" {
		if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
			return Statement{}, pkgerrors.Wrap(err, pkgerrors.StatementMetaInvalid).
				WithMessage("Invalid statement metadata")
		}
	}
	return Statement{Meta: meta, Body: body}, nil
}
