package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeOmitsEmptyContest(t *testing.T) {
	data, err := Encode(Env{Token: "t", APIRoot: "https://example.com/api"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if strings.Contains(string(data), "contestId") {
		t.Fatalf("unexpected contestId in %s", data)
	}
	if !strings.Contains(string(data), "\n  \"token\": \"t\"") {
		t.Fatalf("expected two-space indentation, got %s", data)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "env.json")
	want := Env{Token: "tok", ContestID: "c1", APIRoot: "https://example.com/api/"}
	if err := Save(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Token != "tok" || got.ContestID != "c1" {
		t.Fatalf("unexpected env: %+v", got)
	}
	if got.APIRoot != "https://example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", got.APIRoot)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
