package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vscsfarm/internal/common/cache"
	"vscsfarm/internal/farm/repository"
	"vscsfarm/internal/platform"
)

func TestPlatformTitlesCachesAnswers(t *testing.T) {
	hits := map[string]int{}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path]++
		auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/user/u1/profile":
			_, _ = w.Write([]byte(`{"name":"Alice","email":"a@example.com"}`))
		case "/contest/c1":
			_, _ = w.Write([]byte(`{"title":"Spring Cup"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	titles := NewPlatformTitles(platform.New(server.URL, time.Second, nil), repository.NewTitleCacheRepository(cache.NewLRUCache(8, time.Minute), time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		name, err := titles.UserTitle(ctx, "tok", "u1")
		if err != nil || name != "Alice" {
			t.Fatalf("unexpected user title %q %v", name, err)
		}
		title, err := titles.ContestTitle(ctx, "tok", "u1", "c1")
		if err != nil || title != "Spring Cup" {
			t.Fatalf("unexpected contest title %q %v", title, err)
		}
	}
	if hits["/user/u1/profile"] != 1 || hits["/contest/c1"] != 1 {
		t.Fatalf("expected cached lookups, got %v", hits)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", auth)
	}

	if _, err := titles.ContestTitle(ctx, "tok", "u1", "missing"); err == nil {
		t.Fatalf("expected error for unknown contest")
	}
}

func TestPlatformTitlesWithoutCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"title":"Cup"}`))
	}))
	defer server.Close()

	titles := NewPlatformTitles(platform.New(server.URL, time.Second, nil), nil)
	for i := 0; i < 2; i++ {
		if _, err := titles.ContestTitle(context.Background(), "tok", "u1", "c1"); err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
	}
	if hits != 2 {
		t.Fatalf("expected uncached lookups, got %d", hits)
	}
}

func TestPlatformTitlesContestCacheIsPerCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer admitted" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"no access"}`))
			return
		}
		_, _ = w.Write([]byte(`{"title":"Secret Finals"}`))
	}))
	defer server.Close()

	titles := NewPlatformTitles(platform.New(server.URL, time.Second, nil), repository.NewTitleCacheRepository(cache.NewLRUCache(8, time.Minute), time.Minute))
	ctx := context.Background()

	title, err := titles.ContestTitle(ctx, "admitted", "alice", "c1")
	if err != nil || title != "Secret Finals" {
		t.Fatalf("unexpected title %q %v", title, err)
	}
	title, err = titles.ContestTitle(ctx, "outsider", "mallory", "c1")
	if err == nil {
		t.Fatalf("expected forbidden error after warm cache, got title %q", title)
	}
	if title != "" {
		t.Fatalf("title leaked: %q", title)
	}
}
