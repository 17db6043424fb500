package platform_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vscsfarm/internal/platform"
	pkgerrors "vscsfarm/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *platform.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return platform.New(server.URL+"/api/", 5*time.Second, func() string { return "tkn" })
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"title":"Spring Cup"}`))
	})

	contest, err := client.Contest(context.Background(), "c1")
	if err != nil {
		t.Fatalf("contest failed: %v", err)
	}
	if contest.Title != "Spring Cup" {
		t.Fatalf("unexpected title %q", contest.Title)
	}
	if gotAuth != "Bearer tkn" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPath != "/api/contest/c1" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestClientWithTokenOverridesProvider(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"name":"Alice"}`))
	})

	profile, err := client.WithToken("other").UserProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if profile.Name != "Alice" || gotAuth != "Bearer other" {
		t.Fatalf("unexpected result %q %q", profile.Name, gotAuth)
	}
}

func TestClientSessionExpired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"FST_JWT_AUTHORIZATION_TOKEN_EXPIRED","message":"expired"}`))
	})

	_, err := client.Contest(context.Background(), "c1")
	if !pkgerrors.Is(err, pkgerrors.SessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if err.Error() != "Session expired" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	var apiErr *platform.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status in chain")
	}
}

func TestClientUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND","message":"no such contest"}`))
	})

	_, err := client.Contest(context.Background(), "missing")
	if !pkgerrors.Is(err, pkgerrors.UpstreamError) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var apiErr *platform.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected error chain %v", err)
	}
	if apiErr.Message != "no such contest" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestClientUnauthorizedWithoutExpiryIsUpstream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Contest(context.Background(), "c1")
	if pkgerrors.Is(err, pkgerrors.SessionExpired) {
		t.Fatalf("plain 401 must not be reported as expiry")
	}
	if !pkgerrors.Is(err, pkgerrors.UpstreamError) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestClientContestSolutionsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("userId") != "u1" || q.Get("page") != "2" || q.Get("perPage") != "30" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"items":[{"_id":"s1","problemId":"p1","score":80,"submittedAt":1700000000000}]}`))
	})

	items, err := client.ContestSolutions(context.Background(), "c1", "u1", 2, 30)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "s1" || items[0].Score != 80 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestClientCreateAndSubmitSolution(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/contest/c1/problem/p1/solution":
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["hash"] != "abc" || body["size"] != float64(12) {
				t.Errorf("unexpected body %v", body)
			}
			_, _ = w.Write([]byte(`{"solutionId":"s1","uploadUrl":"http://upload"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	})

	ticket, err := client.CreateSolution(context.Background(), "c1", "p1", "abc", 12)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if ticket.SolutionID != "s1" || ticket.UploadURL != "http://upload" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
	if err := client.SubmitSolution(context.Background(), "", "p1", "s1"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	want := []string{"POST /api/contest/c1/problem/p1/solution", "POST /api/problem/p1/solution/s1/submit"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("unexpected calls %v", paths)
	}
}

func TestClientUploadFile(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	var gotLength int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "data.zip")
	if err := os.WriteFile(path, []byte("archive"), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	client := platform.New("http://unused", time.Second, func() string { return "secret" })
	if err := client.UploadFile(context.Background(), server.URL+"/bucket/obj?sig=1", path); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if string(gotBody) != "archive" || gotLength != 7 {
		t.Fatalf("unexpected upload %q %d", gotBody, gotLength)
	}
	if gotAuth != "" {
		t.Fatalf("presigned upload must not carry credentials")
	}
}

func TestClientDownloadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"participant":{"list":[{"userId":"u1","rank":1},{"userId":"u2","rank":2}]}}`))
	}))
	defer server.Close()

	client := platform.New("http://unused", time.Second, nil)
	var ranklist platform.Ranklist
	if err := client.DownloadJSON(context.Background(), server.URL, &ranklist); err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if len(ranklist.Participant.List) != 2 || ranklist.Participant.List[1].UserID != "u2" {
		t.Fatalf("unexpected ranklist %+v", ranklist)
	}
}

func TestSubmitConfigMethods(t *testing.T) {
	cfg := platform.SubmitConfig{Upload: true, Form: &platform.FormSubmit{}}
	methods := cfg.Methods()
	if len(methods) != 2 || methods[0] != platform.SubmitUpload || methods[1] != platform.SubmitForm {
		t.Fatalf("unexpected methods %v", methods)
	}
}
