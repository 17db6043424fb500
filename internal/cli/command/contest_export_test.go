package command

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"vscsfarm/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestExportRanklist(t *testing.T) {
	h := newHarness(t, "c1")
	out := filepath.Join(t.TempDir(), "export")
	h.asker.Answers = []string{"y"}

	h.json("GET /api/contest/c1/problem", []map[string]interface{}{
		{"_id": "p1", "settings": map[string]string{"slug": "a"}},
		{"_id": "p2", "settings": map[string]string{"slug": "b"}},
	})
	h.mux.HandleFunc("GET /api/contest/c1/ranklist/final/url/download", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"url": h.server.URL + "/files/ranklist.json"})
	})
	h.mux.HandleFunc("GET /files/ranklist.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"participant":{"list":[{"userId":"u1","rank":1},{"userId":"u2","rank":2}]}}`))
	})
	h.json("GET /api/user/u1", map[string]interface{}{"_id": "u1", "profile": map[string]string{"name": "Alice/B"}})

	pages := map[string][]platform.Solution{
		"1": {
			{ID: "s1", ProblemID: "p1", Score: 50, SubmittedAt: 2000},
			{ID: "s2", ProblemID: "p1", Score: 100, SubmittedAt: 1000},
			{ID: "s3", ProblemID: "p2", Score: 0},
		},
		"2": {
			{ID: "s4", ProblemID: "p1", Score: 100, SubmittedAt: 3000},
		},
	}
	h.mux.HandleFunc("GET /api/contest/c1/solution", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		assert.Equal(t, "30", r.URL.Query().Get("perPage"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": pages[r.URL.Query().Get("page")]})
	})
	h.mux.HandleFunc("GET /api/contest/c1/solution/{id}/data/download", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"url": h.server.URL + "/files/" + r.PathValue("id") + ".zip"})
	})
	s2 := zipBytes(t, map[string]string{"main.cpp": "best"})
	h.mux.HandleFunc("GET /files/s2.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(s2)
	})
	h.mux.HandleFunc("GET /files/s3.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a zip"))
	})

	require.NoError(t, h.run("contest", "export", "ranklist", "-n", "1", "-r", "final", "-o", out))

	assert.Equal(t, []string{"Will export 1 participants, continue?"}, h.asker.Asked)
	dir := filepath.Join(out, "1-AliceB")
	stats, err := os.ReadFile(filepath.Join(dir, "stats.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Problem b Total 1 solutions\n"+
		"UNSUBMITTED s3 0 *\n"+
		"\n"+
		"Problem a Total 3 solutions\n"+
		"1970-01-01T00:00:01.000Z s2 100 *\n"+
		"1970-01-01T00:00:02.000Z s1 50\n"+
		"1970-01-01T00:00:03.000Z s4 100\n"+
		"\n", string(stats))

	best, err := os.ReadFile(filepath.Join(dir, "a", "main.cpp"))
	require.NoError(t, err)
	assert.Equal(t, "best", string(best))
	assert.FileExists(t, filepath.Join(dir, "b.zip"))
	assert.Contains(t, h.errOut.String(), "Cannot extract")
	assert.Contains(t, h.out.String(), "Exporting (1/1) u1")
	assert.Contains(t, h.out.String(), "Exported 1 participants")
}

func TestExportRanklistDeclined(t *testing.T) {
	h := newHarness(t, "c1")
	h.asker.Answers = []string{"n"}
	h.json("GET /api/contest/c1/problem", []map[string]interface{}{})
	h.mux.HandleFunc("GET /api/contest/c1/ranklist/final/url/download", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"url": h.server.URL + "/files/ranklist.json"})
	})
	h.mux.HandleFunc("GET /files/ranklist.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"participant":{"list":[{"userId":"u1","rank":1}]}}`))
	})

	out := filepath.Join(t.TempDir(), "export")
	require.NoError(t, h.run("contest", "export", "ranklist", "-r", "final", "-o", out))
	assert.NoDirExists(t, out)
}

func TestExportRanklistRequiresOutput(t *testing.T) {
	h := newHarness(t, "c1")
	assert.Error(t, h.run("contest", "export", "ranklist", "-r", "final"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"01-Alice", "01-Alice"},
		{"1-a/b\\c:d", "1-abcd"},
		{"..", "_"},
		{"name. ", "name"},
		{"CON", "_"},
		{"2-张三", "2-张三"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
