package controller_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"vscsfarm/internal/common/container"
	"vscsfarm/internal/farm/controller"
	"vscsfarm/internal/farm/middleware"
	"vscsfarm/internal/farm/service"
	pkgerrors "vscsfarm/pkg/errors"

	"github.com/gin-gonic/gin"
)

type fakeRuntime struct {
	ops     []string
	names   []string
	list    []container.Summary
	failOps map[string]error
}

func (f *fakeRuntime) record(op, name string) error {
	f.ops = append(f.ops, op)
	f.names = append(f.names, name)
	return f.failOps[op]
}

func (f *fakeRuntime) Create(_ context.Context, spec container.CreateSpec) error {
	return f.record("create", spec.Name)
}

func (f *fakeRuntime) Start(_ context.Context, name string) error { return f.record("start", name) }

func (f *fakeRuntime) Stop(_ context.Context, name string) error { return f.record("stop", name) }

func (f *fakeRuntime) Remove(_ context.Context, name string) error { return f.record("remove", name) }

func (f *fakeRuntime) Exec(_ context.Context, name string, _ []string) error {
	return f.record("exec", name)
}

func (f *fakeRuntime) Inspect(_ context.Context, name, _ string) (string, error) {
	if err := f.record("inspect", name); err != nil {
		return "", err
	}
	return "40001 deadbeef", nil
}

func (f *fakeRuntime) ListByLabel(_ context.Context, key, value string) ([]container.Summary, error) {
	if err := f.record("list", key+"="+value); err != nil {
		return nil, err
	}
	return f.list, nil
}

type fakeTitles struct{}

func (fakeTitles) UserTitle(context.Context, string, string) (string, error) {
	return "Alice <admin>", nil
}

func (fakeTitles) ContestTitle(_ context.Context, _, _, contestID string) (string, error) {
	return "Contest " + contestID, nil
}

type apiResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
	Success bool                   `json:"success"`
}

func newRouter(rt *fakeRuntime, cfg service.FarmConfig) http.Handler {
	gin.SetMode(gin.TestMode)
	svc := service.NewSessionService(cfg, rt, fakeTitles{})
	router := gin.New()
	router.Use(middleware.TraceMiddleware())
	controller.RegisterRoutes(router, controller.NewSessionController(svc),
		middleware.AccessTokenMiddleware(service.NewTrustDecoder()))
	return router
}

func tokenFor(userID string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(`{"userId":"`+userID+`","iat":1,"exp":2}`)) + ".sig"
}

func do(router http.Handler, method, target string, form url.Values, token string) (*httptest.ResponseRecorder, apiResponse) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("x-forwarded-access-token", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func TestStartRedirectsToEditor(t *testing.T) {
	rt := &fakeRuntime{}
	router := newRouter(rt, service.FarmConfig{ContainerURL: "https://ide.example:{port}/?tkn={token}"})

	rec, _ := do(router, http.MethodGet, "/start?contestId=X", nil, tokenFor("U"))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "https://ide.example:40001/?tkn=deadbeef" {
		t.Fatalf("unexpected location %q", loc)
	}
	if strings.Join(rt.ops, ",") != "create,start,exec,inspect" {
		t.Fatalf("unexpected ops %v", rt.ops)
	}
	for _, name := range rt.names {
		if name != "vscs_contest_X_U" {
			t.Fatalf("unexpected container %q", name)
		}
	}
}

func TestStopAndRemoveAcknowledge(t *testing.T) {
	for _, path := range []string{"/stop", "/remove"} {
		t.Run(path, func(t *testing.T) {
			rt := &fakeRuntime{}
			router := newRouter(rt, service.FarmConfig{})

			rec, resp := do(router, http.MethodPost, path, url.Values{}, tokenFor("abc"))
			if rec.Code != http.StatusOK || !resp.Success {
				t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
			}
			if strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
				t.Fatalf("unexpected body %s", rec.Body.String())
			}
			if len(rt.names) != 1 || rt.names[0] != "vscs_user_abc" {
				t.Fatalf("unexpected calls %v", rt.names)
			}
		})
	}
}

func TestStopWithContestForm(t *testing.T) {
	rt := &fakeRuntime{}
	router := newRouter(rt, service.FarmConfig{})

	rec, _ := do(router, http.MethodPost, "/stop", url.Values{"contestId": {"c9"}}, tokenFor("abc"))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rt.names[0] != "vscs_contest_c9_abc" {
		t.Fatalf("unexpected container %q", rt.names[0])
	}
}

func TestMissingTokenIssuesNoRuntimeCall(t *testing.T) {
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/start"},
		{http.MethodPost, "/stop"},
		{http.MethodPost, "/remove"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rt := &fakeRuntime{}
			router := newRouter(rt, service.FarmConfig{})

			rec, resp := do(router, tc.method, tc.path, nil, "")
			if rec.Code != http.StatusUnauthorized || resp.Code != int(pkgerrors.TokenInvalid) {
				t.Fatalf("unexpected response %d %+v", rec.Code, resp)
			}
			rec, _ = do(router, tc.method, tc.path, nil, "not-a-token")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 for undecodable token, got %d", rec.Code)
			}
			if len(rt.ops) != 0 {
				t.Fatalf("unexpected runtime calls %v", rt.ops)
			}
		})
	}
}

func TestInvalidContestIDRejected(t *testing.T) {
	rt := &fakeRuntime{}
	router := newRouter(rt, service.FarmConfig{})

	rec, resp := do(router, http.MethodGet, "/start?contestId=a_b", nil, tokenFor("u1"))
	if rec.Code != http.StatusBadRequest || resp.Code != int(pkgerrors.ValidationFailed) {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
	if resp.Details["field"] != "contestId" {
		t.Fatalf("unexpected details %v", resp.Details)
	}
	if len(rt.ops) != 0 {
		t.Fatalf("unexpected runtime calls %v", rt.ops)
	}
}

func TestRuntimeFailureMapsToBadGateway(t *testing.T) {
	rt := &fakeRuntime{failOps: map[string]error{"remove": errors.New("daemon down")}}
	router := newRouter(rt, service.FarmConfig{})

	rec, resp := do(router, http.MethodPost, "/remove", url.Values{}, tokenFor("u1"))
	if rec.Code != http.StatusBadGateway || resp.Code != int(pkgerrors.ContainerRuntimeFailed) {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
	if resp.Details["op"] != "remove" || resp.Details["container"] != "vscs_user_u1" {
		t.Fatalf("unexpected details %v", resp.Details)
	}
}

func TestIndexRendersContainers(t *testing.T) {
	rt := &fakeRuntime{list: []container.Summary{
		{Name: "vscs_user_u1", Status: "Up 5 minutes"},
		{Name: "vscs_contest_c1_u1", Status: "Exited (0) 2 hours ago"},
	}}
	router := newRouter(rt, service.FarmConfig{})

	rec, _ := do(router, http.MethodGet, "/", nil, tokenFor("u1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Alice &lt;admin&gt;",
		"Up 5 minutes",
		"Contest c1",
		`name="contestId" value="c1"`,
		`action="/remove" method="post"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}
	if rt.names[0] != "userId=u1" {
		t.Fatalf("unexpected label filter %q", rt.names[0])
	}
}

func TestIndexEmpty(t *testing.T) {
	router := newRouter(&fakeRuntime{}, service.FarmConfig{})

	rec, _ := do(router, http.MethodGet, "/", nil, tokenFor("u1"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No container is created") {
		t.Fatalf("unexpected page %d %s", rec.Code, rec.Body.String())
	}
}

func TestProbesAreUnauthenticated(t *testing.T) {
	router := newRouter(&fakeRuntime{}, service.FarmConfig{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec, _ := do(router, http.MethodGet, path, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}
