package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/kubeping/component"
	"github.com/kbukum/kubeping/discovery"
	apperrors "github.com/kbukum/kubeping/errors"
	"github.com/kbukum/kubeping/kube"
	"github.com/kbukum/kubeping/logger"
)

type fakePods struct {
	pods []kube.Pod
	err  error
}

func (f *fakePods) FetchPods(context.Context) ([]kube.Pod, error) { return f.pods, f.err }

type fakeRounds struct {
	round discovery.Round
	ok    bool
}

func (f *fakeRounds) LastRound() (discovery.Round, bool) { return f.round, f.ok }

func staticHealth(hs ...component.Health) func(context.Context) []component.Health {
	return func(context.Context) []component.Health { return hs }
}

func newTestServer(t *testing.T, cfg Config, routes Routes) *Server {
	t.Helper()
	s := New(cfg, logger.NewNop())
	gin.SetMode(gin.TestMode)
	s.ApplyMiddleware()
	s.RegisterRoutes(routes)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	return serve(s, httptest.NewRequest(http.MethodGet, path, http.NoBody))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealth_Aggregation(t *testing.T) {
	tests := []struct {
		name       string
		components []component.Health
		wantCode   int
		wantStatus string
	}{
		{"all healthy", []component.Health{{Name: "discovery", Status: component.StatusHealthy}}, http.StatusOK, "up"},
		{"degraded", []component.Health{
			{Name: "discovery", Status: component.StatusDegraded, Message: "fetch failed"},
			{Name: "telemetry", Status: component.StatusHealthy},
		}, http.StatusOK, "degraded"},
		{"unhealthy", []component.Health{
			{Name: "discovery", Status: component.StatusDegraded},
			{Name: "admin-server", Status: component.StatusUnhealthy},
		}, http.StatusServiceUnavailable, "down"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, Config{}, Routes{ServiceName: "kubeping", Version: "1.0.0", Health: staticHealth(tc.components...)})
			rr := get(s, "/health")
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			body := decode(t, rr)
			if body["status"] != tc.wantStatus {
				t.Errorf("expected status %q, got %v", tc.wantStatus, body["status"])
			}
			if comps, _ := body["components"].([]interface{}); len(comps) != len(tc.components) {
				t.Errorf("expected %d components, got %v", len(tc.components), body["components"])
			}
		})
	}
}

func TestReadiness_DegradedIsReady(t *testing.T) {
	s := newTestServer(t, Config{}, Routes{Health: staticHealth(component.Health{Name: "discovery", Status: component.StatusDegraded})})
	if rr := get(s, "/ready"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	s = newTestServer(t, Config{}, Routes{Health: staticHealth(component.Health{Name: "discovery", Status: component.StatusUnhealthy})})
	if rr := get(s, "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestVersionAndLiveness(t *testing.T) {
	s := newTestServer(t, Config{}, Routes{ServiceName: "kubeping"})
	if body := decode(t, get(s, "/version")); body["version"] == nil || body["go_version"] == nil {
		t.Errorf("unexpected version body %v", body)
	}
	body := decode(t, get(s, "/alive"))
	if body["status"] != "alive" || body["service"] != "kubeping" {
		t.Errorf("unexpected liveness body %v", body)
	}
	if _, ok := body["uptime_seconds"].(float64); !ok {
		t.Errorf("expected numeric uptime, got %v", body["uptime_seconds"])
	}
}

func TestPods(t *testing.T) {
	pods := &fakePods{pods: []kube.Pod{
		{Record: kube.PodRecord{Name: "cache-0", Namespace: "prod", PodIP: "10.0.0.1", Phase: "Running"}, State: kube.Ready},
		{Record: kube.PodRecord{Name: "cache-1", Namespace: "prod", Phase: "Pending"}, State: kube.NotReady, FailedCheck: "phase"},
	}}
	s := newTestServer(t, Config{PodsRateLimit: 10}, Routes{Pods: pods})

	rr := get(s, "/pods")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Data []struct {
			Record kube.PodRecord `json:"record"`
			State  string         `json:"state"`
		} `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Meta.Total != 2 || len(body.Data) != 2 {
		t.Fatalf("expected 2 pods, got %+v", body)
	}
	if body.Data[0].State != "Ready" || body.Data[1].State != "NotReady" {
		t.Errorf("unexpected states %+v", body.Data)
	}
}

func TestPods_FetchErrorMapsToBadGateway(t *testing.T) {
	pods := &fakePods{err: apperrors.Fetch("https://kube/api/v1/namespaces/prod/pods", 3, fmt.Errorf("connection refused"))}
	s := newTestServer(t, Config{PodsRateLimit: 10}, Routes{Pods: pods})

	rr := get(s, "/pods")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	errBody, _ := decode(t, rr)["error"].(map[string]interface{})
	if errBody["code"] != string(apperrors.ErrCodeFetch) || errBody["retryable"] != true {
		t.Errorf("unexpected error body %v", errBody)
	}
}

func TestPods_RateLimited(t *testing.T) {
	s := newTestServer(t, Config{PodsRateLimit: 1}, Routes{Pods: &fakePods{}})

	if rr := get(s, "/pods"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := get(s, "/pods"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestLastRound(t *testing.T) {
	rounds := &fakeRounds{}
	s := newTestServer(t, Config{}, Routes{Rounds: rounds})

	if rr := get(s, "/rounds/last"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the first round, got %d", rr.Code)
	}

	rounds.round = discovery.Round{
		Namespace: "prod",
		Pods:      3,
		Ready:     2,
		Endpoints: []discovery.PeerEndpoint{{Host: "10.0.0.2", Port: 7800}},
		Phase:     discovery.PhaseDispatching,
	}
	rounds.ok = true

	rr := get(s, "/rounds/last")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	data, _ := decode(t, rr)["data"].(map[string]interface{})
	if data["namespace"] != "prod" || data["ready"] != float64(2) {
		t.Errorf("unexpected round %v", data)
	}
	if eps, _ := data["endpoints"].([]interface{}); len(eps) != 1 {
		t.Errorf("expected one endpoint, got %v", data["endpoints"])
	}
}

func TestAuthToken_ProbesOpen(t *testing.T) {
	s := newTestServer(t, Config{AuthToken: "s3cret"}, Routes{Rounds: &fakeRounds{}})

	if rr := get(s, "/health"); rr.Code != http.StatusOK {
		t.Fatalf("expected open /health, got %d", rr.Code)
	}
	if rr := get(s, "/rounds/last"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/rounds/last", http.NoBody)
	req.Header.Set("Authorization", "Bearer s3cret")
	if rr := serve(s, req); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with token, got %d", rr.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, Config{}, Routes{})
	if id := get(s, "/alive").Header().Get("X-Request-Id"); id == "" {
		t.Error("expected X-Request-Id on response")
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	s := newTestServer(t, Config{Host: "127.0.0.1", Port: 0}, Routes{ServiceName: "kubeping"})
	sc := NewComponent(s)

	if h := sc.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %v", h.Status)
	}
	if err := sc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/alive")
	if err != nil {
		t.Fatalf("GET /alive: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if h := sc.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %v", h.Status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestComponent_Routes(t *testing.T) {
	s := newTestServer(t, Config{}, Routes{Pods: &fakePods{}, Rounds: &fakeRounds{}})
	routes := NewComponent(s).Routes()
	if len(routes) != 6 {
		t.Fatalf("expected 6 routes, got %d: %+v", len(routes), routes)
	}
	if routes[0].Path != "/alive" {
		t.Errorf("expected sorted routes, got %+v", routes)
	}
	for _, r := range routes {
		if r.Path == "/pods" && r.Handler != "endpoint.Pods" {
			t.Errorf("unexpected handler name %q", r.Handler)
		}
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8081 || cfg.PodsRateLimit != 30 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "admin.port") {
		t.Errorf("expected admin.port error, got %v", err)
	}
	cfg.Port = 8081
	cfg.PodsRateLimit = -1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "admin.pods_rate_limit") {
		t.Errorf("expected admin.pods_rate_limit error, got %v", err)
	}
}
