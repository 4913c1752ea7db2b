package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/application/orchestrator"
	"github.com/campus-agents/campus-hub/internal/domain/agent"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/internal/infrastructure/observability"
	"github.com/campus-agents/campus-hub/internal/infrastructure/persistence/memory"
	"github.com/campus-agents/campus-hub/internal/interface/http/handlers"
	"github.com/campus-agents/campus-hub/pkg/logger"
	"github.com/campus-agents/campus-hub/pkg/timeutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeCampus struct {
	mu      sync.Mutex
	err     error
	actions []command.Action
	reqIDs  []string
}

func (f *fakeCampus) Dispatch(ctx context.Context, a command.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	f.reqIDs = append(f.reqIDs, orchestrator.RequestIDFrom(ctx))
	return f.err
}

func (f *fakeCampus) Statuses() agent.StatusMap {
	m := agent.NewStatusMap()
	m[agent.Counselor] = agent.Counseling
	return m
}

type observed struct {
	method, path string
	status       int
}

type fakeMetrics struct {
	mu   sync.Mutex
	seen []observed
}

func (f *fakeMetrics) ObserveHTTP(method, path string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, observed{method, path, status})
}

func newTestServer(t *testing.T, cfg Config, deps Dependencies) *Server {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	s, err := NewServer(cfg, deps)
	require.NoError(t, err)
	return s
}

func postAction(h http.Handler, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/student-action", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT ACTION
// ══════════════════════════════════════════════════════════════════════════════

func TestNewServer_RequiresCampus(t *testing.T) {
	_, err := NewServer(DefaultConfig(), Dependencies{Logger: logger.Nop()})
	require.Error(t, err)
}

func TestStudentAction_Accepted(t *testing.T) {
	campus := &fakeCampus{}
	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: campus})

	rec := postAction(s.Handler(), `{"action":"request-course","data":{"course":"AI Basics"}}`,
		func(r *http.Request) { r.Header.Set("X-Request-ID", "req-7") })

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"status":"Action received"}`, rec.Body.String())
	assert.Equal(t, "req-7", rec.Header().Get("X-Request-ID"))

	require.Len(t, campus.actions, 1)
	assert.Equal(t, command.KindRequestCourse, campus.actions[0].Kind)
	assert.JSONEq(t, `{"course":"AI Basics"}`, string(campus.actions[0].Payload))
	assert.Equal(t, []string{"req-7"}, campus.reqIDs)
}

func TestStudentAction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed json",
			body:     `{"action":`,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_request",
		},
		{
			name:     "rejected action",
			body:     `{"action":"fly"}`,
			err:      shared.ErrUnknownAction,
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_action",
		},
		{
			name:     "closed campus",
			body:     `{"action":"request-events"}`,
			err:      shared.NewDomainError("orchestrator", "Dispatch", shared.ErrServiceUnavailable, "closed"),
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "unavailable",
		},
		{
			name:     "storage failure",
			body:     `{"action":"request-events"}`,
			err:      errors.New("disk on fire"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, DefaultConfig(), Dependencies{Campus: &fakeCampus{err: tt.err}})

			rec := postAction(s.Handler(), tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestStudentAction_BodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 32
	campus := &fakeCampus{}
	s := newTestServer(t, cfg, Dependencies{Campus: campus})

	body := `{"action":"report-stress","data":{"message":"` + strings.Repeat("a", 100) + `"}}`
	rec := postAction(s.Handler(), body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, campus.actions)
}

func TestStudentAction_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	campus := &fakeCampus{}
	s := newTestServer(t, cfg, Dependencies{Campus: campus})

	body := `{"action":"request-events"}`
	fromA := func(r *http.Request) { r.RemoteAddr = "10.0.0.1:5000" }
	fromB := func(r *http.Request) { r.RemoteAddr = "10.0.0.2:5000" }

	assert.Equal(t, http.StatusAccepted, postAction(s.Handler(), body, fromA).Code)
	assert.Equal(t, http.StatusAccepted, postAction(s.Handler(), body, fromA).Code)

	limited := postAction(s.Handler(), body, fromA)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeError(t, limited).Error.Code)

	assert.Equal(t, http.StatusAccepted, postAction(s.Handler(), body, fromB).Code)
	assert.Len(t, campus.actions, 3)

	// status polling is never limited
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agent-status", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.Equal(t, 2, l.size())

	now = now.Add(clientIdleTTL + time.Second)
	assert.True(t, l.Allow("c"))
	assert.Equal(t, 1, l.size())
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS, HEALTH, METRICS
// ══════════════════════════════════════════════════════════════════════════════

func TestAgentStatus(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: &fakeCampus{}})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agent-status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"ProfessorAgent": "idle",
		"RegistrarAgent": "idle",
		"CounselorAgent": "counseling",
		"EventAgent":     "idle",
		"MentorAgent":    "idle",
	}, got)
}

func TestHealthz(t *testing.T) {
	hc := handlers.NewCompositeHealthChecker("test")
	hc.AddCheck("redis", func(context.Context) error { return nil })
	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: &fakeCampus{}, HealthChecker: hc})

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get().Code)

	hc.AddCheck("postgres", func(context.Context) error { return errors.New("down") })
	rec := get()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Some checks failed: postgres")
}

func TestMetricsEndpointAndLabels(t *testing.T) {
	m := observability.NewMetrics(false)
	rec := &fakeMetrics{}
	s := newTestServer(t, DefaultConfig(), Dependencies{
		Campus:         &fakeCampus{},
		Metrics:        rec,
		MetricsHandler: m.Handler(),
	})

	m.ObserveAction("request-course", "ok", time.Millisecond)

	resp := httptest.NewRecorder()
	s.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `campus_actions_total{action="request-course",outcome="ok"} 1`)

	notFound := httptest.NewRecorder()
	s.Handler().ServeHTTP(notFound, httptest.NewRequest(http.MethodGet, "/api/students/42", nil))
	assert.Equal(t, http.StatusNotFound, notFound.Code)

	assert.Equal(t, []observed{
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "other", http.StatusNotFound},
	}, rec.seen)
}

func TestMetricsEndpoint_DisabledWithoutHandler(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: &fakeCampus{}})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: &fakeCampus{}})

	req := httptest.NewRequest(http.MethodOptions, "/api/student-action", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

// ══════════════════════════════════════════════════════════════════════════════
// END TO END
// ══════════════════════════════════════════════════════════════════════════════

func TestServer_DrivesCoordinator(t *testing.T) {
	sink := notification.NewRecorder()
	cfg := orchestrator.DefaultConfig()
	cfg.Clock = timeutil.NewFakeClock(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	cfg.Sink = sink
	cfg.Students = memory.NewStudentRepository()

	coord, err := orchestrator.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = coord.Close() })

	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: coord})

	rec := postAction(s.Handler(), `{"action":"request-course","data":{"course":"AI Basics"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	statusRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(statusRec, httptest.NewRequest(http.MethodGet, "/api/agent-status", nil))
	var statuses map[string]string
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &statuses))
	assert.Equal(t, "processing", statuses["RegistrarAgent"])
	assert.Equal(t, "teaching", statuses["ProfessorAgent"])

	assert.Contains(t, sink.Messages(), "Successfully registered for AI Basics!")

	bad := postAction(s.Handler(), `{"action":"request-course","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newTestServer(t, DefaultConfig(), Dependencies{Campus: &fakeCampus{}})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, time.Second) }()

	require.Eventually(t, s.IsRunning, time.Second, 5*time.Millisecond)

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, s.IsRunning())
	client.CloseIdleConnections()
}
