package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steadylab/steady/auth"
	"github.com/steadylab/steady/cache"
	"github.com/steadylab/steady/health"
	"github.com/steadylab/steady/resilience"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, method, path string, body []byte, register func(*gin.Engine)) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	register(r)

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %s: %v", rec.Body.String(), err)
	}
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, rec)
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in body: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestLiveness(t *testing.T) {
	state := health.NewState()
	rec := serve(t, http.MethodGet, "/live", nil, func(r *gin.Engine) {
		r.GET("/live", Liveness("steady", state))
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "alive" {
		t.Errorf("unexpected status: %v", body["status"])
	}

	state.SetLive(false)
	rec = serve(t, http.MethodGet, "/live", nil, func(r *gin.Engine) {
		r.GET("/live", Liveness("steady", state))
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("dead process should report 503, got %d", rec.Code)
	}
}

func TestReadiness_TracksState(t *testing.T) {
	state := health.NewState()
	handler := Readiness("steady", state)
	register := func(r *gin.Engine) { r.GET("/ready", handler) }

	rec := serve(t, http.MethodGet, "/ready", nil, register)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("before startup: expected 503, got %d", rec.Code)
	}

	state.SetReady(true)
	rec = serve(t, http.MethodGet, "/ready", nil, register)
	if rec.Code != http.StatusOK {
		t.Errorf("after startup: expected 200, got %d", rec.Code)
	}

	state.SetReady(false)
	rec = serve(t, http.MethodGet, "/ready", nil, register)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("draining: expected 503, got %d", rec.Code)
	}
}

func TestHealth_ReportsCheckFailures(t *testing.T) {
	state := health.NewState()
	state.SetReady(true)
	state.RegisterCheck("upstream", func(ctx context.Context) error { return nil })
	register := func(r *gin.Engine) { r.GET("/health", Health("steady", state)) }

	rec := serve(t, http.MethodGet, "/health", nil, register)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	state.RegisterCheck("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	rec = serve(t, http.MethodGet, "/health", nil, register)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing check should report 503, got %d", rec.Code)
	}
}

func TestRoot(t *testing.T) {
	state := health.NewState()
	rec := serve(t, http.MethodGet, "/", nil, func(r *gin.Engine) {
		r.GET("/", Root("steady", state))
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["service"] != "steady" {
		t.Errorf("unexpected service: %v", body["service"])
	}
	if _, ok := body["endpoints"]; !ok {
		t.Error("response should list endpoints")
	}
}

func TestVersion(t *testing.T) {
	rec := serve(t, http.MethodGet, "/version", nil, func(r *gin.Engine) {
		r.GET("/version", Version())
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if _, ok := body["version"]; !ok {
		t.Error("response should include version")
	}
}

func newTokenStore(t *testing.T) (*auth.Service, *auth.UserStore) {
	t.Helper()
	svc, err := auth.NewService(&auth.Config{Secret: "endpoint-test-secret"})
	if err != nil {
		t.Fatal(err)
	}
	store := auth.NewUserStore()
	if err := store.Add("alice", "correct-horse-battery", []string{auth.RoleAdmin}); err != nil {
		t.Fatal(err)
	}
	return svc, store
}

func TestToken_IssuesJWTForValidCredentials(t *testing.T) {
	svc, store := newTokenStore(t)
	payload, _ := json.Marshal(TokenRequest{Username: "alice", Password: "correct-horse-battery"})

	rec := serve(t, http.MethodPost, "/auth/token", payload, func(r *gin.Engine) {
		r.POST("/auth/token", Token(svc, store))
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("unexpected token type: %s", resp.TokenType)
	}

	claims, err := svc.Parse(resp.Token)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("unexpected subject: %s", claims.Subject)
	}
	if !auth.HasRole(claims.Roles, auth.RoleAdmin) {
		t.Errorf("admin role should be embedded, got %v", claims.Roles)
	}
}

func TestToken_RejectsBadCredentials(t *testing.T) {
	svc, store := newTokenStore(t)
	register := func(r *gin.Engine) { r.POST("/auth/token", Token(svc, store)) }

	payload, _ := json.Marshal(TokenRequest{Username: "alice", Password: "wrong-password-here"})
	rec := serve(t, http.MethodPost, "/auth/token", payload, register)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rec.Code)
	}

	payload, _ = json.Marshal(TokenRequest{Username: "nobody", Password: "whatever-password"})
	rec = serve(t, http.MethodPost, "/auth/token", payload, register)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: expected 401, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "UNAUTHORIZED" {
		t.Errorf("unexpected error code: %s", code)
	}
}

func TestToken_RejectsMalformedPayload(t *testing.T) {
	svc, store := newTokenStore(t)
	register := func(r *gin.Engine) { r.POST("/auth/token", Token(svc, store)) }

	rec := serve(t, http.MethodPost, "/auth/token", []byte(`{"username":"alice"}`), register)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing password: expected 400, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_INPUT" {
		t.Errorf("unexpected error code: %s", code)
	}
}

func TestProtected_EchoesClaims(t *testing.T) {
	claims := &auth.Claims{Roles: []string{auth.RoleUser}}
	claims.Subject = "user-7"

	r := gin.New()
	r.GET("/protected", func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.ContextWithClaims(c.Request.Context(), claims))
		Protected()(c)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["subject"] != "user-7" {
		t.Errorf("unexpected subject: %v", body["subject"])
	}
}

func TestProtected_RequiresClaims(t *testing.T) {
	rec := serve(t, http.MethodGet, "/protected", nil, func(r *gin.Engine) {
		r.GET("/protected", Protected())
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without claims, got %d", rec.Code)
	}
}

func newDataSource(fetch FetchFunc) *DataSource {
	return &DataSource{
		Cache: cache.New[any](cache.Config{MaxEntries: 100, DefaultTTL: time.Minute}),
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "test",
			FailureThreshold: 3,
			Timeout:          time.Minute,
		}),
		Retry: resilience.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
		},
		Fetch: fetch,
		TTL:   time.Minute,
	}
}

func TestData_ServesAndCaches(t *testing.T) {
	var calls atomic.Int64
	src := newDataSource(func(ctx context.Context, key string) (any, error) {
		calls.Add(1)
		return "value-for-" + key, nil
	})

	r := gin.New()
	r.GET("/api/data/:key", Data(src))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/users", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d: %s", i+1, rec.Code, rec.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["data"] != "value-for-users" {
			t.Errorf("unexpected data: %v", body["data"])
		}
	}

	if calls.Load() != 1 {
		t.Errorf("fetch should run once with a warm cache, got %d calls", calls.Load())
	}
}

func TestData_OpenBreakerReturns503(t *testing.T) {
	src := newDataSource(func(ctx context.Context, key string) (any, error) {
		t.Error("fetch should not run with an open breaker")
		return nil, nil
	})
	src.Breaker.ForceOpen()

	r := gin.New()
	r.GET("/api/data/:key", Data(src))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/users", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "CIRCUIT_OPEN" {
		t.Errorf("unexpected error code: %s", code)
	}
}

func TestData_ExhaustedRetriesReturns502(t *testing.T) {
	src := newDataSource(func(ctx context.Context, key string) (any, error) {
		return nil, errors.New("upstream unreachable")
	})

	r := gin.New()
	r.GET("/api/data/:key", Data(src))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/users", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "UPSTREAM_ERROR" {
		t.Errorf("unexpected error code: %s", code)
	}
}

func TestStats_IncludesProviders(t *testing.T) {
	rec := serve(t, http.MethodGet, "/stats", nil, func(r *gin.Engine) {
		r.GET("/stats", Stats(StatsProviders{
			CacheStats:    func() (uint64, uint64, uint64) { return 10, 3, 1 },
			CacheLen:      func() int { return 7 },
			BreakerState:  func() string { return "closed" },
			BulkheadInUse: func() int { return 2 },
		}))
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if _, ok := body["memory"]; !ok {
		t.Error("stats should include memory section")
	}
	if _, ok := body["cache"]; !ok {
		t.Error("stats should include cache section")
	}
}
