package dart

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/ratelimit"
	"github.com/jonwraymond/kfin/resilience"
)

const testKey = "0123456789abcdef0123456789abcdef01234567"

// fixedNow is mid-2025 in Seoul, so 2024 is a closed business year.
var fixedNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.FixedZone("KST", 9*60*60))

// fakeDart serves canned responses per path and counts requests.
type fakeDart struct {
	t        *testing.T
	hits     atomic.Int32
	handlers map[string]http.HandlerFunc
}

func newFakeDart(t *testing.T) (*fakeDart, *httptest.Server) {
	t.Helper()
	f := &fakeDart{t: t, handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if got := r.URL.Query().Get("crtfc_key"); got != testKey {
			t.Errorf("crtfc_key = %q, want test key", got)
		}
		h, ok := f.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithBaseURL(srv.URL), WithClock(func() time.Time { return fixedNow })}
	c, err := New(testKey, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func newTestTiers(t *testing.T) *cache.Tiers {
	t.Helper()
	tiers, err := cache.NewTiers(cache.TiersConfig{Path: filepath.Join(t.TempDir(), "cache.db")})
	if err != nil {
		t.Fatalf("NewTiers() error = %v", err)
	}
	t.Cleanup(func() { _ = tiers.Close() })
	return tiers
}

func TestNew_MissingKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		if _, err := New(key); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("New(%q) error = %v, want ErrMissingAPIKey", key, err)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(testKey)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.http.Timeout != DefaultTimeout {
		t.Errorf("http timeout = %v, want %v", c.http.Timeout, DefaultTimeout)
	}
	if c.executor == nil || c.middleware == nil || c.logger == nil {
		t.Error("New() left a collaborator nil")
	}
}

func TestWithBaseURL_TrimsSlash(t *testing.T) {
	c, _ := New(testKey, WithBaseURL("http://example.test/"))
	if c.baseURL != "http://example.test" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	f, srv := newFakeDart(t)
	var calls atomic.Int32
	f.handlers["/api/company.json"] = func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		jsonBody(companyJSON)(w, r)
	}

	exec := resilience.NewExecutor(resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		RetryIf:      resilience.IsRetryable,
	})))
	c := newTestClient(t, srv, WithExecutor(exec))

	co, err := c.Company(context.Background(), "00126380")
	if err != nil {
		t.Fatalf("Company() error = %v", err)
	}
	if co.Name != "삼성전자(주)" {
		t.Errorf("Name = %q", co.Name)
	}
	if got := f.hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}

	exec := resilience.NewExecutor(resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		RetryIf:      resilience.IsRetryable,
	})))
	c := newTestClient(t, srv, WithExecutor(exec))

	_, err := c.Company(context.Background(), "00126380")
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("Company() error = %v, want *HTTPError", err)
	}
	if herr.StatusCode != http.StatusBadRequest || herr.Body != "bad request" {
		t.Errorf("HTTPError = %+v", herr)
	}
	if resilience.IsRetryable(err) {
		t.Error("400 must not be retryable")
	}
	if got := f.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
}

func TestClient_TooManyRequestsIsRetryable(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}
	c := newTestClient(t, srv)

	_, err := c.Company(context.Background(), "00126380")
	var re *resilience.RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("Company() error = %v, want retryable", err)
	}
	if re.After != 7*time.Second {
		t.Errorf("retry hint = %v, want 7s", re.After)
	}
}

func TestClient_APIStatusesAreNotRetried(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(error) bool
	}{
		{"quota", `{"status":"020","message":"요청 제한을 초과하였습니다."}`, func(err error) bool { return errors.Is(err, ErrQuota) }},
		{"invalid key", `{"status":"010","message":"등록되지 않은 키입니다."}`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status == StatusInvalidKey
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeDart(t)
			f.handlers["/api/company.json"] = jsonBody(tt.body)
			c := newTestClient(t, srv)

			_, err := c.Company(context.Background(), "00126380")
			if !tt.check(err) {
				t.Fatalf("Company() error = %v", err)
			}
			if resilience.IsRetryable(err) {
				t.Errorf("API status error %v must not be retryable", err)
			}
			if got := f.hits.Load(); got != 1 {
				t.Errorf("hits = %d, want 1", got)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "120", 2 * time.Minute},
		{"zero", "0", 0},
		{"negative", "-5", 0},
		{"http date", now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryAfter(tt.value, now); got != tt.want {
				t.Errorf("retryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestClient_TransportErrorHidesKey(t *testing.T) {
	_, srv := newFakeDart(t)
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Company(context.Background(), "00126380")
	if err == nil {
		t.Fatal("Company() against a closed server succeeded")
	}
	if strings.Contains(err.Error(), testKey) {
		t.Errorf("error leaks the api key: %v", err)
	}
	if !resilience.IsRetryable(err) {
		t.Errorf("transport error should be retryable: %v", err)
	}
}

func TestClient_LimiterSpendsQuotaPerRequest(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = jsonBody(companyJSON)

	quota := ratelimit.New(ratelimit.Config{Name: Provider, DailyLimit: 1})
	exec := resilience.NewExecutor(resilience.WithLimiter(quota))
	c := newTestClient(t, srv, WithExecutor(exec))

	if _, err := c.Company(context.Background(), "00126380"); err != nil {
		t.Fatalf("first Company() error = %v", err)
	}
	_, err := c.Company(context.Background(), "00164779")
	if !errors.Is(err, ratelimit.ErrDailyQuotaExceeded) {
		t.Errorf("second Company() error = %v, want ErrDailyQuotaExceeded", err)
	}
	if got := f.hits.Load(); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
}

func TestClient_MalformedJSON(t *testing.T) {
	f, srv := newFakeDart(t)
	f.handlers["/api/company.json"] = jsonBody("<html>oops</html>")
	c := newTestClient(t, srv)

	_, err := c.Company(context.Background(), "00126380")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Company() error = %v, want ErrMalformedResponse", err)
	}
}

func TestStatusError(t *testing.T) {
	if err := statusError(StatusOK, "정상"); err != nil {
		t.Errorf("statusError(000) = %v", err)
	}
	if err := statusError(StatusQuotaReached, "요청 제한을 초과하였습니다."); !errors.Is(err, ErrQuota) {
		t.Errorf("statusError(020) = %v, want ErrQuota", err)
	}

	err := statusError(StatusInvalidKey, "등록되지 않은 키입니다.")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != StatusInvalidKey {
		t.Errorf("statusError(010) = %v, want *APIError 010", err)
	}
	if !strings.Contains(err.Error(), "010") {
		t.Errorf("Error() = %q, want status in message", err.Error())
	}
}
