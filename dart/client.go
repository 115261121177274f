package dart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jonwraymond/kfin/cache"
	"github.com/jonwraymond/kfin/observe"
	"github.com/jonwraymond/kfin/resilience"
)

const (
	// DefaultBaseURL is the production OpenDART endpoint.
	DefaultBaseURL = "https://opendart.fss.or.kr"

	// Provider is the cache key and telemetry provider tag.
	Provider = "opendart"

	// DefaultTimeout bounds the whole HTTP exchange of one attempt.
	DefaultTimeout = 60 * time.Second

	maxBodyBytes  = 64 << 20
	maxErrorBytes = 512
)

// Client calls the OpenDART API.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every method honors cancellation.
//   - Errors: transport failures, HTTP 429 and HTTP 5xx are marked
//     resilience.Retryable. A 429 Retry-After header becomes the retry
//     hint. API statuses map to ErrQuota or *APIError.
type Client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	through    *cache.Through
	executor   *resilience.Executor
	middleware *observe.Middleware
	logger     observe.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithCache routes data calls through t. Without it every call hits the API.
func WithCache(t *cache.Through) Option {
	return func(c *Client) {
		c.through = t
	}
}

// WithExecutor wraps every HTTP attempt in e.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *Client) {
		if e != nil {
			c.executor = e
		}
	}
}

// WithMiddleware traces and measures every logical request.
func WithMiddleware(m *observe.Middleware) Option {
	return func(c *Client) {
		if m != nil {
			c.middleware = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the clock used to pick cache TTLs.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: DefaultTimeout},
		executor: resilience.NewExecutor(),
		logger:   observe.NopLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.middleware == nil {
		c.middleware = observe.NewMiddleware(nil, nil, c.logger)
	}
	return c, nil
}

// envelope is the status header every JSON response carries.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// getJSON performs a GET and decodes the body into dst after checking the
// status header. It reports whether the API answered StatusNoData.
func (c *Client) getJSON(ctx context.Context, operation string, params url.Values, dst any) (noData bool, err error) {
	body, err := c.get(ctx, operation, "/api/"+operation+".json", params)
	if err != nil {
		return false, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, operation, err)
	}
	if env.Status == StatusNoData {
		return true, nil
	}
	if err := statusError(env.Status, env.Message); err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, operation, err)
	}
	return false, nil
}

// get performs one logical GET through the middleware and the executor and
// returns the full body of the first successful attempt.
func (c *Client) get(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	var body []byte
	call := c.middleware.Wrap(func(ctx context.Context, _ observe.CallMeta) error {
		return c.executor.Execute(ctx, func(ctx context.Context) error {
			b, err := c.attempt(ctx, path, params)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err := call(ctx, observe.CallMeta{Provider: Provider, Operation: operation}); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("crtfc_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("dart: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, resilience.Retryable(fmt.Errorf("dart: request %s: %w", path, c.redact(err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		herr := &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, resilience.RetryableAfter(herr, retryAfter(resp.Header.Get("Retry-After"), time.Now()))
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, resilience.Retryable(herr)
		}
		return nil, herr
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.Retryable(fmt.Errorf("dart: read %s: %w", path, err))
	}
	return b, nil
}

// retryAfter parses a Retry-After header given either as delay seconds or
// as an HTTP date. Unparseable or past values yield zero.
func retryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// redact drops the query string, which carries the API key, from transport
// errors.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	u := ue.URL
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return &url.Error{Op: ue.Op, URL: u, Err: ue.Err}
}
