package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apierrors "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/errors"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/logger"
)

// DefaultTimeout bounds every call except the prompt stream, which lives
// as long as its context.
const DefaultTimeout = 30 * time.Second

// HTTPDoer is the part of tls_client.HttpClient the client needs.
type HTTPDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// cookieSetter is implemented by clients that carry a cookie jar.
type cookieSetter interface {
	SetCookies(u *url.URL, cookies []*fhttp.Cookie)
}

// Client talks to one chat backend. The backend tracks the active chat in
// its session cookie, so one Client is one session.
type Client struct {
	baseURL    *url.URL
	httpClient HTTPDoer
	timeout    time.Duration
	cookies    []*fhttp.Cookie
	mu         sync.RWMutex
	closed     bool
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the per-call timeout for non-streaming calls.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSessionCookies seeds the jar, e.g. with the browser's session so the
// terminal continues the chat open in the web UI.
func WithSessionCookies(cookies []*fhttp.Cookie) ClientOption {
	return func(c *Client) {
		c.cookies = cookies
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		// no client-wide timeout: streams are bounded by their context
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(0),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithCookieJar(tls_client.NewCookieJar()),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		c.httpClient = httpClient
	}

	if len(c.cookies) > 0 {
		if jar, ok := c.httpClient.(cookieSetter); ok {
			jar.SetCookies(c.baseURL, c.cookies)
		}
	}

	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Close marks the client closed; later calls fail with ErrClientClosed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*fhttp.Request, error) {
	if c.IsClosed() {
		return nil, apierrors.ErrClientClosed
	}
	req, err := fhttp.NewRequestWithContext(ctx, method, c.baseURL.String()+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	return req, nil
}

// do sends req and returns the response when the status is 2xx. Any other
// status is turned into an APIError carrying the body.
func (c *Client) do(req *fhttp.Request, endpoint string) (*fhttp.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr == context.DeadlineExceeded {
			return nil, apierrors.NewTimeoutError(endpoint)
		} else if ctxErr != nil {
			return nil, ctxErr
		}
		logger.Debugf("%s %s failed after %s: %v", req.Method, endpoint, time.Since(start), err)
		return nil, apierrors.NewNetworkError(endpoint, err)
	}

	logger.WithFields(logger.Fields{
		"method":   req.Method,
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, apierrors.NewHTTPStatusError(resp.StatusCode, statusText(resp), endpoint, string(body))
	}
	return resp, nil
}

// call performs a bounded request and returns the whole body.
func (c *Client) call(ctx context.Context, method, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apierrors.NewTimeoutError(endpoint)
		}
		return nil, apierrors.NewNetworkError(endpoint, err)
	}
	return body, nil
}

// statusText returns the reason phrase of resp, e.g. "NOT FOUND".
func statusText(resp *fhttp.Response) string {
	s := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	if s == "" {
		s = fhttp.StatusText(resp.StatusCode)
	}
	return strings.ToUpper(s)
}
