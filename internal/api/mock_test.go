package api

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
)

// mockRoute is the canned answer for one "METHOD /path" key.
type mockRoute struct {
	Status int
	Body   string
	Err    error
	// Chunks, when set, are returned one per Read instead of Body.
	Chunks []string
	// ReadErr is returned once the chunks run out.
	ReadErr error
}

// MockHTTPDoer is a fake transport that answers from a route table and
// records every request.
type MockHTTPDoer struct {
	mu       sync.Mutex
	Routes   map[string]mockRoute
	Requests []*fhttp.Request
	Bodies   []string
	Cookies  []*fhttp.Cookie
	Closed   []*trackingBody
}

func (m *MockHTTPDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	m.Requests = append(m.Requests, req)
	m.Bodies = append(m.Bodies, body)

	key := req.Method + " " + req.URL.EscapedPath()
	route, ok := m.Routes[key]
	if !ok {
		route = mockRoute{Status: 404, Body: "not routed: " + key}
	}
	if route.Err != nil {
		return nil, route.Err
	}

	chunks := route.Chunks
	if chunks == nil {
		chunks = []string{route.Body}
	}
	tb := &trackingBody{chunks: chunks, readErr: route.ReadErr}
	m.Closed = append(m.Closed, tb)

	return &fhttp.Response{
		StatusCode: route.Status,
		Status:     fmt.Sprintf("%d %s", route.Status, strings.ToUpper(fhttp.StatusText(route.Status))),
		Header:     fhttp.Header{},
		Body:       tb,
		Request:    req,
	}, nil
}

func (m *MockHTTPDoer) SetCookies(u *url.URL, cookies []*fhttp.Cookie) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cookies = cookies
}

func (m *MockHTTPDoer) lastBody() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Bodies) == 0 {
		return ""
	}
	return m.Bodies[len(m.Bodies)-1]
}

func (m *MockHTTPDoer) lastRequest() *fhttp.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// trackingBody hands out its chunks one Read at a time and remembers Close.
type trackingBody struct {
	chunks  []string
	readErr error
	closed  bool
}

func (b *trackingBody) Read(p []byte) (int, error) {
	for len(b.chunks) > 0 && b.chunks[0] == "" {
		b.chunks = b.chunks[1:]
	}
	if len(b.chunks) == 0 {
		if b.readErr != nil {
			return 0, b.readErr
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	return n, nil
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func newTestClient(t *testing.T, routes map[string]mockRoute) (*Client, *MockHTTPDoer) {
	t.Helper()
	doer := &MockHTTPDoer{Routes: routes}
	client, err := NewClient("http://backend:5000/", WithHTTPClient(doer))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, doer
}
