package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/egobogo/trellosync/internal/apierror"
)

const (
	DefaultBaseURL = "https://api.trello.com/1"
	DefaultTimeout = 10 * time.Second
)

// Config is the static part of a Client.
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client sends requests to the Trello REST API. It holds no business logic:
// configuration plus the interceptor chain. Every error it returns is an
// *apierror.APIError, except errors from custom request interceptors.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	log        zerolog.Logger
	tokens     TokenSource

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used by the logging interceptor.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "client").Logger() }
}

// WithRequestInterceptor appends a request-phase interceptor.
func WithRequestInterceptor(ri RequestInterceptor) Option {
	return func(c *Client) { c.requestInterceptors = append(c.requestInterceptors, ri) }
}

// WithResponseInterceptor appends a response-phase interceptor. It runs after
// classification, so err is nil or an *apierror.APIError.
func WithResponseInterceptor(ri ResponseInterceptor) Option {
	return func(c *Client) { c.responseInterceptors = append(c.responseInterceptors, ri) }
}

// WithTokenSource injects ts's token into every request and invalidates the
// session when Trello answers 401. The token is set after every custom
// request interceptor, whatever the option order.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a Client. Missing BaseURL and Timeout fall back to the Trello defaults.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{},
		log:        zerolog.Nop(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens != nil {
		c.requestInterceptors = append(c.requestInterceptors, InjectToken(c.tokens))
		c.responseInterceptors = append([]ResponseInterceptor{InvalidateSession(c.tokens)}, c.responseInterceptors...)
	}
	// Logging sees the final error after every other interceptor.
	c.responseInterceptors = append(c.responseInterceptors, LogResponses(c.log))
	return c
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with fields as query parameters.
func (c *Client) Post(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Query: query}, out)
}

// Put issues a PUT with fields as query parameters.
func (c *Client) Put(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Query: query}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Query: query}, out)
}

// PostForm issues a POST with a form-url-encoded body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Form: form}, out)
}

// PutForm issues a PUT with a form-url-encoded body.
func (c *Client) PutForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Form: form}, out)
}

// Do runs req through the interceptor chain and decodes a successful JSON
// response into out. A nil out discards the body.
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Query = cloneValues(req.Query)
	if c.apiKey != "" {
		req.Query.Set("key", c.apiKey)
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	for _, ri := range c.requestInterceptors {
		if err := ri(ctx, req); err != nil {
			return fmt.Errorf("request interceptor: %w", err)
		}
	}

	resp, err := c.send(ctx, req)
	for _, ri := range c.responseInterceptors {
		err = ri(ctx, resp, err)
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return apierror.FromDecode(req.Method, req.Path, resp.StatusCode, resp.Body, err)
	}
	return nil
}

// send performs the HTTP exchange and classifies the outcome.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	resp := &Response{Request: req}
	start := time.Now()
	defer func() { resp.Duration = time.Since(start) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return resp, apierror.FromTransport(req.Method, req.Path, err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return resp, apierror.FromTransport(req.Method, req.Path, c.redact(req, err))
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode
	resp.Header = httpResp.Header
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return resp, apierror.FromTransport(req.Method, req.Path, err)
	}
	resp.Body = body

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, apierror.FromResponse(req.Method, req.Path, httpResp.StatusCode, body)
	}
	return resp, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", req.Path, err)
	}
	u.RawQuery = req.Query.Encode()

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-Id", req.ID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	return httpReq, nil
}

// redact strips the query string, which carries the key and token, from
// the URL net/http embeds in transport errors.
func (c *Client) redact(req *Request, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = c.baseURL + req.Path
	}
	return err
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
