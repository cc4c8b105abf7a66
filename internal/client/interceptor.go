package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/egobogo/trellosync/internal/apierror"
)

// Request is an outgoing call before it is turned into an *http.Request.
// Request interceptors may mutate it.
type Request struct {
	ID     string
	Method string
	Path   string
	Query  url.Values
	// Form, when set, is sent as an application/x-www-form-urlencoded body.
	Form url.Values
	// Body, when set and Form is nil, is sent as JSON.
	Body   any
	Header http.Header
	// Unauthenticated requests are sent without a token.
	Unauthenticated bool

	token string
}

// Token returns the token that was injected into the request, "" if none.
func (r *Request) Token() string { return r.token }

// Response is what came back for a Request. StatusCode is 0 when no
// response was received.
type Response struct {
	Request    *Request
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// RequestInterceptor runs before the request is sent. Returning an error
// aborts the call.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor observes or replaces the classified outcome of a call.
// It must return err unchanged or another *apierror.APIError.
type ResponseInterceptor func(ctx context.Context, resp *Response, err error) error

// TokenSource is the slice of the token store the client depends on.
type TokenSource interface {
	Token() string
	Invalidate(ctx context.Context, token string) bool
}

// InjectToken adds the current token as the "token" query parameter.
func InjectToken(ts TokenSource) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Unauthenticated {
			return nil
		}
		if tok := ts.Token(); tok != "" {
			req.Query.Set("token", tok)
			req.token = tok
		}
		return nil
	}
}

// InvalidateSession clears the session when the token a request carried is
// rejected. The token store compares tokens, so a 401 for a token that was
// already replaced does nothing.
func InvalidateSession(ts TokenSource) ResponseInterceptor {
	return func(ctx context.Context, resp *Response, err error) error {
		if err == nil || !apierror.IsUnauthorized(err) {
			return err
		}
		if tok := resp.Request.Token(); tok != "" {
			ts.Invalidate(ctx, tok)
		}
		return err
	}
}

// LogResponses logs every completed call. The query string is never logged
// since it carries the key and token.
func LogResponses(log zerolog.Logger) ResponseInterceptor {
	return func(_ context.Context, resp *Response, err error) error {
		req := resp.Request
		var ev *zerolog.Event
		switch {
		case err == nil:
			ev = log.Debug()
		case apierror.IsRetryable(err):
			ev = log.Warn().Err(err)
		default:
			ev = log.Info().Err(err)
		}
		ev.Str("request_id", req.ID).
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", resp.StatusCode).
			Dur("duration", resp.Duration).
			Msg("trello request")
		return err
	}
}
