package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Kind is the classification of a failed Trello call.
type Kind string

const (
	KindUnauthorized Kind = "Unauthorized"
	KindForbidden    Kind = "Forbidden"
	KindNotFound     Kind = "NotFound"
	KindRateLimited  Kind = "RateLimited"
	KindServerError  Kind = "ServerError"
	KindClientError  Kind = "ClientError"
	KindNetworkError Kind = "NetworkError"
)

// Sentinels matched by errors.Is against an *APIError of the same kind.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrServer       = errors.New("server error")
	ErrClient       = errors.New("client error")
	ErrNetwork      = errors.New("network error")
)

var sentinels = map[Kind]error{
	KindUnauthorized: ErrUnauthorized,
	KindForbidden:    ErrForbidden,
	KindNotFound:     ErrNotFound,
	KindRateLimited:  ErrRateLimited,
	KindServerError:  ErrServer,
	KindClientError:  ErrClient,
	KindNetworkError: ErrNetwork,
}

// APIError is the only error shape that leaves the HTTP client.
type APIError struct {
	Kind    Kind
	Status  int // 0 when no response was received
	Message string
	Raw     []byte
	Method  string
	Path    string
	// Err is the transport error for KindNetworkError.
	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("trello ")
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the transport error, so
// errors.Is(err, ErrNetwork) and errors.Is(err, context.DeadlineExceeded) both work.
func (e *APIError) Unwrap() []error {
	errs := []error{sentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindForStatus maps an HTTP status to its Kind. Callers only pass failed statuses.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindServerError
	default:
		return KindClientError
	}
}

// FromResponse classifies a non-2xx response.
func FromResponse(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Kind:    KindForStatus(status),
		Status:  status,
		Message: messageFromBody(status, body),
		Raw:     body,
		Method:  method,
		Path:    path,
	}
}

// FromTransport classifies a request that never produced a response.
func FromTransport(method, path string, err error) *APIError {
	return &APIError{
		Kind:    KindNetworkError,
		Message: err.Error(),
		Method:  method,
		Path:    path,
		Err:     err,
	}
}

// FromDecode classifies a 2xx response whose body could not be decoded.
// The server is at fault, so it counts as a ServerError.
func FromDecode(method, path string, status int, body []byte, err error) *APIError {
	return &APIError{
		Kind:    KindServerError,
		Status:  status,
		Message: "malformed response body",
		Raw:     body,
		Method:  method,
		Path:    path,
		Err:     err,
	}
}

// Trello answers with either plain text ("invalid token") or a JSON object
// carrying "message" and/or "error".
func messageFromBody(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return http.StatusText(status)
	}
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.Message != "":
				return payload.Message
			case payload.Error != "":
				return payload.Error
			}
		}
	}
	const maxLen = 200
	if len(trimmed) > maxLen {
		n := maxLen
		for n > 0 && !utf8.RuneStart(trimmed[n]) {
			n--
		}
		trimmed = trimmed[:n]
	}
	return trimmed
}

// As returns the *APIError in err's chain, if any.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not an APIError.
func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}
	return ""
}

// IsRetryable reports whether err is transient: network failures, 5xx and 429.
// Unauthorized, Forbidden, NotFound and ClientError never are.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetworkError, KindServerError, KindRateLimited:
		return true
	default:
		return false
	}
}

// IsUnauthorized reports whether err ended the session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err is a 404 from Trello.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
