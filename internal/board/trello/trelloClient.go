// internal/board/trello/trelloClient.go
package trelloClient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

// Requester is the transport the service talks through. *client.Client
// satisfies it.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, query url.Values, out any) error
	Put(ctx context.Context, path string, query url.Values, out any) error
	Delete(ctx context.Context, path string, query url.Values, out any) error
	PostForm(ctx context.Context, path string, form url.Values, out any) error
	PutForm(ctx context.Context, path string, form url.Values, out any) error
}

// TrelloClient implements the bc.BoardClient interface against the Trello
// REST API. It is stateless: no caching, no retries.
type TrelloClient struct {
	http Requester
}

var _ bc.BoardClient = (*TrelloClient)(nil)

// NewTrelloClient constructs a new TrelloClient.
func NewTrelloClient(r Requester) *TrelloClient {
	return &TrelloClient{http: r}
}

// endpoint interpolates path-escaped ids into format.
func endpoint(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}

func setString(args trello.Arguments, key string, v *string) {
	if v != nil {
		args[key] = *v
	}
}

func setBool(args trello.Arguments, key string, v *bool) {
	if v != nil {
		args[key] = strconv.FormatBool(*v)
	}
}

func setNonEmpty(args trello.Arguments, key, v string) {
	if v != "" {
		args[key] = v
	}
}

func setIDs(args trello.Arguments, key string, ids []string) {
	if len(ids) > 0 {
		args[key] = strings.Join(ids, ",")
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
