package query

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/egobogo/trellosync/internal/auth"
	"github.com/egobogo/trellosync/internal/board"
	"github.com/egobogo/trellosync/internal/cache"
)

// SessionSource is the part of the token store the facade watches.
type SessionSource interface {
	Session() auth.Session
	Subscribe(fn func(auth.Session)) (unsubscribe func())
}

// Client serves every Trello read through the cache and routes every write
// through the invalidation table.
type Client struct {
	api   board.BoardClient
	cache *cache.Cache
	log   zerolog.Logger
}

// New creates a Client over api, caching into c.
func New(api board.BoardClient, c *cache.Cache, log zerolog.Logger) *Client {
	return &Client{
		api:   api,
		cache: c,
		log:   log.With().Str("component", "query").Logger(),
	}
}

// Cache returns the underlying cache, for subscriptions and direct writes.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// WatchSession clears the cache whenever the session token changes, which
// covers logout, a 401-driven invalidation and logging in as someone else.
// Data fetched for one session is never served to the next.
func (c *Client) WatchSession(src SessionSource) (unsubscribe func()) {
	var mu sync.Mutex
	last := src.Session().Token
	return src.Subscribe(func(s auth.Session) {
		if s.IsLoading {
			return
		}
		mu.Lock()
		changed := s.Token != last
		last = s.Token
		mu.Unlock()
		if changed {
			c.log.Info().Bool("authenticated", s.IsAuthenticated).Msg("session changed, clearing cache")
			c.cache.Clear()
		}
	})
}

func mutate[T any](ctx context.Context, c *Client, op Op, fn func(context.Context) (T, error), targets func(T) Targets) (T, error) {
	opts := []cache.MutateOption{
		cache.InvalidatesFrom(func(result any) []cache.Key {
			return Invalidations(op, targets(result.(T)))
		}),
	}
	if !Retryable(op) {
		opts = append(opts, cache.MutationRetries(0))
	}
	out, err := cache.Mutate(ctx, c.cache, fn, opts...)
	if err != nil {
		c.log.Debug().Err(err).Str("op", string(op)).Msg("mutation failed")
		return out, err
	}
	c.log.Debug().Str("op", string(op)).Msg("mutation applied")
	return out, nil
}

// exec adapts a call with no result to mutate.
func exec(ctx context.Context, c *Client, op Op, fn func(context.Context) error, t Targets) error {
	_, err := mutate(ctx, c, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, func(struct{}) Targets { return t })
	return err
}

// peek returns the cached value at key if it holds a T.
func peek[T any](c *Client, key cache.Key) (T, bool) {
	var zero T
	v, ok := c.cache.Peek(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// changedTo returns to when it differs from from, "" otherwise.
func changedTo(from, to string) string {
	if to == from {
		return ""
	}
	return to
}

// cardTargets locates a card from the cache before it is mutated.
func (c *Client) cardTargets(id string) Targets {
	t := Targets{CardID: id}
	if card, ok := peek[board.Card](c, Card(id)); ok {
		t.ListID, t.BoardID = card.IDList, card.IDBoard
	}
	return t
}

func (c *Client) listBoard(id string) string {
	if l, ok := peek[board.List](c, List(id)); ok {
		return l.IDBoard
	}
	return ""
}

func (c *Client) boardWorkspace(id string) string {
	if b, ok := peek[board.Board](c, Board(id)); ok {
		return b.IDOrganization
	}
	return ""
}

func (c *Client) checklistCard(id string) string {
	if cl, ok := peek[board.Checklist](c, Checklist(id)); ok {
		return cl.IDCard
	}
	return ""
}

// checklistTargets locates a checklist and the card whose badges count it.
func (c *Client) checklistTargets(id string) Targets {
	t := c.cardTargets(c.checklistCard(id))
	t.ChecklistID = id
	return t
}

// Workspaces

func (c *Client) Workspaces(ctx context.Context, opts ...cache.QueryOption) ([]board.Workspace, error) {
	return cache.Query(ctx, c.cache, Workspaces(), c.api.Workspaces, opts...)
}

func (c *Client) Workspace(ctx context.Context, id string, opts ...cache.QueryOption) (board.Workspace, error) {
	return cache.Query(ctx, c.cache, Workspace(id), func(ctx context.Context) (board.Workspace, error) {
		return c.api.Workspace(ctx, id)
	}, opts...)
}

func (c *Client) WorkspaceBoards(ctx context.Context, id string, opts ...cache.QueryOption) ([]board.Board, error) {
	return cache.Query(ctx, c.cache, WorkspaceBoards(id), func(ctx context.Context) ([]board.Board, error) {
		return c.api.WorkspaceBoards(ctx, id)
	}, opts...)
}

func (c *Client) WorkspaceMembers(ctx context.Context, id string, opts ...cache.QueryOption) ([]board.Member, error) {
	return cache.Query(ctx, c.cache, WorkspaceMembers(id), func(ctx context.Context) ([]board.Member, error) {
		return c.api.WorkspaceMembers(ctx, id)
	}, opts...)
}

func (c *Client) CreateWorkspace(ctx context.Context, p board.CreateWorkspaceParams) (board.Workspace, error) {
	return mutate(ctx, c, OpCreateWorkspace, func(ctx context.Context) (board.Workspace, error) {
		return c.api.CreateWorkspace(ctx, p)
	}, func(w board.Workspace) Targets { return Targets{WorkspaceID: w.ID} })
}

func (c *Client) UpdateWorkspace(ctx context.Context, id string, p board.UpdateWorkspaceParams) (board.Workspace, error) {
	return mutate(ctx, c, OpUpdateWorkspace, func(ctx context.Context) (board.Workspace, error) {
		return c.api.UpdateWorkspace(ctx, id, p)
	}, func(board.Workspace) Targets { return Targets{WorkspaceID: id} })
}

func (c *Client) DeleteWorkspace(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteWorkspace, func(ctx context.Context) error {
		return c.api.DeleteWorkspace(ctx, id)
	}, Targets{WorkspaceID: id})
}

// Boards

func (c *Client) Boards(ctx context.Context, opts ...cache.QueryOption) ([]board.Board, error) {
	return cache.Query(ctx, c.cache, Boards(), c.api.Boards, opts...)
}

func (c *Client) Board(ctx context.Context, id string, opts ...cache.QueryOption) (board.Board, error) {
	return cache.Query(ctx, c.cache, Board(id), func(ctx context.Context) (board.Board, error) {
		return c.api.Board(ctx, id)
	}, opts...)
}

func (c *Client) BoardMembers(ctx context.Context, id string, opts ...cache.QueryOption) ([]board.Member, error) {
	return cache.Query(ctx, c.cache, BoardMembers(id), func(ctx context.Context) ([]board.Member, error) {
		return c.api.BoardMembers(ctx, id)
	}, opts...)
}

func (c *Client) BoardCards(ctx context.Context, id string, opts ...cache.QueryOption) ([]board.Card, error) {
	return cache.Query(ctx, c.cache, BoardCards(id), func(ctx context.Context) ([]board.Card, error) {
		return c.api.BoardCards(ctx, id)
	}, opts...)
}

func (c *Client) CreateBoard(ctx context.Context, p board.CreateBoardParams) (board.Board, error) {
	return mutate(ctx, c, OpCreateBoard, func(ctx context.Context) (board.Board, error) {
		return c.api.CreateBoard(ctx, p)
	}, func(b board.Board) Targets {
		return Targets{BoardID: b.ID, WorkspaceID: firstNonEmpty(b.IDOrganization, p.WorkspaceID)}
	})
}

func (c *Client) UpdateBoard(ctx context.Context, id string, p board.UpdateBoardParams) (board.Board, error) {
	return c.changeBoard(ctx, OpUpdateBoard, id, func(ctx context.Context) (board.Board, error) {
		return c.api.UpdateBoard(ctx, id, p)
	})
}

func (c *Client) CloseBoard(ctx context.Context, id string) (board.Board, error) {
	return c.changeBoard(ctx, OpCloseBoard, id, func(ctx context.Context) (board.Board, error) {
		return c.api.CloseBoard(ctx, id)
	})
}

func (c *Client) changeBoard(ctx context.Context, op Op, id string, fn func(context.Context) (board.Board, error)) (board.Board, error) {
	from := c.boardWorkspace(id)
	return mutate(ctx, c, op, fn, func(b board.Board) Targets {
		return Targets{BoardID: id, WorkspaceID: from, ToWorkspaceID: changedTo(from, b.IDOrganization)}
	})
}

func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteBoard, func(ctx context.Context) error {
		return c.api.DeleteBoard(ctx, id)
	}, Targets{BoardID: id, WorkspaceID: c.boardWorkspace(id)})
}

// Lists

func (c *Client) Lists(ctx context.Context, boardID string, opts ...cache.QueryOption) ([]board.List, error) {
	return cache.Query(ctx, c.cache, BoardLists(boardID), func(ctx context.Context) ([]board.List, error) {
		return c.api.Lists(ctx, boardID)
	}, opts...)
}

func (c *Client) List(ctx context.Context, id string, opts ...cache.QueryOption) (board.List, error) {
	return cache.Query(ctx, c.cache, List(id), func(ctx context.Context) (board.List, error) {
		return c.api.List(ctx, id)
	}, opts...)
}

func (c *Client) CreateList(ctx context.Context, p board.CreateListParams) (board.List, error) {
	return mutate(ctx, c, OpCreateList, func(ctx context.Context) (board.List, error) {
		return c.api.CreateList(ctx, p)
	}, func(l board.List) Targets {
		return Targets{ListID: l.ID, BoardID: firstNonEmpty(l.IDBoard, p.BoardID)}
	})
}

func (c *Client) UpdateList(ctx context.Context, id string, p board.UpdateListParams) (board.List, error) {
	from := c.listBoard(id)
	return mutate(ctx, c, OpUpdateList, func(ctx context.Context) (board.List, error) {
		return c.api.UpdateList(ctx, id, p)
	}, func(l board.List) Targets {
		return Targets{ListID: id, BoardID: firstNonEmpty(from, l.IDBoard)}
	})
}

func (c *Client) ArchiveList(ctx context.Context, id string) (board.List, error) {
	from := c.listBoard(id)
	return mutate(ctx, c, OpArchiveList, func(ctx context.Context) (board.List, error) {
		return c.api.ArchiveList(ctx, id)
	}, func(l board.List) Targets {
		return Targets{ListID: id, BoardID: firstNonEmpty(from, l.IDBoard)}
	})
}

func (c *Client) DeleteList(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteList, func(ctx context.Context) error {
		return c.api.DeleteList(ctx, id)
	}, Targets{ListID: id, BoardID: c.listBoard(id)})
}

func (c *Client) MoveList(ctx context.Context, id, boardID string) (board.List, error) {
	from := c.listBoard(id)
	return mutate(ctx, c, OpMoveList, func(ctx context.Context) (board.List, error) {
		return c.api.MoveList(ctx, id, boardID)
	}, func(board.List) Targets {
		return Targets{ListID: id, BoardID: from, ToBoardID: changedTo(from, boardID)}
	})
}

func (c *Client) MoveAllCards(ctx context.Context, id, targetBoardID, targetListID string) error {
	from := c.listBoard(id)
	return exec(ctx, c, OpMoveAllCards, func(ctx context.Context) error {
		return c.api.MoveAllCards(ctx, id, targetBoardID, targetListID)
	}, Targets{ListID: id, BoardID: from, ToListID: targetListID, ToBoardID: changedTo(from, targetBoardID)})
}

func (c *Client) ArchiveAllCards(ctx context.Context, id string) error {
	return exec(ctx, c, OpArchiveAllCards, func(ctx context.Context) error {
		return c.api.ArchiveAllCards(ctx, id)
	}, Targets{ListID: id, BoardID: c.listBoard(id)})
}

// Cards

func (c *Client) Cards(ctx context.Context, listID string, opts ...cache.QueryOption) ([]board.Card, error) {
	return cache.Query(ctx, c.cache, ListCards(listID), func(ctx context.Context) ([]board.Card, error) {
		return c.api.Cards(ctx, listID)
	}, opts...)
}

func (c *Client) Card(ctx context.Context, id string, opts ...cache.QueryOption) (board.Card, error) {
	return cache.Query(ctx, c.cache, Card(id), func(ctx context.Context) (board.Card, error) {
		return c.api.Card(ctx, id)
	}, opts...)
}

func (c *Client) CardMembers(ctx context.Context, cardID string, opts ...cache.QueryOption) ([]board.Member, error) {
	return cache.Query(ctx, c.cache, CardMembers(cardID), func(ctx context.Context) ([]board.Member, error) {
		return c.api.CardMembers(ctx, cardID)
	}, opts...)
}

func (c *Client) Comments(ctx context.Context, cardID string, opts ...cache.QueryOption) ([]board.Comment, error) {
	return cache.Query(ctx, c.cache, CardComments(cardID), func(ctx context.Context) ([]board.Comment, error) {
		return c.api.Comments(ctx, cardID)
	}, opts...)
}

func (c *Client) CreateCard(ctx context.Context, p board.CreateCardParams) (board.Card, error) {
	return mutate(ctx, c, OpCreateCard, func(ctx context.Context) (board.Card, error) {
		return c.api.CreateCard(ctx, p)
	}, func(card board.Card) Targets {
		return Targets{CardID: card.ID, ListID: firstNonEmpty(card.IDList, p.ListID), BoardID: card.IDBoard}
	})
}

func (c *Client) UpdateCard(ctx context.Context, id string, p board.UpdateCardParams) (board.Card, error) {
	return c.relocateCard(ctx, OpUpdateCard, id, func(ctx context.Context) (board.Card, error) {
		return c.api.UpdateCard(ctx, id, p)
	})
}

func (c *Client) MoveCard(ctx context.Context, id string, p board.MoveCardParams) (board.Card, error) {
	return c.relocateCard(ctx, OpMoveCard, id, func(ctx context.Context) (board.Card, error) {
		return c.api.MoveCard(ctx, id, p)
	})
}

// relocateCard runs a card update that may change its list or board. The
// old location comes from the cache, the new one from the response.
func (c *Client) relocateCard(ctx context.Context, op Op, id string, fn func(context.Context) (board.Card, error)) (board.Card, error) {
	from := c.cardTargets(id)
	return mutate(ctx, c, op, fn, func(card board.Card) Targets {
		t := from
		t.ToListID = changedTo(from.ListID, card.IDList)
		t.ToBoardID = changedTo(from.BoardID, card.IDBoard)
		return t
	})
}

func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteCard, func(ctx context.Context) error {
		return c.api.DeleteCard(ctx, id)
	}, c.cardTargets(id))
}

func (c *Client) ArchiveCard(ctx context.Context, id string) (board.Card, error) {
	from := c.cardTargets(id)
	return mutate(ctx, c, OpArchiveCard, func(ctx context.Context) (board.Card, error) {
		return c.api.ArchiveCard(ctx, id)
	}, func(card board.Card) Targets {
		t := from
		t.ListID = firstNonEmpty(t.ListID, card.IDList)
		t.BoardID = firstNonEmpty(t.BoardID, card.IDBoard)
		return t
	})
}

func (c *Client) AddCardMember(ctx context.Context, cardID, memberID string) error {
	return exec(ctx, c, OpAddCardMember, func(ctx context.Context) error {
		return c.api.AddCardMember(ctx, cardID, memberID)
	}, Targets{CardID: cardID, MemberID: memberID})
}

func (c *Client) RemoveCardMember(ctx context.Context, cardID, memberID string) error {
	return exec(ctx, c, OpRemoveCardMember, func(ctx context.Context) error {
		return c.api.RemoveCardMember(ctx, cardID, memberID)
	}, Targets{CardID: cardID, MemberID: memberID})
}

func (c *Client) AddCardLabel(ctx context.Context, cardID, labelID string) error {
	return exec(ctx, c, OpAddCardLabel, func(ctx context.Context) error {
		return c.api.AddCardLabel(ctx, cardID, labelID)
	}, c.cardTargets(cardID))
}

func (c *Client) RemoveCardLabel(ctx context.Context, cardID, labelID string) error {
	return exec(ctx, c, OpRemoveCardLabel, func(ctx context.Context) error {
		return c.api.RemoveCardLabel(ctx, cardID, labelID)
	}, c.cardTargets(cardID))
}

func (c *Client) AddComment(ctx context.Context, cardID, text string) (board.Comment, error) {
	t := c.cardTargets(cardID)
	return mutate(ctx, c, OpAddComment, func(ctx context.Context) (board.Comment, error) {
		return c.api.AddComment(ctx, cardID, text)
	}, func(board.Comment) Targets { return t })
}

// Labels

func (c *Client) Labels(ctx context.Context, boardID string, opts ...cache.QueryOption) ([]board.Label, error) {
	return cache.Query(ctx, c.cache, BoardLabels(boardID), func(ctx context.Context) ([]board.Label, error) {
		return c.api.Labels(ctx, boardID)
	}, opts...)
}

func (c *Client) CreateLabel(ctx context.Context, p board.CreateLabelParams) (board.Label, error) {
	return mutate(ctx, c, OpCreateLabel, func(ctx context.Context) (board.Label, error) {
		return c.api.CreateLabel(ctx, p)
	}, func(l board.Label) Targets {
		return Targets{BoardID: firstNonEmpty(l.IDBoard, p.BoardID)}
	})
}

func (c *Client) UpdateLabel(ctx context.Context, id string, p board.UpdateLabelParams) (board.Label, error) {
	return mutate(ctx, c, OpUpdateLabel, func(ctx context.Context) (board.Label, error) {
		return c.api.UpdateLabel(ctx, id, p)
	}, func(l board.Label) Targets { return Targets{BoardID: l.IDBoard} })
}

// DeleteLabel does not know the label's board, so every board's labels
// and cards are refetched.
func (c *Client) DeleteLabel(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteLabel, func(ctx context.Context) error {
		return c.api.DeleteLabel(ctx, id)
	}, Targets{})
}

// Checklists

func (c *Client) Checklists(ctx context.Context, cardID string, opts ...cache.QueryOption) ([]board.Checklist, error) {
	return cache.Query(ctx, c.cache, CardChecklists(cardID), func(ctx context.Context) ([]board.Checklist, error) {
		return c.api.Checklists(ctx, cardID)
	}, opts...)
}

func (c *Client) Checklist(ctx context.Context, id string, opts ...cache.QueryOption) (board.Checklist, error) {
	return cache.Query(ctx, c.cache, Checklist(id), func(ctx context.Context) (board.Checklist, error) {
		return c.api.Checklist(ctx, id)
	}, opts...)
}

func (c *Client) CreateChecklist(ctx context.Context, p board.CreateChecklistParams) (board.Checklist, error) {
	t := c.cardTargets(p.CardID)
	return mutate(ctx, c, OpCreateChecklist, func(ctx context.Context) (board.Checklist, error) {
		return c.api.CreateChecklist(ctx, p)
	}, func(cl board.Checklist) Targets {
		t.ChecklistID, t.CardID = cl.ID, firstNonEmpty(cl.IDCard, p.CardID)
		return t
	})
}

func (c *Client) UpdateChecklist(ctx context.Context, id, name string) (board.Checklist, error) {
	from := c.checklistCard(id)
	return mutate(ctx, c, OpUpdateChecklist, func(ctx context.Context) (board.Checklist, error) {
		return c.api.UpdateChecklist(ctx, id, name)
	}, func(cl board.Checklist) Targets {
		return Targets{ChecklistID: id, CardID: firstNonEmpty(cl.IDCard, from)}
	})
}

func (c *Client) DeleteChecklist(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteChecklist, func(ctx context.Context) error {
		return c.api.DeleteChecklist(ctx, id)
	}, c.checklistTargets(id))
}

func (c *Client) CreateCheckItem(ctx context.Context, p board.CreateCheckItemParams) (board.CheckItem, error) {
	t := c.checklistTargets(p.ChecklistID)
	return mutate(ctx, c, OpCreateCheckItem, func(ctx context.Context) (board.CheckItem, error) {
		return c.api.CreateCheckItem(ctx, p)
	}, func(board.CheckItem) Targets { return t })
}

func (c *Client) UpdateCheckItem(ctx context.Context, cardID, checkItemID string, p board.UpdateCheckItemParams) (board.CheckItem, error) {
	t := c.cardTargets(cardID)
	return mutate(ctx, c, OpUpdateCheckItem, func(ctx context.Context) (board.CheckItem, error) {
		return c.api.UpdateCheckItem(ctx, cardID, checkItemID, p)
	}, func(item board.CheckItem) Targets {
		t.ChecklistID = item.IDChecklist
		return t
	})
}

func (c *Client) DeleteCheckItem(ctx context.Context, checklistID, checkItemID string) error {
	return exec(ctx, c, OpDeleteCheckItem, func(ctx context.Context) error {
		return c.api.DeleteCheckItem(ctx, checklistID, checkItemID)
	}, c.checklistTargets(checklistID))
}

// Members

func (c *Client) Me(ctx context.Context, opts ...cache.QueryOption) (board.Member, error) {
	return cache.Query(ctx, c.cache, Me(), c.api.Me, opts...)
}

func (c *Client) Member(ctx context.Context, id string, opts ...cache.QueryOption) (board.Member, error) {
	return cache.Query(ctx, c.cache, Member(id), func(ctx context.Context) (board.Member, error) {
		return c.api.Member(ctx, id)
	}, opts...)
}

func (c *Client) UpdateProfile(ctx context.Context, p board.UpdateProfileParams) (board.Member, error) {
	return mutate(ctx, c, OpUpdateProfile, func(ctx context.Context) (board.Member, error) {
		return c.api.UpdateProfile(ctx, p)
	}, func(m board.Member) Targets { return Targets{MemberID: m.ID} })
}
