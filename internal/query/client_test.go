package query

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egobogo/trellosync/internal/apierror"
	"github.com/egobogo/trellosync/internal/auth"
	"github.com/egobogo/trellosync/internal/board"
	"github.com/egobogo/trellosync/internal/cache"
	"github.com/egobogo/trellosync/internal/kvstore/inmemory"
)

// fakeAPI keeps boards, lists and cards in memory. Methods it does not
// override panic through the nil embedded interface.
type fakeAPI struct {
	board.BoardClient

	mu         sync.Mutex
	lists      map[string][]board.List
	cards      map[string]board.Card
	checklists map[string]board.Checklist
	calls      map[string]int
	nextID     int
	failOn     map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		lists:      make(map[string][]board.List),
		cards:      make(map[string]board.Card),
		checklists: make(map[string]board.Checklist),
		calls:      make(map[string]int),
		failOn:     make(map[string]error),
	}
}

func (f *fakeAPI) record(name string) error {
	f.calls[name]++
	return f.failOn[name]
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Boards(context.Context) ([]board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Boards"); err != nil {
		return nil, err
	}
	return []board.Board{{ID: "b1", Name: "Roadmap"}}, nil
}

func (f *fakeAPI) Lists(_ context.Context, boardID string) ([]board.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Lists:" + boardID); err != nil {
		return nil, err
	}
	return append([]board.List(nil), f.lists[boardID]...), nil
}

func (f *fakeAPI) CreateList(_ context.Context, p board.CreateListParams) (board.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateList"); err != nil {
		return board.List{}, err
	}
	f.nextID++
	l := board.List{ID: fmt.Sprintf("L%d", f.nextID), Name: p.Name, IDBoard: p.BoardID}
	f.lists[p.BoardID] = append(f.lists[p.BoardID], l)
	return l, nil
}

func (f *fakeAPI) Cards(_ context.Context, listID string) ([]board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Cards:" + listID); err != nil {
		return nil, err
	}
	var out []board.Card
	for _, c := range f.cards {
		if c.IDList == listID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeAPI) Card(_ context.Context, id string) (board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Card:" + id); err != nil {
		return board.Card{}, err
	}
	c, ok := f.cards[id]
	if !ok {
		return board.Card{}, apierror.FromResponse(http.MethodGet, "/cards/"+id, http.StatusNotFound, nil)
	}
	return c, nil
}

func (f *fakeAPI) CreateCard(_ context.Context, p board.CreateCardParams) (board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateCard"); err != nil {
		return board.Card{}, err
	}
	f.nextID++
	c := board.Card{ID: fmt.Sprintf("C%d", f.nextID), Name: p.Name, IDList: p.ListID, IDBoard: "b1"}
	f.cards[c.ID] = c
	return c, nil
}

func (f *fakeAPI) MoveCard(_ context.Context, id string, p board.MoveCardParams) (board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("MoveCard"); err != nil {
		return board.Card{}, err
	}
	c := f.cards[id]
	c.IDList = p.ListID
	f.cards[id] = c
	return c, nil
}

func (f *fakeAPI) UpdateCard(_ context.Context, id string, p board.UpdateCardParams) (board.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateCard"); err != nil {
		return board.Card{}, err
	}
	c := f.cards[id]
	if p.Name != nil {
		c.Name = *p.Name
	}
	f.cards[id] = c
	return c, nil
}

func (f *fakeAPI) AddCardMember(_ context.Context, cardID, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddCardMember"); err != nil {
		return err
	}
	c := f.cards[cardID]
	c.IDMembers = append(c.IDMembers, memberID)
	f.cards[cardID] = c
	return nil
}

// badges applies fn to a copy of the card's badges, leaving cached values alone.
func (f *fakeAPI) badges(cardID string, fn func(*board.CardBadges)) {
	c := f.cards[cardID]
	var b board.CardBadges
	if c.Badges != nil {
		b = *c.Badges
	}
	fn(&b)
	c.Badges = &b
	f.cards[cardID] = c
}

func (f *fakeAPI) AddComment(_ context.Context, cardID, text string) (board.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("AddComment"); err != nil {
		return board.Comment{}, err
	}
	f.badges(cardID, func(b *board.CardBadges) { b.Comments++ })
	f.nextID++
	cm := board.Comment{ID: fmt.Sprintf("A%d", f.nextID)}
	cm.Data.Text = text
	return cm, nil
}

func (f *fakeAPI) Checklist(_ context.Context, id string) (board.Checklist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Checklist:" + id); err != nil {
		return board.Checklist{}, err
	}
	return f.checklists[id], nil
}

func (f *fakeAPI) DeleteChecklist(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteChecklist"); err != nil {
		return err
	}
	cl := f.checklists[id]
	f.badges(cl.IDCard, func(b *board.CardBadges) { b.CheckItems -= len(cl.CheckItems) })
	delete(f.checklists, id)
	return nil
}

func (f *fakeAPI) CreateCheckItem(_ context.Context, p board.CreateCheckItemParams) (board.CheckItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateCheckItem"); err != nil {
		return board.CheckItem{}, err
	}
	f.nextID++
	item := board.CheckItem{ID: fmt.Sprintf("I%d", f.nextID), IDChecklist: p.ChecklistID, Name: p.Name}
	cl := f.checklists[p.ChecklistID]
	cl.CheckItems = append(cl.CheckItems, item)
	f.checklists[p.ChecklistID] = cl
	f.badges(cl.IDCard, func(b *board.CardBadges) { b.CheckItems++ })
	return item, nil
}

func (f *fakeAPI) UpdateCheckItem(_ context.Context, cardID, checkItemID string, p board.UpdateCheckItemParams) (board.CheckItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateCheckItem"); err != nil {
		return board.CheckItem{}, err
	}
	for id, cl := range f.checklists {
		for i, item := range cl.CheckItems {
			if item.ID != checkItemID {
				continue
			}
			if p.Checked != nil && *p.Checked && !item.Complete() {
				item.State = board.CheckItemComplete
				cl.CheckItems = append([]board.CheckItem(nil), cl.CheckItems...)
				cl.CheckItems[i] = item
				f.checklists[id] = cl
				f.badges(cardID, func(b *board.CardBadges) { b.CheckItemsChecked++ })
			}
			return item, nil
		}
	}
	return board.CheckItem{}, apierror.FromResponse(http.MethodPut, "/cards/"+cardID, http.StatusNotFound, nil)
}

func (f *fakeAPI) DeleteCheckItem(_ context.Context, checklistID, checkItemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteCheckItem"); err != nil {
		return err
	}
	cl := f.checklists[checklistID]
	for i, item := range cl.CheckItems {
		if item.ID == checkItemID {
			cl.CheckItems = append(cl.CheckItems[:i:i], cl.CheckItems[i+1:]...)
			f.badges(cl.IDCard, func(b *board.CardBadges) { b.CheckItems-- })
			break
		}
	}
	f.checklists[checklistID] = cl
	return nil
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	c := cache.New(cache.Options{
		StaleTime:       time.Minute,
		QueryRetries:    2,
		MutationRetries: 1,
		RetryDelay:      time.Millisecond,
	}, zerolog.Nop())
	t.Cleanup(c.Wait)
	return New(api, c, zerolog.Nop()), api
}

func unavailable() error {
	return apierror.FromResponse(http.MethodPost, "/test", http.StatusServiceUnavailable, nil)
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}

func TestCreateListRefetchesBoardLists(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()
	api.lists["b1"] = []board.List{{ID: "L0", Name: "Todo", IDBoard: "b1"}}

	lists, err := q.Lists(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, lists, 1)

	_, err = q.Boards(ctx)
	require.NoError(t, err)

	created, err := q.CreateList(ctx, board.CreateListParams{BoardID: "b1", Name: "Doing"})
	require.NoError(t, err)

	lists, err = q.Lists(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"L0", created.ID}, names(lists, func(l board.List) string { return l.ID }))
	assert.Equal(t, 2, api.count("Lists:b1"))

	// Boards was not part of the mutation's row.
	_, err = q.Boards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("Boards"))
}

func TestCreateCardRefetchesListCards(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()
	api.cards["C0"] = board.Card{ID: "C0", IDList: "l2", IDBoard: "b1"}

	cards, err := q.Cards(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, cards)
	_, err = q.Cards(ctx, "l2")
	require.NoError(t, err)

	created, err := q.CreateCard(ctx, board.CreateCardParams{ListID: "l1", Name: "Ship it"})
	require.NoError(t, err)

	cards, err = q.Cards(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, names(cards, func(c board.Card) string { return c.ID }))
	assert.Equal(t, 2, api.count("Cards:l1"))

	_, err = q.Cards(ctx, "l2")
	require.NoError(t, err)
	assert.Equal(t, 1, api.count("Cards:l2"))
}

func TestMoveCardRefreshesSourceAndDestination(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()
	api.cards["C1"] = board.Card{ID: "C1", IDList: "l1", IDBoard: "b1"}

	_, err := q.Card(ctx, "C1")
	require.NoError(t, err)
	for _, id := range []string{"l1", "l2", "l3"} {
		_, err := q.Cards(ctx, id)
		require.NoError(t, err)
	}

	_, err = q.MoveCard(ctx, "C1", board.MoveCardParams{ListID: "l2"})
	require.NoError(t, err)

	src, err := q.Cards(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, src)
	dst, err := q.Cards(ctx, "l2")
	require.NoError(t, err)
	assert.Len(t, dst, 1)
	_, err = q.Cards(ctx, "l3")
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("Cards:l1"))
	assert.Equal(t, 2, api.count("Cards:l2"))
	assert.Equal(t, 1, api.count("Cards:l3"))
}

func TestAddCardMemberLeavesListsAlone(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()
	api.cards["C1"] = board.Card{ID: "C1", IDList: "l1", IDBoard: "b1"}

	_, err := q.Card(ctx, "C1")
	require.NoError(t, err)
	_, err = q.Cards(ctx, "l1")
	require.NoError(t, err)

	require.NoError(t, q.AddCardMember(ctx, "C1", "m1"))

	card, err := q.Card(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, card.IDMembers)
	_, err = q.Cards(ctx, "l1")
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("Card:C1"))
	assert.Equal(t, 1, api.count("Cards:l1"))
}

func TestBadgeChangesRefetchListCards(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(context.Context, *Client) error
		want   board.CardBadges
	}{
		{
			name: "comment",
			mutate: func(ctx context.Context, q *Client) error {
				_, err := q.AddComment(ctx, "C1", "looks good")
				return err
			},
			want: board.CardBadges{Comments: 1, CheckItems: 1},
		},
		{
			name: "create check item",
			mutate: func(ctx context.Context, q *Client) error {
				_, err := q.CreateCheckItem(ctx, board.CreateCheckItemParams{ChecklistID: "cl1", Name: "deploy"})
				return err
			},
			want: board.CardBadges{CheckItems: 2},
		},
		{
			name: "check an item",
			mutate: func(ctx context.Context, q *Client) error {
				_, err := q.UpdateCheckItem(ctx, "C1", "ci1", board.UpdateCheckItemParams{Checked: board.Ptr(true)})
				return err
			},
			want: board.CardBadges{CheckItems: 1, CheckItemsChecked: 1},
		},
		{
			name: "delete check item",
			mutate: func(ctx context.Context, q *Client) error {
				return q.DeleteCheckItem(ctx, "cl1", "ci1")
			},
			want: board.CardBadges{},
		},
		{
			name: "delete checklist",
			mutate: func(ctx context.Context, q *Client) error {
				return q.DeleteChecklist(ctx, "cl1")
			},
			want: board.CardBadges{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, api := newTestClient(t)
			ctx := context.Background()
			api.cards["C1"] = board.Card{ID: "C1", IDList: "l1", IDBoard: "b1", Badges: &board.CardBadges{CheckItems: 1}}
			api.cards["C2"] = board.Card{ID: "C2", IDList: "l2", IDBoard: "b1"}
			api.checklists["cl1"] = board.Checklist{
				ID:         "cl1",
				IDCard:     "C1",
				CheckItems: []board.CheckItem{{ID: "ci1", IDChecklist: "cl1", Name: "write tests"}},
			}

			_, err := q.Card(ctx, "C1")
			require.NoError(t, err)
			_, err = q.Checklist(ctx, "cl1")
			require.NoError(t, err)
			for _, id := range []string{"l1", "l2"} {
				_, err := q.Cards(ctx, id)
				require.NoError(t, err)
			}

			require.NoError(t, tc.mutate(ctx, q))

			cards, err := q.Cards(ctx, "l1")
			require.NoError(t, err)
			require.Len(t, cards, 1)
			require.NotNil(t, cards[0].Badges)
			assert.Equal(t, tc.want, *cards[0].Badges)
			assert.Equal(t, 2, api.count("Cards:l1"))

			// The card's location is known, so other lists keep their data.
			_, err = q.Cards(ctx, "l2")
			require.NoError(t, err)
			assert.Equal(t, 1, api.count("Cards:l2"))
		})
	}
}

func TestFailedMutationKeepsCache(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()

	_, err := q.Lists(ctx, "b1")
	require.NoError(t, err)

	api.failOn["CreateList"] = apierror.FromResponse(http.MethodPost, "/lists", http.StatusBadRequest, nil)
	_, err = q.CreateList(ctx, board.CreateListParams{BoardID: "b1", Name: "x"})
	require.ErrorIs(t, err, apierror.ErrClient)

	assert.Equal(t, cache.Fresh, q.Cache().State(BoardLists("b1")))
}

func TestCreatesAreNotRetried(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()
	api.cards["C1"] = board.Card{ID: "C1", IDList: "l1"}
	api.failOn["CreateCard"] = unavailable()
	api.failOn["UpdateCard"] = unavailable()

	_, err := q.CreateCard(ctx, board.CreateCardParams{ListID: "l1"})
	require.Error(t, err)
	assert.Equal(t, 1, api.count("CreateCard"))

	name := "renamed"
	_, err = q.UpdateCard(ctx, "C1", board.UpdateCardParams{Name: &name})
	require.Error(t, err)
	assert.Equal(t, 2, api.count("UpdateCard"))
}

func TestWatchSessionClearsOnLogout(t *testing.T) {
	q, api := newTestClient(t)
	ctx := context.Background()
	store := auth.NewTokenStore(inmemory.NewInMemoryStore(), zerolog.Nop())
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.SetAuth(ctx, "tok-1", nil))

	unsubscribe := q.WatchSession(store)
	defer unsubscribe()

	_, err := q.Boards(ctx)
	require.NoError(t, err)

	// Attaching the profile keeps the token, and the cache.
	require.NoError(t, store.SetUser(ctx, &board.Member{ID: "m1"}))
	assert.Equal(t, 1, q.Cache().Len())

	require.NoError(t, store.ClearAuth(ctx))
	assert.Equal(t, 0, q.Cache().Len())

	require.NoError(t, store.SetAuth(ctx, "tok-2", nil))
	_, err = q.Boards(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.count("Boards"))
}

func TestWatchSessionClearsOnUnauthorized(t *testing.T) {
	q, _ := newTestClient(t)
	ctx := context.Background()
	store := auth.NewTokenStore(inmemory.NewInMemoryStore(), zerolog.Nop())
	require.NoError(t, store.SetAuth(ctx, "tok-1", nil))
	defer q.WatchSession(store)()

	_, err := q.Boards(ctx)
	require.NoError(t, err)

	require.True(t, store.Invalidate(ctx, "tok-1"))
	assert.Equal(t, cache.Absent, q.Cache().State(Boards()))
}
