package query

import (
	"sort"

	"github.com/egobogo/trellosync/internal/cache"
)

// Op names a mutation.
type Op string

const (
	OpCreateWorkspace Op = "createWorkspace"
	OpUpdateWorkspace Op = "updateWorkspace"
	OpDeleteWorkspace Op = "deleteWorkspace"

	OpCreateBoard Op = "createBoard"
	OpUpdateBoard Op = "updateBoard"
	OpCloseBoard  Op = "closeBoard"
	OpDeleteBoard Op = "deleteBoard"

	OpCreateList      Op = "createList"
	OpUpdateList      Op = "updateList"
	OpArchiveList     Op = "archiveList"
	OpDeleteList      Op = "deleteList"
	OpMoveList        Op = "moveList"
	OpMoveAllCards    Op = "moveAllCards"
	OpArchiveAllCards Op = "archiveAllCards"

	OpCreateCard       Op = "createCard"
	OpUpdateCard       Op = "updateCard"
	OpDeleteCard       Op = "deleteCard"
	OpArchiveCard      Op = "archiveCard"
	OpMoveCard         Op = "moveCard"
	OpAddCardMember    Op = "addCardMember"
	OpRemoveCardMember Op = "removeCardMember"
	OpAddCardLabel     Op = "addCardLabel"
	OpRemoveCardLabel  Op = "removeCardLabel"
	OpAddComment       Op = "addComment"

	OpCreateLabel Op = "createLabel"
	OpUpdateLabel Op = "updateLabel"
	OpDeleteLabel Op = "deleteLabel"

	OpCreateChecklist Op = "createChecklist"
	OpUpdateChecklist Op = "updateChecklist"
	OpDeleteChecklist Op = "deleteChecklist"
	OpCreateCheckItem Op = "createCheckItem"
	OpUpdateCheckItem Op = "updateCheckItem"
	OpDeleteCheckItem Op = "deleteCheckItem"

	OpUpdateProfile Op = "updateProfile"
)

// Targets are the ids a mutation touched. The plain fields describe where
// the entity was before the mutation; the To fields where a move put it.
// An unknown plain id widens the invalidation to the whole family, so a
// missing id costs refetches, never stale data.
type Targets struct {
	WorkspaceID string
	BoardID     string
	ListID      string
	CardID      string
	ChecklistID string
	MemberID    string

	ToWorkspaceID string
	ToBoardID     string
	ToListID      string
}

type rule struct {
	// idempotent mutations get the default retry budget; the rest none.
	idempotent bool
	keys       func(t Targets) []cache.Key
}

// scoped is the key kind/id/rest..., or the whole kind family when id is unknown.
func scoped(kind, id string, rest ...string) cache.Key {
	if id == "" {
		return cache.Key{kind}
	}
	return append(cache.Key{kind, id}, rest...)
}

// moved is like scoped for a move destination: no destination, no key.
func moved(kind, id string, rest ...string) cache.Key {
	if id == "" {
		return nil
	}
	return append(cache.Key{kind, id}, rest...)
}

// rules is the single source of truth for what each mutation makes stale.
var rules = map[Op]rule{
	OpCreateWorkspace: {keys: func(t Targets) []cache.Key {
		return []cache.Key{Workspaces(), Me()}
	}},
	OpUpdateWorkspace: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(workspaceFamily, t.WorkspaceID), Workspaces()}
	}},
	OpDeleteWorkspace: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(workspaceFamily, t.WorkspaceID), Workspaces(), Boards(), Me()}
	}},

	OpCreateBoard: {keys: func(t Targets) []cache.Key {
		return []cache.Key{Boards(), scoped(workspaceFamily, t.WorkspaceID, "boards")}
	}},
	OpUpdateBoard: {idempotent: true, keys: boardChanged},
	OpCloseBoard:  {idempotent: true, keys: boardChanged},
	OpDeleteBoard: {idempotent: true, keys: func(t Targets) []cache.Key {
		// Every list and card of the board is gone; their ids are unknown.
		return append(boardChanged(t), cache.Key{listFamily}, cache.Key{cardFamily}, cache.Key{checklistFamily})
	}},

	OpCreateList: {keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(boardFamily, t.BoardID, "lists")}
	}},
	OpUpdateList: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(listFamily, t.ListID), scoped(boardFamily, t.BoardID, "lists")}
	}},
	OpArchiveList: {idempotent: true, keys: listRemoved},
	OpDeleteList:  {idempotent: true, keys: listRemoved},
	OpMoveList: {idempotent: true, keys: func(t Targets) []cache.Key {
		return append(listRemoved(t),
			moved(boardFamily, t.ToBoardID, "lists"),
			moved(boardFamily, t.ToBoardID, "cards"),
			// The cards moved with the list; their detail carries idBoard.
			cache.Key{cardFamily},
		)
	}},
	OpMoveAllCards: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{
			scoped(listFamily, t.ListID, "cards"),
			scoped(boardFamily, t.BoardID, "cards"),
			moved(listFamily, t.ToListID, "cards"),
			moved(boardFamily, t.ToBoardID, "cards"),
			cache.Key{cardFamily},
		}
	}},
	OpArchiveAllCards: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{
			scoped(listFamily, t.ListID, "cards"),
			scoped(boardFamily, t.BoardID, "cards"),
			cache.Key{cardFamily},
		}
	}},

	OpCreateCard: {keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(listFamily, t.ListID, "cards"), scoped(boardFamily, t.BoardID, "cards")}
	}},
	OpUpdateCard:  {idempotent: true, keys: cardMoved},
	OpMoveCard:    {idempotent: true, keys: cardMoved},
	OpDeleteCard:  {idempotent: true, keys: cardInCollections},
	OpArchiveCard: {idempotent: true, keys: cardInCollections},
	// Members are not embedded in list or board summaries.
	OpAddCardMember: {keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(cardFamily, t.CardID)}
	}},
	OpRemoveCardMember: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(cardFamily, t.CardID)}
	}},
	// Labels are embedded in card summaries.
	OpAddCardLabel:    {keys: cardInCollections},
	OpRemoveCardLabel: {idempotent: true, keys: cardInCollections},
	// Comment and check item counts are badges on card summaries.
	OpAddComment: {keys: cardInCollections},

	OpCreateLabel: {keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(boardFamily, t.BoardID, "labels")}
	}},
	OpUpdateLabel: {idempotent: true, keys: labelChanged},
	OpDeleteLabel: {idempotent: true, keys: labelChanged},

	OpCreateChecklist: {keys: cardInCollections},
	OpUpdateChecklist: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{scoped(checklistFamily, t.ChecklistID), scoped(cardFamily, t.CardID, "checklists")}
	}},
	OpDeleteChecklist: {idempotent: true, keys: checkItemsChanged},
	OpCreateCheckItem: {keys: checkItemsChanged},
	OpUpdateCheckItem: {idempotent: true, keys: checkItemsChanged},
	OpDeleteCheckItem: {idempotent: true, keys: checkItemsChanged},

	OpUpdateProfile: {idempotent: true, keys: func(t Targets) []cache.Key {
		return []cache.Key{Me(), scoped(memberFamily, t.MemberID)}
	}},
}

func boardChanged(t Targets) []cache.Key {
	return []cache.Key{
		scoped(boardFamily, t.BoardID),
		Boards(),
		scoped(workspaceFamily, t.WorkspaceID, "boards"),
		moved(workspaceFamily, t.ToWorkspaceID, "boards"),
	}
}

func listRemoved(t Targets) []cache.Key {
	return []cache.Key{
		scoped(listFamily, t.ListID),
		scoped(boardFamily, t.BoardID, "lists"),
		scoped(boardFamily, t.BoardID, "cards"),
	}
}

func cardInCollections(t Targets) []cache.Key {
	return []cache.Key{
		scoped(cardFamily, t.CardID),
		scoped(listFamily, t.ListID, "cards"),
		scoped(boardFamily, t.BoardID, "cards"),
	}
}

func cardMoved(t Targets) []cache.Key {
	return append(cardInCollections(t),
		moved(listFamily, t.ToListID, "cards"),
		moved(boardFamily, t.ToBoardID, "cards"),
	)
}

// labelChanged covers every card summary that may embed the label.
func labelChanged(t Targets) []cache.Key {
	return []cache.Key{
		scoped(boardFamily, t.BoardID, "labels"),
		scoped(boardFamily, t.BoardID, "cards"),
		cache.Key{listFamily},
		cache.Key{cardFamily},
	}
}

// checkItemsChanged covers the checklist and every card summary whose badges
// count its items.
func checkItemsChanged(t Targets) []cache.Key {
	return append([]cache.Key{scoped(checklistFamily, t.ChecklistID)}, cardInCollections(t)...)
}

// Invalidations returns the key prefixes op makes stale, without duplicates
// and without prefixes already covered by a shorter one.
func Invalidations(op Op, t Targets) []cache.Key {
	r, ok := rules[op]
	if !ok {
		return nil
	}
	var keys []cache.Key
	for _, k := range r.keys(t) {
		if len(k) > 0 {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return len(keys[i]) < len(keys[j]) })

	var out []cache.Key
	for _, k := range keys {
		covered := false
		for _, p := range out {
			if k.HasPrefix(p) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, k)
		}
	}
	return out
}

// Retryable reports whether op may be retried automatically. Creates,
// comments and relation adds are not: a retry after a lost response would
// duplicate the resource or fail on the existing relation.
func Retryable(op Op) bool {
	return rules[op].idempotent
}

// Ops lists every mutation with a rule.
func Ops() []Op {
	ops := make([]Op, 0, len(rules))
	for op := range rules {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
