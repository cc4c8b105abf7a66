package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/egobogo/trellosync/internal/cache"
)

var allOps = []Op{
	OpCreateWorkspace, OpUpdateWorkspace, OpDeleteWorkspace,
	OpCreateBoard, OpUpdateBoard, OpCloseBoard, OpDeleteBoard,
	OpCreateList, OpUpdateList, OpArchiveList, OpDeleteList, OpMoveList, OpMoveAllCards, OpArchiveAllCards,
	OpCreateCard, OpUpdateCard, OpDeleteCard, OpArchiveCard, OpMoveCard,
	OpAddCardMember, OpRemoveCardMember, OpAddCardLabel, OpRemoveCardLabel, OpAddComment,
	OpCreateLabel, OpUpdateLabel, OpDeleteLabel,
	OpCreateChecklist, OpUpdateChecklist, OpDeleteChecklist,
	OpCreateCheckItem, OpUpdateCheckItem, OpDeleteCheckItem,
	OpUpdateProfile,
}

func TestEveryOpHasRule(t *testing.T) {
	assert.ElementsMatch(t, allOps, Ops())
	for _, op := range allOps {
		assert.NotEmpty(t, Invalidations(op, Targets{}), "op %s invalidates nothing", op)
	}
	assert.Nil(t, Invalidations(Op("unknown"), Targets{CardID: "c1"}))
}

func TestInvalidations(t *testing.T) {
	cases := []struct {
		name string
		op   Op
		t    Targets
		want []cache.Key
	}{
		{
			name: "create list refreshes the board's lists only",
			op:   OpCreateList,
			t:    Targets{BoardID: "b1", ListID: "l9"},
			want: []cache.Key{BoardLists("b1")},
		},
		{
			name: "create card refreshes the list and board card collections",
			op:   OpCreateCard,
			t:    Targets{BoardID: "b1", ListID: "l1", CardID: "c1"},
			want: []cache.Key{ListCards("l1"), BoardCards("b1")},
		},
		{
			name: "adding a member touches the card only",
			op:   OpAddCardMember,
			t:    Targets{CardID: "c1", MemberID: "m1", ListID: "l1"},
			want: []cache.Key{Card("c1")},
		},
		{
			name: "moving a card refreshes source and destination",
			op:   OpMoveCard,
			t:    Targets{CardID: "c1", ListID: "l1", BoardID: "b1", ToListID: "l2"},
			want: []cache.Key{Card("c1"), ListCards("l1"), BoardCards("b1"), ListCards("l2")},
		},
		{
			name: "profile update refreshes me and the member",
			op:   OpUpdateProfile,
			t:    Targets{MemberID: "m1"},
			want: []cache.Key{Me(), Member("m1")},
		},
		{
			name: "deleting a board drops everything under it",
			op:   OpDeleteBoard,
			t:    Targets{BoardID: "b1", WorkspaceID: "w1"},
			want: []cache.Key{
				Boards(), {listFamily}, {cardFamily}, {checklistFamily},
				Board("b1"), WorkspaceBoards("w1"),
			},
		},
		{
			name: "check item change refreshes the checklist and the card badges",
			op:   OpUpdateCheckItem,
			t:    Targets{ChecklistID: "cl1", CardID: "c1", ListID: "l1", BoardID: "b1"},
			want: []cache.Key{Checklist("cl1"), Card("c1"), ListCards("l1"), BoardCards("b1")},
		},
		{
			name: "comment refreshes the card and the summaries carrying its badges",
			op:   OpAddComment,
			t:    Targets{CardID: "c1", ListID: "l1", BoardID: "b1"},
			want: []cache.Key{Card("c1"), ListCards("l1"), BoardCards("b1")},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Invalidations(tc.op, tc.t))
		})
	}
}

func TestUnknownTargetsWidenToFamily(t *testing.T) {
	assert.Equal(t,
		[]cache.Key{{listFamily}, {boardFamily}},
		Invalidations(OpCreateCard, Targets{}),
	)
	assert.Equal(t,
		[]cache.Key{{listFamily}, {boardFamily}, Card("c1")},
		Invalidations(OpDeleteCard, Targets{CardID: "c1"}),
	)
}

func TestCoveredPrefixesDropped(t *testing.T) {
	got := Invalidations(OpMoveAllCards, Targets{BoardID: "b1", ToListID: "l2"})
	assert.Equal(t, []cache.Key{{listFamily}, {cardFamily}, BoardCards("b1")}, got)
}

func TestRetryable(t *testing.T) {
	for _, op := range []Op{
		OpCreateWorkspace, OpCreateBoard, OpCreateList, OpCreateCard, OpCreateLabel,
		OpCreateChecklist, OpCreateCheckItem, OpAddComment, OpAddCardMember, OpAddCardLabel,
	} {
		assert.False(t, Retryable(op), "op %s", op)
	}
	for _, op := range []Op{OpUpdateCard, OpMoveCard, OpDeleteCard, OpArchiveList, OpUpdateProfile} {
		assert.True(t, Retryable(op), "op %s", op)
	}
}
