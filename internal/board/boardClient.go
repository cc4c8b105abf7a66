package board

import "context"

// WorkspaceService covers Trello organizations.
type WorkspaceService interface {
	// Workspaces returns the organizations the authenticated member belongs to.
	Workspaces(ctx context.Context) ([]Workspace, error)
	Workspace(ctx context.Context, id string) (Workspace, error)
	CreateWorkspace(ctx context.Context, p CreateWorkspaceParams) (Workspace, error)
	UpdateWorkspace(ctx context.Context, id string, p UpdateWorkspaceParams) (Workspace, error)
	DeleteWorkspace(ctx context.Context, id string) error
	// WorkspaceBoards returns the boards of an organization.
	WorkspaceBoards(ctx context.Context, id string) ([]Board, error)
	WorkspaceMembers(ctx context.Context, id string) ([]Member, error)
}

// BoardService covers boards.
type BoardService interface {
	// Boards returns the open boards of the authenticated member.
	Boards(ctx context.Context) ([]Board, error)
	Board(ctx context.Context, id string) (Board, error)
	CreateBoard(ctx context.Context, p CreateBoardParams) (Board, error)
	UpdateBoard(ctx context.Context, id string, p UpdateBoardParams) (Board, error)
	// CloseBoard archives a board; it can be reopened with UpdateBoard.
	CloseBoard(ctx context.Context, id string) (Board, error)
	DeleteBoard(ctx context.Context, id string) error
	BoardMembers(ctx context.Context, id string) ([]Member, error)
	// BoardCards returns every open card on the board.
	BoardCards(ctx context.Context, id string) ([]Card, error)
}

// ListService covers board columns.
type ListService interface {
	// Lists returns the open lists of a board.
	Lists(ctx context.Context, boardID string) ([]List, error)
	List(ctx context.Context, id string) (List, error)
	CreateList(ctx context.Context, p CreateListParams) (List, error)
	UpdateList(ctx context.Context, id string, p UpdateListParams) (List, error)
	ArchiveList(ctx context.Context, id string) (List, error)
	// DeleteList archives the list: Trello has no hard delete for lists.
	DeleteList(ctx context.Context, id string) error
	// MoveList moves a list to another board.
	MoveList(ctx context.Context, id, boardID string) (List, error)
	// MoveAllCards moves every card of a list to another list.
	MoveAllCards(ctx context.Context, id, targetBoardID, targetListID string) error
	ArchiveAllCards(ctx context.Context, id string) error
}

// CardService covers cards and their member, label and comment relations.
type CardService interface {
	// Cards returns the open cards of a list.
	Cards(ctx context.Context, listID string) ([]Card, error)
	// Card returns a card with its members and labels embedded.
	Card(ctx context.Context, id string) (Card, error)
	CreateCard(ctx context.Context, p CreateCardParams) (Card, error)
	UpdateCard(ctx context.Context, id string, p UpdateCardParams) (Card, error)
	DeleteCard(ctx context.Context, id string) error
	ArchiveCard(ctx context.Context, id string) (Card, error)
	MoveCard(ctx context.Context, id string, p MoveCardParams) (Card, error)
	AddCardMember(ctx context.Context, cardID, memberID string) error
	RemoveCardMember(ctx context.Context, cardID, memberID string) error
	CardMembers(ctx context.Context, cardID string) ([]Member, error)
	AddCardLabel(ctx context.Context, cardID, labelID string) error
	RemoveCardLabel(ctx context.Context, cardID, labelID string) error
	// Comments returns the comments of a card, newest first.
	Comments(ctx context.Context, cardID string) ([]Comment, error)
	AddComment(ctx context.Context, cardID, text string) (Comment, error)
}

// LabelService covers board labels.
type LabelService interface {
	Labels(ctx context.Context, boardID string) ([]Label, error)
	CreateLabel(ctx context.Context, p CreateLabelParams) (Label, error)
	UpdateLabel(ctx context.Context, id string, p UpdateLabelParams) (Label, error)
	DeleteLabel(ctx context.Context, id string) error
}

// ChecklistService covers checklists and their items.
type ChecklistService interface {
	Checklists(ctx context.Context, cardID string) ([]Checklist, error)
	Checklist(ctx context.Context, id string) (Checklist, error)
	CreateChecklist(ctx context.Context, p CreateChecklistParams) (Checklist, error)
	UpdateChecklist(ctx context.Context, id, name string) (Checklist, error)
	DeleteChecklist(ctx context.Context, id string) error
	CreateCheckItem(ctx context.Context, p CreateCheckItemParams) (CheckItem, error)
	UpdateCheckItem(ctx context.Context, cardID, checkItemID string, p UpdateCheckItemParams) (CheckItem, error)
	DeleteCheckItem(ctx context.Context, checklistID, checkItemID string) error
}

// MemberService covers members and the authenticated profile.
type MemberService interface {
	Me(ctx context.Context) (Member, error)
	Member(ctx context.Context, id string) (Member, error)
	UpdateProfile(ctx context.Context, p UpdateProfileParams) (Member, error)
}

// BoardClient is the main dependency injection interface for Trello connectors.
type BoardClient interface {
	WorkspaceService
	BoardService
	ListService
	CardService
	LabelService
	ChecklistService
	MemberService
}
