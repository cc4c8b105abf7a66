package board

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput is the sentinel behind every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError rejects a request before it is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Required returns a ValidationError when value is empty.
func Required(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateWorkspaceParams creates an organization.
type CreateWorkspaceParams struct {
	DisplayName string
	Desc        string
	Website     string
}

func (p CreateWorkspaceParams) Validate() error {
	return Required("displayName", p.DisplayName)
}

// UpdateWorkspaceParams is a partial update; nil fields are left alone.
type UpdateWorkspaceParams struct {
	DisplayName *string
	Name        *string
	Desc        *string
	Website     *string
}

// CreateBoardParams creates a board, optionally inside a workspace.
type CreateBoardParams struct {
	Name        string
	Desc        string
	WorkspaceID string
	// DefaultLists nil lets Trello decide (it creates To Do/Doing/Done).
	DefaultLists *bool
	Background   string
}

func (p CreateBoardParams) Validate() error {
	return Required("name", p.Name)
}

// UpdateBoardParams is a partial update.
type UpdateBoardParams struct {
	Name        *string
	Desc        *string
	Closed      *bool
	WorkspaceID *string
	Background  *string
}

// CreateListParams creates a list on a board.
type CreateListParams struct {
	BoardID string
	Name    string
	// Pos is "top", "bottom" or a positive number.
	Pos string
}

func (p CreateListParams) Validate() error {
	return firstError(Required("idBoard", p.BoardID), Required("name", p.Name))
}

// UpdateListParams is a partial update.
type UpdateListParams struct {
	Name   *string
	Closed *bool
	Pos    *string
}

// CreateCardParams creates a card in a list.
type CreateCardParams struct {
	ListID    string
	Name      string
	Desc      string
	Pos       string
	Due       *time.Time
	MemberIDs []string
	LabelIDs  []string
}

func (p CreateCardParams) Validate() error {
	return Required("idList", p.ListID)
}

// UpdateCardParams is a partial update. Moving a card is an update of ListID
// (and BoardID when it crosses boards).
type UpdateCardParams struct {
	Name        *string
	Desc        *string
	Closed      *bool
	ListID      *string
	BoardID     *string
	Pos         *string
	Due         *time.Time
	ClearDue    bool
	DueComplete *bool
}

// MoveCardParams moves a card to another list.
type MoveCardParams struct {
	ListID string
	// BoardID is only needed when the target list is on another board.
	BoardID string
	Pos     string
}

func (p MoveCardParams) Validate() error {
	return Required("idList", p.ListID)
}

// CreateLabelParams creates a label on a board.
type CreateLabelParams struct {
	BoardID string
	Name    string
	Color   string
}

func (p CreateLabelParams) Validate() error {
	return Required("idBoard", p.BoardID)
}

// UpdateLabelParams is a partial update.
type UpdateLabelParams struct {
	Name  *string
	Color *string
}

// CreateChecklistParams creates a checklist on a card.
type CreateChecklistParams struct {
	CardID string
	Name   string
	Pos    string
}

func (p CreateChecklistParams) Validate() error {
	return Required("idCard", p.CardID)
}

// CreateCheckItemParams adds an item to a checklist.
type CreateCheckItemParams struct {
	ChecklistID string
	Name        string
	Pos         string
	Checked     bool
}

func (p CreateCheckItemParams) Validate() error {
	return firstError(Required("idChecklist", p.ChecklistID), Required("name", p.Name))
}

// UpdateCheckItemParams is a partial update of a check item on a card.
type UpdateCheckItemParams struct {
	Name    *string
	Checked *bool
	Pos     *string
}

// UpdateProfileParams updates the authenticated member.
type UpdateProfileParams struct {
	FullName *string
	Initials *string
	Bio      *string
}

// Ptr returns a pointer to v, for filling partial-update params.
func Ptr[T any](v T) *T {
	return &v
}
