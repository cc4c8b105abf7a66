package trelloClient

import (
	"context"
	"fmt"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

// Lists returns the open lists of a board, in position order.
func (tc *TrelloClient) Lists(ctx context.Context, boardID string) ([]bc.List, error) {
	if err := bc.Required("idBoard", boardID); err != nil {
		return nil, err
	}
	var out []bc.List
	args := trello.Arguments{"filter": "open"}
	if err := tc.http.Get(ctx, endpoint("/boards/%s/lists", boardID), args.ToURLValues(), &out); err != nil {
		return nil, fmt.Errorf("failed to get lists: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) List(ctx context.Context, id string) (bc.List, error) {
	var out bc.List
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := tc.http.Get(ctx, endpoint("/lists/%s", id), nil, &out); err != nil {
		return out, fmt.Errorf("failed to get list: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) CreateList(ctx context.Context, p bc.CreateListParams) (bc.List, error) {
	var out bc.List
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"idBoard": p.BoardID, "name": p.Name}
	setNonEmpty(args, "pos", p.Pos)
	if err := tc.http.Post(ctx, "/lists", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create list: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateList(ctx context.Context, id string, p bc.UpdateListParams) (bc.List, error) {
	var out bc.List
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Defaults()
	setString(args, "name", p.Name)
	setBool(args, "closed", p.Closed)
	setString(args, "pos", p.Pos)
	if err := tc.http.Put(ctx, endpoint("/lists/%s", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update list: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) ArchiveList(ctx context.Context, id string) (bc.List, error) {
	var out bc.List
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Arguments{"value": "true"}
	if err := tc.http.Put(ctx, endpoint("/lists/%s/closed", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to archive list: %w", err)
	}
	return out, nil
}

// DeleteList archives the list. Trello has no endpoint that removes one.
func (tc *TrelloClient) DeleteList(ctx context.Context, id string) error {
	_, err := tc.ArchiveList(ctx, id)
	return err
}

func (tc *TrelloClient) MoveList(ctx context.Context, id, boardID string) (bc.List, error) {
	var out bc.List
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := bc.Required("idBoard", boardID); err != nil {
		return out, err
	}
	args := trello.Arguments{"value": boardID}
	if err := tc.http.Put(ctx, endpoint("/lists/%s/idBoard", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to move list: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) MoveAllCards(ctx context.Context, id, targetBoardID, targetListID string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := bc.Required("idBoard", targetBoardID); err != nil {
		return err
	}
	if err := bc.Required("idList", targetListID); err != nil {
		return err
	}
	args := trello.Arguments{"idBoard": targetBoardID, "idList": targetListID}
	if err := tc.http.Post(ctx, endpoint("/lists/%s/moveAllCards", id), args.ToURLValues(), nil); err != nil {
		return fmt.Errorf("failed to move cards: %w", err)
	}
	return nil
}

func (tc *TrelloClient) ArchiveAllCards(ctx context.Context, id string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := tc.http.Post(ctx, endpoint("/lists/%s/archiveAllCards", id), nil, nil); err != nil {
		return fmt.Errorf("failed to archive cards: %w", err)
	}
	return nil
}
