package trelloClient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

// Boards returns the open boards of the authenticated member.
func (tc *TrelloClient) Boards(ctx context.Context) ([]bc.Board, error) {
	var out []bc.Board
	args := trello.Arguments{"filter": "open"}
	if err := tc.http.Get(ctx, "/members/me/boards", args.ToURLValues(), &out); err != nil {
		return nil, fmt.Errorf("failed to get boards: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) Board(ctx context.Context, id string) (bc.Board, error) {
	var out bc.Board
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := tc.http.Get(ctx, endpoint("/boards/%s", id), nil, &out); err != nil {
		return out, fmt.Errorf("failed to get board: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) CreateBoard(ctx context.Context, p bc.CreateBoardParams) (bc.Board, error) {
	var out bc.Board
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"name": p.Name}
	setNonEmpty(args, "desc", p.Desc)
	setNonEmpty(args, "idOrganization", p.WorkspaceID)
	setNonEmpty(args, "prefs_background", p.Background)
	if p.DefaultLists != nil {
		args["defaultLists"] = strconv.FormatBool(*p.DefaultLists)
	}
	if err := tc.http.Post(ctx, "/boards", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create board: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateBoard(ctx context.Context, id string, p bc.UpdateBoardParams) (bc.Board, error) {
	var out bc.Board
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Defaults()
	setString(args, "name", p.Name)
	setString(args, "desc", p.Desc)
	setBool(args, "closed", p.Closed)
	setString(args, "idOrganization", p.WorkspaceID)
	setString(args, "prefs/background", p.Background)
	if err := tc.http.Put(ctx, endpoint("/boards/%s", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update board: %w", err)
	}
	return out, nil
}

// CloseBoard archives the board.
func (tc *TrelloClient) CloseBoard(ctx context.Context, id string) (bc.Board, error) {
	return tc.UpdateBoard(ctx, id, bc.UpdateBoardParams{Closed: bc.Ptr(true)})
}

func (tc *TrelloClient) DeleteBoard(ctx context.Context, id string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/boards/%s", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

func (tc *TrelloClient) BoardMembers(ctx context.Context, id string) ([]bc.Member, error) {
	if err := bc.Required("id", id); err != nil {
		return nil, err
	}
	var out []bc.Member
	if err := tc.http.Get(ctx, endpoint("/boards/%s/members", id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get board members: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) BoardCards(ctx context.Context, id string) ([]bc.Card, error) {
	if err := bc.Required("id", id); err != nil {
		return nil, err
	}
	var out []bc.Card
	if err := tc.http.Get(ctx, endpoint("/boards/%s/cards", id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get board cards: %w", err)
	}
	return out, nil
}
