package trelloClient

import (
	"context"
	"fmt"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

func (tc *TrelloClient) Labels(ctx context.Context, boardID string) ([]bc.Label, error) {
	if err := bc.Required("idBoard", boardID); err != nil {
		return nil, err
	}
	var out []bc.Label
	if err := tc.http.Get(ctx, endpoint("/boards/%s/labels", boardID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) CreateLabel(ctx context.Context, p bc.CreateLabelParams) (bc.Label, error) {
	var out bc.Label
	if err := p.Validate(); err != nil {
		return out, err
	}
	// Trello requires both fields; an empty color is a colorless label.
	args := trello.Arguments{"idBoard": p.BoardID, "name": p.Name, "color": p.Color}
	if p.Color == "" {
		args["color"] = "null"
	}
	if err := tc.http.Post(ctx, "/labels", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create label: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateLabel(ctx context.Context, id string, p bc.UpdateLabelParams) (bc.Label, error) {
	var out bc.Label
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Defaults()
	setString(args, "name", p.Name)
	setString(args, "color", p.Color)
	if err := tc.http.Put(ctx, endpoint("/labels/%s", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update label: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) DeleteLabel(ctx context.Context, id string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/labels/%s", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}
