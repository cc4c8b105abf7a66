package trelloClient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

func (tc *TrelloClient) Checklists(ctx context.Context, cardID string) ([]bc.Checklist, error) {
	if err := bc.Required("idCard", cardID); err != nil {
		return nil, err
	}
	var out []bc.Checklist
	if err := tc.http.Get(ctx, endpoint("/cards/%s/checklists", cardID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get checklists: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) Checklist(ctx context.Context, id string) (bc.Checklist, error) {
	var out bc.Checklist
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := tc.http.Get(ctx, endpoint("/checklists/%s", id), nil, &out); err != nil {
		return out, fmt.Errorf("failed to get checklist: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) CreateChecklist(ctx context.Context, p bc.CreateChecklistParams) (bc.Checklist, error) {
	var out bc.Checklist
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"idCard": p.CardID}
	setNonEmpty(args, "name", p.Name)
	setNonEmpty(args, "pos", p.Pos)
	if err := tc.http.Post(ctx, "/checklists", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create checklist: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateChecklist(ctx context.Context, id, name string) (bc.Checklist, error) {
	var out bc.Checklist
	if err := requireBoth("id", id, "name", name); err != nil {
		return out, err
	}
	args := trello.Arguments{"name": name}
	if err := tc.http.Put(ctx, endpoint("/checklists/%s", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update checklist: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) DeleteChecklist(ctx context.Context, id string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/checklists/%s", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete checklist: %w", err)
	}
	return nil
}

func (tc *TrelloClient) CreateCheckItem(ctx context.Context, p bc.CreateCheckItemParams) (bc.CheckItem, error) {
	var out bc.CheckItem
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"name": p.Name, "checked": strconv.FormatBool(p.Checked)}
	setNonEmpty(args, "pos", p.Pos)
	if err := tc.http.Post(ctx, endpoint("/checklists/%s/checkItems", p.ChecklistID), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create check item: %w", err)
	}
	return out, nil
}

// UpdateCheckItem goes through the card: Trello only exposes item updates there.
func (tc *TrelloClient) UpdateCheckItem(ctx context.Context, cardID, checkItemID string, p bc.UpdateCheckItemParams) (bc.CheckItem, error) {
	var out bc.CheckItem
	if err := requireBoth("idCard", cardID, "idCheckItem", checkItemID); err != nil {
		return out, err
	}
	args := trello.Defaults()
	setString(args, "name", p.Name)
	setString(args, "pos", p.Pos)
	if p.Checked != nil {
		args["state"] = bc.CheckItemIncomplete
		if *p.Checked {
			args["state"] = bc.CheckItemComplete
		}
	}
	if err := tc.http.Put(ctx, endpoint("/cards/%s/checkItem/%s", cardID, checkItemID), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update check item: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) DeleteCheckItem(ctx context.Context, checklistID, checkItemID string) error {
	if err := requireBoth("idChecklist", checklistID, "idCheckItem", checkItemID); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/checklists/%s/checkItems/%s", checklistID, checkItemID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete check item: %w", err)
	}
	return nil
}
