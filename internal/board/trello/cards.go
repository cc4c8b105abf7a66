package trelloClient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

// Cards returns the open cards of a list.
func (tc *TrelloClient) Cards(ctx context.Context, listID string) ([]bc.Card, error) {
	if err := bc.Required("idList", listID); err != nil {
		return nil, err
	}
	var out []bc.Card
	if err := tc.http.Get(ctx, endpoint("/lists/%s/cards", listID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return out, nil
}

// Card returns a card with members embedded. Labels come embedded by default.
func (tc *TrelloClient) Card(ctx context.Context, id string) (bc.Card, error) {
	var out bc.Card
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Arguments{"members": "true"}
	if err := tc.http.Get(ctx, endpoint("/cards/%s", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to get card: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) CreateCard(ctx context.Context, p bc.CreateCardParams) (bc.Card, error) {
	var out bc.Card
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"idList": p.ListID}
	setNonEmpty(args, "name", p.Name)
	setNonEmpty(args, "desc", p.Desc)
	setNonEmpty(args, "pos", p.Pos)
	if p.Due != nil {
		args["due"] = formatTime(*p.Due)
	}
	setIDs(args, "idMembers", p.MemberIDs)
	setIDs(args, "idLabels", p.LabelIDs)
	if err := tc.http.Post(ctx, "/cards", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create card: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateCard(ctx context.Context, id string, p bc.UpdateCardParams) (bc.Card, error) {
	var out bc.Card
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Defaults()
	setString(args, "name", p.Name)
	setString(args, "desc", p.Desc)
	setBool(args, "closed", p.Closed)
	setString(args, "idList", p.ListID)
	setString(args, "idBoard", p.BoardID)
	setString(args, "pos", p.Pos)
	setBool(args, "dueComplete", p.DueComplete)
	switch {
	case p.ClearDue:
		args["due"] = "null"
	case p.Due != nil:
		args["due"] = formatTime(*p.Due)
	}
	err := tc.putCard(ctx, id, args, &out, "update")
	return out, err
}

func (tc *TrelloClient) putCard(ctx context.Context, id string, args trello.Arguments, out *bc.Card, action string) error {
	if err := tc.http.Put(ctx, endpoint("/cards/%s", id), args.ToURLValues(), out); err != nil {
		return fmt.Errorf("failed to %s card: %w", action, err)
	}
	return nil
}

func (tc *TrelloClient) DeleteCard(ctx context.Context, id string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/cards/%s", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

func (tc *TrelloClient) ArchiveCard(ctx context.Context, id string) (bc.Card, error) {
	var out bc.Card
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	err := tc.putCard(ctx, id, trello.Arguments{"closed": "true"}, &out, "archive")
	return out, err
}

// MoveCard changes the card's list, and its board when BoardID is set.
func (tc *TrelloClient) MoveCard(ctx context.Context, id string, p bc.MoveCardParams) (bc.Card, error) {
	var out bc.Card
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"idList": p.ListID}
	setNonEmpty(args, "idBoard", p.BoardID)
	setNonEmpty(args, "pos", p.Pos)
	err := tc.putCard(ctx, id, args, &out, "move")
	return out, err
}

func (tc *TrelloClient) AddCardMember(ctx context.Context, cardID, memberID string) error {
	if err := requireBoth("idCard", cardID, "idMember", memberID); err != nil {
		return err
	}
	args := trello.Arguments{"value": memberID}
	if err := tc.http.Post(ctx, endpoint("/cards/%s/idMembers", cardID), args.ToURLValues(), nil); err != nil {
		return fmt.Errorf("failed to assign member: %w", err)
	}
	return nil
}

func (tc *TrelloClient) RemoveCardMember(ctx context.Context, cardID, memberID string) error {
	if err := requireBoth("idCard", cardID, "idMember", memberID); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/cards/%s/idMembers/%s", cardID, memberID), nil, nil); err != nil {
		return fmt.Errorf("failed to unassign member: %w", err)
	}
	return nil
}

func (tc *TrelloClient) CardMembers(ctx context.Context, cardID string) ([]bc.Member, error) {
	if err := bc.Required("idCard", cardID); err != nil {
		return nil, err
	}
	var out []bc.Member
	if err := tc.http.Get(ctx, endpoint("/cards/%s/members", cardID), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get card members: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) AddCardLabel(ctx context.Context, cardID, labelID string) error {
	if err := requireBoth("idCard", cardID, "idLabel", labelID); err != nil {
		return err
	}
	args := trello.Arguments{"value": labelID}
	if err := tc.http.Post(ctx, endpoint("/cards/%s/idLabels", cardID), args.ToURLValues(), nil); err != nil {
		return fmt.Errorf("failed to add label: %w", err)
	}
	return nil
}

func (tc *TrelloClient) RemoveCardLabel(ctx context.Context, cardID, labelID string) error {
	if err := requireBoth("idCard", cardID, "idLabel", labelID); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/cards/%s/idLabels/%s", cardID, labelID), nil, nil); err != nil {
		return fmt.Errorf("failed to remove label: %w", err)
	}
	return nil
}

// Comments returns the commentCard actions of a card, newest first.
func (tc *TrelloClient) Comments(ctx context.Context, cardID string) ([]bc.Comment, error) {
	if err := bc.Required("idCard", cardID); err != nil {
		return nil, err
	}
	var out []bc.Comment
	args := trello.Arguments{"filter": "commentCard"}
	if err := tc.http.Get(ctx, endpoint("/cards/%s/actions", cardID), args.ToURLValues(), &out); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	return out, nil
}

// AddComment posts the text as a form body, so long comments stay out of the URL.
func (tc *TrelloClient) AddComment(ctx context.Context, cardID, text string) (bc.Comment, error) {
	var out bc.Comment
	if err := requireBoth("idCard", cardID, "text", text); err != nil {
		return out, err
	}
	form := url.Values{"text": {text}}
	if err := tc.http.PostForm(ctx, endpoint("/cards/%s/actions/comments", cardID), form, &out); err != nil {
		return out, fmt.Errorf("failed to post comment: %w", err)
	}
	return out, nil
}

func requireBoth(field1, value1, field2, value2 string) error {
	if err := bc.Required(field1, value1); err != nil {
		return err
	}
	return bc.Required(field2, value2)
}
