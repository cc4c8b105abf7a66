package trelloClient

import (
	"context"
	"fmt"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

// Me returns the member the current token belongs to.
func (tc *TrelloClient) Me(ctx context.Context) (bc.Member, error) {
	var out bc.Member
	if err := tc.http.Get(ctx, "/members/me", nil, &out); err != nil {
		return out, fmt.Errorf("failed to get current member: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) Member(ctx context.Context, id string) (bc.Member, error) {
	var out bc.Member
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := tc.http.Get(ctx, endpoint("/members/%s", id), nil, &out); err != nil {
		return out, fmt.Errorf("failed to get member: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateProfile(ctx context.Context, p bc.UpdateProfileParams) (bc.Member, error) {
	var out bc.Member
	args := trello.Defaults()
	setString(args, "fullName", p.FullName)
	setString(args, "initials", p.Initials)
	setString(args, "bio", p.Bio)
	if err := tc.http.PutForm(ctx, "/members/me", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update profile: %w", err)
	}
	return out, nil
}
