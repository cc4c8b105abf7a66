package trelloClient

import (
	"context"
	"fmt"

	"github.com/adlio/trello"

	bc "github.com/egobogo/trellosync/internal/board"
)

// Workspaces returns the organizations of the authenticated member.
func (tc *TrelloClient) Workspaces(ctx context.Context) ([]bc.Workspace, error) {
	var out []bc.Workspace
	if err := tc.http.Get(ctx, "/members/me/organizations", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get workspaces: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) Workspace(ctx context.Context, id string) (bc.Workspace, error) {
	var out bc.Workspace
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	if err := tc.http.Get(ctx, endpoint("/organizations/%s", id), nil, &out); err != nil {
		return out, fmt.Errorf("failed to get workspace: %w", err)
	}
	return out, nil
}

// CreateWorkspace sends its fields as a form body.
func (tc *TrelloClient) CreateWorkspace(ctx context.Context, p bc.CreateWorkspaceParams) (bc.Workspace, error) {
	var out bc.Workspace
	if err := p.Validate(); err != nil {
		return out, err
	}
	args := trello.Arguments{"displayName": p.DisplayName}
	setNonEmpty(args, "desc", p.Desc)
	setNonEmpty(args, "website", p.Website)
	if err := tc.http.PostForm(ctx, "/organizations", args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to create workspace: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) UpdateWorkspace(ctx context.Context, id string, p bc.UpdateWorkspaceParams) (bc.Workspace, error) {
	var out bc.Workspace
	if err := bc.Required("id", id); err != nil {
		return out, err
	}
	args := trello.Defaults()
	setString(args, "displayName", p.DisplayName)
	setString(args, "name", p.Name)
	setString(args, "desc", p.Desc)
	setString(args, "website", p.Website)
	if err := tc.http.PutForm(ctx, endpoint("/organizations/%s", id), args.ToURLValues(), &out); err != nil {
		return out, fmt.Errorf("failed to update workspace: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) DeleteWorkspace(ctx context.Context, id string) error {
	if err := bc.Required("id", id); err != nil {
		return err
	}
	if err := tc.http.Delete(ctx, endpoint("/organizations/%s", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

func (tc *TrelloClient) WorkspaceBoards(ctx context.Context, id string) ([]bc.Board, error) {
	if err := bc.Required("id", id); err != nil {
		return nil, err
	}
	var out []bc.Board
	if err := tc.http.Get(ctx, endpoint("/organizations/%s/boards", id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get workspace boards: %w", err)
	}
	return out, nil
}

func (tc *TrelloClient) WorkspaceMembers(ctx context.Context, id string) ([]bc.Member, error) {
	if err := bc.Required("id", id); err != nil {
		return nil, err
	}
	var out []bc.Member
	if err := tc.http.Get(ctx, endpoint("/organizations/%s/members", id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get workspace members: %w", err)
	}
	return out, nil
}
