package backend

import (
	"context"
	"fmt"
	"net/url"
)

// GetProfile fetches a profile by id. Returns ErrNotFound if the row
// does not exist, so callers can redirect instead of rendering a blank page.
func (c *Client) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return c.getProfileBy(ctx, "id", id)
}

// GetProfileByUsername fetches a profile by username.
func (c *Client) GetProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	return c.getProfileBy(ctx, "username", username)
}

func (c *Client) getProfileBy(ctx context.Context, column, value string) (*Profile, error) {
	query := url.Values{}
	query.Set(column, "eq."+value)
	query.Set("limit", "1")

	var rows []Profile
	if err := c.getJSON(ctx, c.restURL("profiles", query), &rows); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}
