package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Follow inserts a follow relationship.
func (c *Client) Follow(ctx context.Context, followerID, followingID string) error {
	row := Follow{FollowerID: followerID, FollowingID: followingID}
	if err := c.writeJSON(ctx, http.MethodPost, c.restURL("follows", nil), row); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

// Unfollow deletes a follow relationship.
func (c *Client) Unfollow(ctx context.Context, followerID, followingID string) error {
	query := url.Values{}
	query.Set("follower_id", "eq."+followerID)
	query.Set("following_id", "eq."+followingID)

	if err := c.writeJSON(ctx, http.MethodDelete, c.restURL("follows", query), nil); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

// IsFollowing reports whether follower follows following.
func (c *Client) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	query := url.Values{}
	query.Set("follower_id", "eq."+followerID)
	query.Set("following_id", "eq."+followingID)
	query.Set("limit", "1")

	var rows []Follow
	if err := c.getJSON(ctx, c.restURL("follows", query), &rows); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return len(rows) > 0, nil
}
