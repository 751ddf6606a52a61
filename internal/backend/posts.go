package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const postSelect = "*,author:profiles!posts_profile_id_fkey(id,username,name,avatar_url,is_verified,is_artist)," +
	"track:tracks!posts_track_id_fkey(id,title,audio_url,cover_url,duration,plays,likes,profile_id)"

// ListFeedPosts returns the newest non-expired posts with author and
// track embedded, newest first.
func (c *Client) ListFeedPosts(ctx context.Context, limit int) ([]Post, error) {
	query := url.Values{}
	query.Set("select", postSelect)
	query.Set("order", "created_at.desc")
	query.Set("limit", strconv.Itoa(limit))
	// Stories past their expiry are filtered out server-side
	query.Set("or", "(is_story.is.false,expires_at.gt."+time.Now().UTC().Format(time.RFC3339)+")")

	var rows []Post
	if err := c.getJSON(ctx, c.restURL("posts", query), &rows); err != nil {
		return nil, fmt.Errorf("list feed posts: %w", err)
	}
	return rows, nil
}

// GetPost fetches a post by id. Returns ErrNotFound if the row does not exist.
func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	query := url.Values{}
	query.Set("select", postSelect)
	query.Set("id", "eq."+id)
	query.Set("limit", "1")

	var rows []Post
	if err := c.getJSON(ctx, c.restURL("posts", query), &rows); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}
