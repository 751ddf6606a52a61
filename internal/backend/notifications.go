package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// notificationSelect embeds the originating actor's display fields so one
// fetch yields a renderable record.
const notificationSelect = "*,from_profile:profiles!notifications_from_profile_id_fkey(id,username,name,avatar_url,is_verified)"

// ListNotifications returns the newest notifications for a profile,
// newest first, up to limit rows.
func (c *Client) ListNotifications(ctx context.Context, profileID string, limit int) ([]Notification, error) {
	query := url.Values{}
	query.Set("select", notificationSelect)
	query.Set("profile_id", "eq."+profileID)
	query.Set("order", "created_at.desc")
	query.Set("limit", strconv.Itoa(limit))

	var rows []Notification
	if err := c.getJSON(ctx, c.restURL("notifications", query), &rows); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return rows, nil
}

// GetNotification fetches a single notification by id with the actor's
// display fields embedded. Returns ErrNotFound if the row does not exist.
func (c *Client) GetNotification(ctx context.Context, id string) (*Notification, error) {
	query := url.Values{}
	query.Set("select", notificationSelect)
	query.Set("id", "eq."+id)
	query.Set("limit", "1")

	var rows []Notification
	if err := c.getJSON(ctx, c.restURL("notifications", query), &rows); err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// MarkNotificationRead flips a single notification's read flag.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	query := url.Values{}
	query.Set("id", "eq."+id)

	err := c.writeJSON(ctx, http.MethodPatch, c.restURL("notifications", query), map[string]bool{"read": true})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead flips every unread notification for a profile
// in a single write.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, profileID string) error {
	query := url.Values{}
	query.Set("profile_id", "eq."+profileID)
	query.Set("read", "eq.false")

	err := c.writeJSON(ctx, http.MethodPatch, c.restURL("notifications", query), map[string]bool{"read": true})
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
