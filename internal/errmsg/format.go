// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Session operations
	OpSignIn  Op = "sign in"
	OpSignOut Op = "sign out"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"

	// Feed operations
	OpFeedLoad    Op = "load feed"
	OpFeedRefresh Op = "refresh feed"

	// Notification operations
	OpNotificationsLoad Op = "load notifications"
	OpMarkRead          Op = "mark notification read"
	OpMarkAllRead       Op = "mark all notifications read"

	// Social operations
	OpFollow   Op = "follow artist"
	OpUnfollow Op = "unfollow artist"

	// Profile operations
	OpProfileLoad Op = "load profile"

	// Upload operations
	OpUploadAvatar Op = "upload avatar"
	OpUploadCover  Op = "upload cover image"
	OpUploadAudio  Op = "upload audio"

	// Local state
	OpStateLoad Op = "load saved state"
	OpStateSave Op = "save state"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
