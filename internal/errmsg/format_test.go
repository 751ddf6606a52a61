package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpSignIn,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpSignIn,
			err:      errors.New("invalid credentials"),
			expected: "Failed to sign in: invalid credentials",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
		{
			name:     "notification operation",
			op:       OpMarkAllRead,
			err:      errors.New("network error"),
			expected: "Failed to mark all notifications read: network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpProfileLoad,
			context:  "hazel",
			err:      nil,
			expected: "",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpProfileLoad,
			context:  "",
			err:      errors.New("not found"),
			expected: "Failed to load profile: not found",
		},
		{
			name:     "context included",
			op:       OpFollow,
			context:  "hazel",
			err:      errors.New("timeout"),
			expected: "Failed to follow artist 'hazel': timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}
