package notifications

import (
	"time"

	"github.com/jcrosnier/resona/internal/backend"
)

// Notification is the local view of a notifications row, with the
// originating actor's display fields denormalized in.
type Notification struct {
	ID             string
	Kind           Kind
	Message        string
	Read           bool
	ActorID        string
	ActorName      string
	ActorAvatarURL string
	TrackID        string
	PostID         string
	CreatedAt      time.Time
}

// AlertText returns the transient alert line for this notification.
func (n Notification) AlertText() string {
	return AlertText(n.Kind, n.ActorName, n.Message)
}

func fromRow(row backend.Notification) Notification {
	n := Notification{
		ID:        row.ID,
		Kind:      ParseKind(row.Type),
		Message:   row.Message,
		Read:      row.Read,
		ActorID:   row.FromProfileID,
		TrackID:   row.TrackID,
		PostID:    row.PostID,
		CreatedAt: row.CreatedAt,
	}
	if row.From != nil {
		n.ActorName = row.From.DisplayName()
		n.ActorAvatarURL = row.From.AvatarURL
	}
	return n
}
