// Package notifications keeps a freshness-ordered local list of the
// signed-in profile's notifications, fed by an initial bulk load and a
// change-feed subscription, with read/unread bookkeeping.
package notifications

// Kind is the closed set of notification types. Unknown backend tags
// parse to KindUnknown and fall back to the record's raw message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindLike
	KindComment
	KindFollow
	KindMessage
)

// ParseKind maps a backend type tag to a Kind.
func ParseKind(tag string) Kind {
	switch tag {
	case "like":
		return KindLike
	case "comment":
		return KindComment
	case "follow":
		return KindFollow
	case "message":
		return KindMessage
	default:
		return KindUnknown
	}
}

// String returns the kind's backend tag.
func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindComment:
		return "comment"
	case KindFollow:
		return "follow"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// AlertText builds the transient alert line for a pushed notification.
// Unrecognized kinds fall back to the record's raw message.
func AlertText(k Kind, actor, rawMessage string) string {
	switch k {
	case KindLike:
		return actor + " liked your post"
	case KindComment:
		return actor + " commented on your track"
	case KindFollow:
		return actor + " started following you"
	case KindMessage:
		return actor + " sent you a message"
	default:
		return rawMessage
	}
}
