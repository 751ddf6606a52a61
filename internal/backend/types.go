package backend

import "time"

// Profile is a row of the profiles table.
type Profile struct {
	ID                  string `json:"id"`
	Username            string `json:"username"`
	Name                string `json:"name"`
	AvatarURL           string `json:"avatar_url"`
	CoverURL            string `json:"cover_url"`
	Bio                 string `json:"bio"`
	Location            string `json:"location"`
	IsArtist            bool   `json:"is_artist"`
	IsVerified          bool   `json:"is_verified"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
}

// DisplayName returns the profile's name, falling back to the username.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// Track is a row of the tracks table.
type Track struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AudioURL  string    `json:"audio_url"`
	CoverURL  string    `json:"cover_url"`
	Duration  int       `json:"duration"` // seconds
	Plays     int       `json:"plays"`
	Likes     int       `json:"likes"`
	ProfileID string    `json:"profile_id"`
	CreatedAt time.Time `json:"created_at"`

	// Artist is the owning profile, present when the query embeds it.
	Artist *Profile `json:"artist,omitempty"`
}

// Post is a row of the posts table.
type Post struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"` // audio, image, video
	TrackID       string     `json:"track_id"`
	ImageURL      string     `json:"image_url"`
	VideoURL      string     `json:"video_url"`
	Caption       string     `json:"caption"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	IsStory       bool       `json:"is_story"`
	ExpiresAt     *time.Time `json:"expires_at"`
	ProfileID     string     `json:"profile_id"`
	CreatedAt     time.Time  `json:"created_at"`

	// Author is the posting profile, present when the query embeds it.
	Author *Profile `json:"author,omitempty"`
	// Track is the referenced track for audio posts, when embedded.
	Track *Track `json:"track,omitempty"`
}

// Notification is a row of the notifications table.
type Notification struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"` // like, comment, follow, message, ...
	Message       string    `json:"message"`
	Read          bool      `json:"read"`
	FromProfileID string    `json:"from_profile_id"`
	TrackID       string    `json:"track_id"`
	PostID        string    `json:"post_id"`
	ProfileID     string    `json:"profile_id"`
	CreatedAt     time.Time `json:"created_at"`

	// From is the originating actor, present when the query embeds it.
	From *Profile `json:"from_profile,omitempty"`
}

// Follow is a row of the follows table.
type Follow struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}
