package slack

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Service provides the transport boundary to Slack. The workflow core only
// depends on this interface; tests substitute a recording fake.
type Service interface {
	// BotUserID returns the bot's own user ID, resolved at startup.
	BotUserID() string

	// PostMessage posts plain mrkdwn text to a channel.
	PostMessage(ctx context.Context, channelID, text string) error

	// PostStarSummary cross-posts a promoted message to the star channel.
	PostStarSummary(ctx context.Context, channelID string, summary *StarSummary) error

	// AddReaction adds the bot's reaction to a message.
	AddReaction(ctx context.Context, channelID, timestamp, name string) error

	// GetReactions fetches the live reactions of a message. Event payload
	// counts can be stale under concurrent reactions; always re-fetch.
	GetReactions(ctx context.Context, channelID, timestamp string) ([]Reaction, error)

	// FetchMessage retrieves a single message by channel and timestamp.
	FetchMessage(ctx context.Context, channelID, timestamp string) (*Message, error)

	// GetUserInfo retrieves user information for the given user ID
	GetUserInfo(ctx context.Context, userID string) (*User, error)

	// GetPermalink returns the permalink of a message.
	GetPermalink(ctx context.Context, channelID, timestamp string) (string, error)

	// EmojiImageURL resolves a custom emoji name to its image URL. Returns
	// an empty string for unicode or unknown emoji.
	EmojiImageURL(ctx context.Context, name string) (string, error)
}

// Message is a minimal view of a fetched Slack message.
type Message struct {
	ChannelID string
	Timestamp string
	UserID    string
	Text      string
	ImageURL  string
}

// Time converts the Slack message timestamp ("1234567890.123456") to a
// time.Time. Returns the zero time for malformed input.
func (m *Message) Time() time.Time {
	return TimestampToTime(m.Timestamp)
}

// Reaction is one emoji's live reaction state on a message.
type Reaction struct {
	Name  string
	Count int
	Users []string
}

// User represents a Slack user
type User struct {
	ID       string
	Name     string
	RealName string
	ImageURL string
}

// DisplayName prefers the real name over the handle.
func (u *User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}

// StarSummary is the content of a star-channel cross-post.
type StarSummary struct {
	AuthorName string
	AuthorIcon string
	AuthorLink string
	Text       string
	Timestamp  time.Time
	ImageURL   string
	FooterIcon string
}

// TimestampToTime parses a Slack message timestamp into a time.Time.
func TimestampToTime(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	var usec int64
	if len(parts) == 2 {
		if v, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			usec = v
		}
	}
	return time.Unix(sec, usec*int64(time.Microsecond)).UTC()
}
