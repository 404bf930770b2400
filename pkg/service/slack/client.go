package slack

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// DefaultCacheTTL is the default TTL for the custom emoji cache
const DefaultCacheTTL = 5 * time.Minute

// starColor is the attachment bar color of star-channel cross-posts
const starColor = "#fadb2f"

// client implements Service interface
type client struct {
	api       *slack.Client
	botUserID string
	cacheTTL  time.Duration

	mu             sync.RWMutex
	emojiCache     map[string]string
	emojiFetchedAt time.Time
}

// Option is a functional option for client configuration
type Option func(*client)

// WithCacheTTL sets the TTL for the custom emoji cache
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *client) {
		c.cacheTTL = ttl
	}
}

// New creates a new Slack service with the provided bot token. It resolves
// the bot's own identity once; the star-board uses it as the idempotency
// marker for promoted messages.
func New(ctx context.Context, token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		api:      slack.New(token),
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve bot identity")
	}
	c.botUserID = auth.UserID

	return c, nil
}

func (c *client) BotUserID() string {
	return c.botUserID
}

func (c *client) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post message", goerr.V("channel_id", channelID))
	}
	return nil
}

func (c *client) PostStarSummary(ctx context.Context, channelID string, summary *StarSummary) error {
	attachment := slack.Attachment{
		Color:      starColor,
		AuthorName: summary.AuthorName,
		AuthorIcon: summary.AuthorIcon,
		AuthorLink: summary.AuthorLink,
		Text:       summary.Text,
		ImageURL:   summary.ImageURL,
		FooterIcon: summary.FooterIcon,
	}
	if !summary.Timestamp.IsZero() {
		attachment.Ts = json.Number(strconv.FormatInt(summary.Timestamp.Unix(), 10))
	}
	if summary.FooterIcon != "" {
		// Slack hides the footer icon without footer text; a zero-width
		// space shows the icon alone.
		attachment.Footer = "​"
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionAttachments(attachment))
	if err != nil {
		return goerr.Wrap(err, "failed to post star summary", goerr.V("channel_id", channelID))
	}
	return nil
}

func (c *client) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	ref := slack.NewRefToMessage(channelID, timestamp)
	if err := c.api.AddReactionContext(ctx, name, ref); err != nil {
		// already_reacted is success for our purposes
		if strings.Contains(err.Error(), "already_reacted") {
			return nil
		}
		return goerr.Wrap(err, "failed to add reaction",
			goerr.V("channel_id", channelID),
			goerr.V("timestamp", timestamp),
			goerr.V("name", name))
	}
	return nil
}

func (c *client) GetReactions(ctx context.Context, channelID, timestamp string) ([]Reaction, error) {
	ref := slack.NewRefToMessage(channelID, timestamp)
	params := slack.NewGetReactionsParameters()
	params.Full = true

	items, err := c.api.GetReactionsContext(ctx, ref, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get reactions",
			goerr.V("channel_id", channelID),
			goerr.V("timestamp", timestamp))
	}

	reactions := make([]Reaction, 0, len(items))
	for _, item := range items {
		reactions = append(reactions, Reaction{
			Name:  item.Name,
			Count: item.Count,
			Users: item.Users,
		})
	}
	return reactions, nil
}

func (c *client) FetchMessage(ctx context.Context, channelID, timestamp string) (*Message, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    timestamp,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch message",
			goerr.V("channel_id", channelID),
			goerr.V("timestamp", timestamp))
	}
	if len(resp.Messages) == 0 || resp.Messages[0].Timestamp != timestamp {
		return nil, goerr.New("message not found",
			goerr.V("channel_id", channelID),
			goerr.V("timestamp", timestamp))
	}

	raw := resp.Messages[0]
	msg := &Message{
		ChannelID: channelID,
		Timestamp: raw.Timestamp,
		UserID:    raw.User,
		Text:      raw.Text,
	}
	for _, f := range raw.Files {
		if strings.HasPrefix(f.Mimetype, "image/") {
			msg.ImageURL = f.URLPrivate
			break
		}
	}
	return msg, nil
}

func (c *client) GetUserInfo(ctx context.Context, userID string) (*User, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", userID))
	}
	return &User{
		ID:       user.ID,
		Name:     user.Name,
		RealName: user.RealName,
		ImageURL: user.Profile.Image48,
	}, nil
}

func (c *client) GetPermalink(ctx context.Context, channelID, timestamp string) (string, error) {
	link, err := c.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: channelID,
		Ts:      timestamp,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to get permalink",
			goerr.V("channel_id", channelID),
			goerr.V("timestamp", timestamp))
	}
	return link, nil
}

func (c *client) EmojiImageURL(ctx context.Context, name string) (string, error) {
	c.mu.RLock()
	cache := c.emojiCache
	fresh := time.Since(c.emojiFetchedAt) < c.cacheTTL
	c.mu.RUnlock()

	if cache == nil || !fresh {
		emoji, err := c.api.GetEmojiContext(ctx)
		if err != nil {
			return "", goerr.Wrap(err, "failed to list custom emoji")
		}
		c.mu.Lock()
		c.emojiCache = emoji
		c.emojiFetchedAt = time.Now()
		cache = emoji
		c.mu.Unlock()
	}

	url := cache[name]
	// aliases point at another emoji name instead of an image
	if strings.HasPrefix(url, "alias:") {
		url = cache[strings.TrimPrefix(url, "alias:")]
	}
	if strings.HasPrefix(url, "alias:") {
		return "", nil
	}
	return url, nil
}
