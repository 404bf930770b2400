package usecase

import (
	"context"

	slacksvc "github.com/gjum/newsroom/pkg/service/slack"
	"github.com/gjum/newsroom/pkg/utils/errutil"
	"github.com/gjum/newsroom/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// EmojiStar marks promoted messages and is always a qualifying emoji.
	EmojiStar = "star"
	// EmojiJoy is the other named qualifying emoji.
	EmojiJoy = "joy"

	// DefaultStarThreshold is the reaction count that triggers promotion.
	DefaultStarThreshold = 4
)

// StarboardUseCase promotes popular messages: when a message accumulates
// enough reactions of one qualifying emoji, a summary is cross-posted to
// the star channel exactly once per message.
//
// Idempotency is marked by the bot's own reaction on the message, added
// right before cross-posting. Two near-simultaneous reactions can both
// pass the marker check before either commits; the residual race allows
// at most one duplicate post and is accepted instead of a lock.
type StarboardUseCase struct {
	slack      slacksvc.Service
	reactions  *ReactionRegistry
	channelID  string
	threshold  int
	extraEmoji map[string]bool
}

type StarboardOption func(*StarboardUseCase)

// WithStarThreshold overrides the promotion threshold.
func WithStarThreshold(threshold int) StarboardOption {
	return func(uc *StarboardUseCase) {
		if threshold > 0 {
			uc.threshold = threshold
		}
	}
}

// WithExtraEmoji adds qualifying emoji names on top of the built-in set.
func WithExtraEmoji(names []string) StarboardOption {
	return func(uc *StarboardUseCase) {
		for _, name := range names {
			uc.extraEmoji[name] = true
		}
	}
}

// NewStarboardUseCase creates the promotion engine. An empty channelID
// disables promotion; one-shot handlers still work.
func NewStarboardUseCase(svc slacksvc.Service, reactions *ReactionRegistry, channelID string, opts ...StarboardOption) *StarboardUseCase {
	uc := &StarboardUseCase{
		slack:      svc,
		reactions:  reactions,
		channelID:  channelID,
		threshold:  DefaultStarThreshold,
		extraEmoji: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Qualifies reports whether an emoji name can trigger promotion: the
// built-in star and joy, configured extras, or any plain alphanumeric
// name (custom workspace emoji).
func (uc *StarboardUseCase) Qualifies(name string) bool {
	if name == EmojiStar || name == EmojiJoy || uc.extraEmoji[name] {
		return true
	}
	if name == "" {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// HandleReactionAdded processes one reaction-added event. One-shot
// handlers run first and consume the event; everything else goes through
// the star-board checks.
func (uc *StarboardUseCase) HandleReactionAdded(ctx context.Context, ev ReactionEvent) error {
	if ev.UserID == uc.slack.BotUserID() {
		return nil
	}

	if fn, ok := uc.reactions.Consume(ev.UserID, ev.MessageTS); ok {
		return fn(ctx, ev)
	}

	// never promote inside the star channel itself
	if uc.channelID == "" || ev.ChannelID == uc.channelID {
		return nil
	}
	if !uc.Qualifies(ev.Emoji) {
		return nil
	}

	// the event payload's count can be stale under concurrent reactions;
	// only the live count decides
	reactions, err := uc.slack.GetReactions(ctx, ev.ChannelID, ev.MessageTS)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch live reactions",
			goerr.V("channel_id", ev.ChannelID),
			goerr.V("message_ts", ev.MessageTS))
	}

	var current *slacksvc.Reaction
	for i := range reactions {
		if reactions[i].Name == ev.Emoji {
			current = &reactions[i]
			break
		}
	}
	if current == nil || current.Count < uc.threshold {
		return nil
	}

	// the bot among the reactors means a promotion already happened; the
	// marker is always the star emoji, which may differ from the emoji
	// that triggered this event, so every reaction's user list counts
	for _, reaction := range reactions {
		for _, userID := range reaction.Users {
			if userID == uc.slack.BotUserID() {
				return nil
			}
		}
	}

	// mark first, then post; a reaction that fails to stick would allow a
	// re-promotion later, so the failure aborts here
	if err := uc.slack.AddReaction(ctx, ev.ChannelID, ev.MessageTS, EmojiStar); err != nil {
		return goerr.Wrap(err, "failed to mark message as promoted",
			goerr.V("channel_id", ev.ChannelID),
			goerr.V("message_ts", ev.MessageTS))
	}

	summary := uc.buildSummary(ctx, ev)
	if err := uc.slack.PostStarSummary(ctx, uc.channelID, summary); err != nil {
		return goerr.Wrap(err, "failed to cross-post promoted message",
			goerr.V("channel_id", ev.ChannelID),
			goerr.V("message_ts", ev.MessageTS))
	}

	logging.From(ctx).Info("promoted message to star channel",
		"channel_id", ev.ChannelID,
		"message_ts", ev.MessageTS,
		"emoji", ev.Emoji,
		"count", current.Count)
	return nil
}

// buildSummary assembles the cross-post from best-effort lookups. Any
// fetch failure degrades the summary instead of dropping the promotion.
func (uc *StarboardUseCase) buildSummary(ctx context.Context, ev ReactionEvent) *slacksvc.StarSummary {
	summary := &slacksvc.StarSummary{}

	msg, err := uc.slack.FetchMessage(ctx, ev.ChannelID, ev.MessageTS)
	if err != nil {
		errutil.Handle(ctx, err, "failed to fetch promoted message")
		summary.Timestamp = slacksvc.TimestampToTime(ev.MessageTS)
		return summary
	}
	summary.Text = msg.Text
	summary.Timestamp = msg.Time()
	summary.ImageURL = msg.ImageURL
	summary.AuthorName = msg.UserID

	if user, err := uc.slack.GetUserInfo(ctx, msg.UserID); err == nil {
		summary.AuthorName = user.DisplayName()
		summary.AuthorIcon = user.ImageURL
	} else {
		errutil.Handle(ctx, err, "failed to resolve promoted message author")
	}

	if link, err := uc.slack.GetPermalink(ctx, ev.ChannelID, ev.MessageTS); err == nil {
		summary.AuthorLink = link
	} else {
		errutil.Handle(ctx, err, "failed to resolve permalink")
	}

	if ev.Emoji != EmojiStar && ev.Emoji != EmojiJoy {
		if url, err := uc.slack.EmojiImageURL(ctx, ev.Emoji); err == nil {
			summary.FooterIcon = url
		} else {
			errutil.Handle(ctx, err, "failed to resolve emoji icon")
		}
	}

	return summary
}
