package usecase_test

import (
	"context"
	"sync"
	"testing"

	slacksvc "github.com/gjum/newsroom/pkg/service/slack"
	"github.com/gjum/newsroom/pkg/usecase"
	"github.com/m-mizutani/gt"
)

// mockSlack is a recording Service fake. AddReaction feeds back into the
// reaction state so the bot's marker is visible to later GetReactions
// calls, mirroring the real API.
type mockSlack struct {
	mu        sync.Mutex
	botUserID string
	reactions map[string][]slacksvc.Reaction
	posts     []*slacksvc.StarSummary
	messages  []string
}

func newMockSlack() *mockSlack {
	return &mockSlack{
		botUserID: "U_BOT",
		reactions: make(map[string][]slacksvc.Reaction),
	}
}

func (m *mockSlack) key(channelID, timestamp string) string {
	return channelID + "/" + timestamp
}

func (m *mockSlack) setReactions(channelID, timestamp string, rs []slacksvc.Reaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reactions[m.key(channelID, timestamp)] = rs
}

func (m *mockSlack) postCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}

func (m *mockSlack) BotUserID() string { return m.botUserID }

func (m *mockSlack) PostMessage(ctx context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

func (m *mockSlack) PostStarSummary(ctx context.Context, channelID string, summary *slacksvc.StarSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, summary)
	return nil
}

func (m *mockSlack) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.key(channelID, timestamp)
	for i, r := range m.reactions[key] {
		if r.Name == name {
			m.reactions[key][i].Count++
			m.reactions[key][i].Users = append(m.reactions[key][i].Users, m.botUserID)
			return nil
		}
	}
	m.reactions[key] = append(m.reactions[key], slacksvc.Reaction{
		Name:  name,
		Count: 1,
		Users: []string{m.botUserID},
	})
	return nil
}

func (m *mockSlack) GetReactions(ctx context.Context, channelID, timestamp string) ([]slacksvc.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.reactions[m.key(channelID, timestamp)]
	out := make([]slacksvc.Reaction, len(rs))
	for i, r := range rs {
		out[i] = slacksvc.Reaction{
			Name:  r.Name,
			Count: r.Count,
			Users: append([]string(nil), r.Users...),
		}
	}
	return out, nil
}

func (m *mockSlack) FetchMessage(ctx context.Context, channelID, timestamp string) (*slacksvc.Message, error) {
	return &slacksvc.Message{
		ChannelID: channelID,
		Timestamp: timestamp,
		UserID:    "U_AUTHOR",
		Text:      "a popular message",
	}, nil
}

func (m *mockSlack) GetUserInfo(ctx context.Context, userID string) (*slacksvc.User, error) {
	return &slacksvc.User{ID: userID, Name: "author", RealName: "The Author"}, nil
}

func (m *mockSlack) GetPermalink(ctx context.Context, channelID, timestamp string) (string, error) {
	return "https://example.slack.com/archives/" + channelID + "/p" + timestamp, nil
}

func (m *mockSlack) EmojiImageURL(ctx context.Context, name string) (string, error) {
	return "", nil
}

const starChannel = "C_STAR"

func starEvent(emoji string) usecase.ReactionEvent {
	return usecase.ReactionEvent{
		ChannelID: "C_GENERAL",
		MessageTS: "1700000000.000100",
		UserID:    "U_REACTOR",
		Emoji:     emoji,
	}
}

func reactors(n int) []string {
	users := make([]string, n)
	for i := range users {
		users[i] = "U_" + string(rune('A'+i))
	}
	return users
}

func TestStarboardPromotesAtThreshold(t *testing.T) {
	ctx := context.Background()
	svc := newMockSlack()
	uc := usecase.NewStarboardUseCase(svc, usecase.NewReactionRegistry(), starChannel)

	ev := starEvent("star")
	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 3, Users: reactors(3)},
	})
	gt.NoError(t, uc.HandleReactionAdded(ctx, ev))
	gt.Value(t, svc.postCount()).Equal(0)

	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 4, Users: reactors(4)},
	})
	gt.NoError(t, uc.HandleReactionAdded(ctx, ev))
	gt.Value(t, svc.postCount()).Equal(1)

	post := svc.posts[0]
	gt.Value(t, post.Text).Equal("a popular message")
	gt.Value(t, post.AuthorName).Equal("The Author")
}

func TestStarboardPromotesOnce(t *testing.T) {
	ctx := context.Background()
	svc := newMockSlack()
	uc := usecase.NewStarboardUseCase(svc, usecase.NewReactionRegistry(), starChannel)

	ev := starEvent("joy")
	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "joy", Count: 5, Users: reactors(5)},
	})

	// sequential re-deliveries see the bot's marker reaction and skip
	for i := 0; i < 4; i++ {
		gt.NoError(t, uc.HandleReactionAdded(ctx, ev))
	}
	gt.Value(t, svc.postCount()).Equal(1)
}

func TestStarboardConcurrentBoundedDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := newMockSlack()
	uc := usecase.NewStarboardUseCase(svc, usecase.NewReactionRegistry(), starChannel)

	ev := starEvent("star")
	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 10, Users: reactors(10)},
	})

	// two deliveries race through the marker check without a lock; the
	// accepted outcome is one post or one duplicate, never zero
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = uc.HandleReactionAdded(ctx, ev)
		}()
	}
	wg.Wait()

	got := svc.postCount()
	gt.B(t, got >= 1).True()
	gt.B(t, got <= 2).True()
}

func TestStarboardIgnoresBotAndStarChannel(t *testing.T) {
	ctx := context.Background()
	svc := newMockSlack()
	uc := usecase.NewStarboardUseCase(svc, usecase.NewReactionRegistry(), starChannel)

	ev := starEvent("star")
	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 9, Users: reactors(9)},
	})

	selfEv := ev
	selfEv.UserID = svc.BotUserID()
	gt.NoError(t, uc.HandleReactionAdded(ctx, selfEv))
	gt.Value(t, svc.postCount()).Equal(0)

	inStar := ev
	inStar.ChannelID = starChannel
	svc.setReactions(inStar.ChannelID, inStar.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 9, Users: reactors(9)},
	})
	gt.NoError(t, uc.HandleReactionAdded(ctx, inStar))
	gt.Value(t, svc.postCount()).Equal(0)
}

func TestStarboardQualifyingEmoji(t *testing.T) {
	uc := usecase.NewStarboardUseCase(newMockSlack(), usecase.NewReactionRegistry(), starChannel,
		usecase.WithExtraEmoji([]string{"party-parrot"}))

	gt.B(t, uc.Qualifies("star")).True()
	gt.B(t, uc.Qualifies("joy")).True()
	gt.B(t, uc.Qualifies("party-parrot")).True()
	gt.B(t, uc.Qualifies("customname42")).True()
	gt.B(t, uc.Qualifies("thumbs_up")).False()
	gt.B(t, uc.Qualifies("")).False()
}

func TestStarboardThresholdOverride(t *testing.T) {
	ctx := context.Background()
	svc := newMockSlack()
	uc := usecase.NewStarboardUseCase(svc, usecase.NewReactionRegistry(), starChannel,
		usecase.WithStarThreshold(2))

	ev := starEvent("star")
	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 2, Users: reactors(2)},
	})
	gt.NoError(t, uc.HandleReactionAdded(ctx, ev))
	gt.Value(t, svc.postCount()).Equal(1)
}

func TestStarboardOneShotHandlerConsumesEvent(t *testing.T) {
	ctx := context.Background()
	svc := newMockSlack()
	registry := usecase.NewReactionRegistry()
	uc := usecase.NewStarboardUseCase(svc, registry, starChannel)

	ev := starEvent("star")
	svc.setReactions(ev.ChannelID, ev.MessageTS, []slacksvc.Reaction{
		{Name: "star", Count: 9, Users: reactors(9)},
	})

	var handled int
	registry.Register(ev.UserID, ev.MessageTS, func(ctx context.Context, ev usecase.ReactionEvent) error {
		handled++
		return nil
	})

	// the registered handler wins over promotion
	gt.NoError(t, uc.HandleReactionAdded(ctx, ev))
	gt.Value(t, handled).Equal(1)
	gt.Value(t, svc.postCount()).Equal(0)

	// the handler fires once; the next delivery falls through to promotion
	gt.NoError(t, uc.HandleReactionAdded(ctx, ev))
	gt.Value(t, handled).Equal(1)
	gt.Value(t, svc.postCount()).Equal(1)
}
