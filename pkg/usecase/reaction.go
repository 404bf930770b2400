package usecase

import (
	"context"
	"sync"
	"time"
)

// ReactionEvent is a normalized reaction-added transport event.
type ReactionEvent struct {
	ChannelID string
	MessageTS string
	UserID    string
	Emoji     string
}

// ReactionHandler consumes a one-shot reaction.
type ReactionHandler func(ctx context.Context, ev ReactionEvent) error

type pendingReaction struct {
	messageTS string
	fn        ReactionHandler
	createdAt time.Time
}

// ReactionRegistry holds one-shot reaction handlers: a pending operation
// registers interest in the next reaction a specific user adds to a
// specific message. The first matching reaction consumes the registration
// atomically with its lookup; unmatched reactions fall through untouched.
// The registry is owned by the dispatcher and passed by reference, never
// global.
type ReactionRegistry struct {
	mu       sync.Mutex
	handlers map[string]*pendingReaction // keyed by user ID
}

func NewReactionRegistry() *ReactionRegistry {
	return &ReactionRegistry{
		handlers: make(map[string]*pendingReaction),
	}
}

// Register replaces any pending handler for userID with a new one bound
// to messageTS.
func (r *ReactionRegistry) Register(userID, messageTS string, fn ReactionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[userID] = &pendingReaction{
		messageTS: messageTS,
		fn:        fn,
		createdAt: time.Now(),
	}
}

// Consume removes and returns the handler for userID if it is bound to
// messageTS. A pending handler for a different message stays registered.
func (r *ReactionRegistry) Consume(userID, messageTS string) (ReactionHandler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending, ok := r.handlers[userID]
	if !ok || pending.messageTS != messageTS {
		return nil, false
	}
	delete(r.handlers, userID)
	return pending.fn, true
}
