package interfaces

import (
	"context"

	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
)

// TransitionOptions carries optional side effects of a state transition.
type TransitionOptions struct {
	// DuplicateOf links a discarded story to the story it duplicates.
	// Only honored when transitioning to DISCARDED.
	DuplicateOf int64
}

// StoryRepository defines the interface for Story data access. Every
// mutation that affects selection-query correctness (claiming, state
// transitions) executes under the store's serializable isolation: two
// actors racing for the same story see exactly one winner.
type StoryRepository interface {
	// Create creates a new story with store-assigned ID and timestamps.
	// A story starts INCOMPLETE and unassigned unless the state is preset.
	Create(ctx context.Context, s *model.Story) (*model.Story, error)

	// Get retrieves a story by ID. Returns model.ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*model.Story, error)

	// UpdateContent applies a partial edit and bumps the last-edit time.
	UpdateContent(ctx context.Context, id int64, upd model.ContentUpdate) (*model.Story, error)

	// Assign atomically claims an unassigned story for userID, setting
	// assignee and assign time together. Returns model.ErrAlreadyAssigned
	// when another actor holds the claim.
	Assign(ctx context.Context, id int64, userID string) (*model.Story, error)

	// Unassign atomically clears assignee and assign time. Returns
	// model.ErrNotAssigned if there is no claim to clear.
	Unassign(ctx context.Context, id int64) (*model.Story, error)

	// Transition atomically moves a story to the next state, applying the
	// state machine's side effects (done time on terminal states, the
	// optional duplicate link on discard). Returns
	// model.ErrInvalidTransition for illegal moves.
	Transition(ctx context.Context, id int64, next types.StoryState, opts TransitionOptions) (*model.Story, error)

	// ListUnassigned returns stories with no assignee and no done time,
	// oldest-edited first.
	ListUnassigned(ctx context.Context) ([]*model.Story, error)

	// ListReviewable returns READY stories with fewer than maxReviews
	// distinct reviews, most-reviewed first and oldest-edited within a
	// count. Quota satisfaction is purely a count, never a consensus check.
	ListReviewable(ctx context.Context, maxReviews int) ([]*model.ReviewableStory, error)
}
