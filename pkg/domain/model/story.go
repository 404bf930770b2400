package model

import (
	"time"

	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Story is a unit of editorial content moving through the workflow.
// Nullable columns use zero values: an empty Assignee means unassigned,
// a zero DoneAt means not finished, a zero DuplicateOf means no duplicate
// link. All timestamps are assigned by the store, never by callers.
type Story struct {
	ID          int64
	CreatedAt   time.Time
	Creator     string
	Title       string
	Content     string
	LastEditAt  time.Time
	State       types.StoryState
	Assignee    string
	AssignedAt  time.Time
	DoneAt      time.Time
	DuplicateOf int64
}

// Assigned reports whether the story is currently claimed by an editor.
func (s *Story) Assigned() bool {
	return s.Assignee != ""
}

// Done reports whether the story reached a terminal state.
func (s *Story) Done() bool {
	return !s.DoneAt.IsZero()
}

// ValidateTransition checks whether the story may move to next. It never
// mutates the story; repositories apply the side effects atomically with
// the state write.
func (s *Story) ValidateTransition(next types.StoryState) error {
	if !next.IsValid() {
		return goerr.Wrap(ErrInvalidTransition, "unknown target state",
			goerr.V("story_id", s.ID),
			goerr.V("from", s.State),
			goerr.V("to", next))
	}
	if s.Done() || !s.State.CanTransitionTo(next) {
		return goerr.Wrap(ErrInvalidTransition, "transition not allowed",
			goerr.V("story_id", s.ID),
			goerr.V("from", s.State),
			goerr.V("to", next))
	}
	return nil
}

// Validate checks the structural invariants that must hold after every
// repository operation.
func (s *Story) Validate() error {
	if !s.State.IsValid() {
		return goerr.New("invalid story state", goerr.V("story_id", s.ID), goerr.V("state", s.State))
	}
	if s.Done() != s.State.IsTerminal() {
		return goerr.New("done time must be set exactly for terminal states",
			goerr.V("story_id", s.ID), goerr.V("state", s.State), goerr.V("done_at", s.DoneAt))
	}
	if s.DuplicateOf != 0 && s.State != types.StoryStateDiscarded {
		return goerr.New("duplicate link requires discarded state",
			goerr.V("story_id", s.ID), goerr.V("state", s.State))
	}
	if s.Assigned() != !s.AssignedAt.IsZero() {
		return goerr.New("assignee and assign time must be set together",
			goerr.V("story_id", s.ID), goerr.V("assignee", s.Assignee))
	}
	if s.LastEditAt.Before(s.CreatedAt) {
		return goerr.New("last edit time precedes creation time",
			goerr.V("story_id", s.ID))
	}
	return nil
}

// ContentUpdate describes a partial edit to a story. Nil fields keep the
// current value.
type ContentUpdate struct {
	Title   *string
	Content *string
}

// Empty reports whether the update changes nothing.
func (u ContentUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil
}

// ReviewableStory pairs a ready story with its distinct review count, as
// produced by the reviewable selection query.
type ReviewableStory struct {
	Story       *Story
	ReviewCount int
}
