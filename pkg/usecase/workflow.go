package usecase

import (
	"context"
	"errors"

	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultMaxReviews is the review quota applied when no policy overrides it.
const DefaultMaxReviews = 3

// WorkflowUseCase implements the editorial workflow operations. It is a
// thin layer over the repository: all race handling lives in the store's
// transactions, all state validation in the domain model.
type WorkflowUseCase struct {
	repo       interfaces.Repository
	maxReviews int
}

func NewWorkflowUseCase(repo interfaces.Repository, maxReviews int) *WorkflowUseCase {
	if maxReviews <= 0 {
		maxReviews = DefaultMaxReviews
	}
	return &WorkflowUseCase{
		repo:       repo,
		maxReviews: maxReviews,
	}
}

// MaxReviews returns the configured review quota.
func (uc *WorkflowUseCase) MaxReviews() int {
	return uc.maxReviews
}

// Submit creates a new incomplete story.
func (uc *WorkflowUseCase) Submit(ctx context.Context, creator, title, content string) (*model.Story, error) {
	if title == "" {
		return nil, goerr.Wrap(ErrTitleRequired, "submit rejected", goerr.V("creator", creator))
	}

	created, err := uc.repo.Story().Create(ctx, &model.Story{
		Creator: creator,
		Title:   title,
		Content: content,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create story")
	}
	return created, nil
}

// AssignNext claims the next story needing attention for userID, walking
// the unassigned queue oldest-edited first. A claim lost to a concurrent
// actor moves on to the next candidate; if every candidate was lost the
// race, the last ErrAlreadyAssigned is reported so the caller can retry.
func (uc *WorkflowUseCase) AssignNext(ctx context.Context, userID string) (*model.Story, error) {
	candidates, err := uc.repo.Story().ListUnassigned(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list unassigned stories")
	}
	if len(candidates) == 0 {
		return nil, goerr.Wrap(ErrNoUnassignedStories, "queue is empty")
	}

	var lastErr error
	for _, candidate := range candidates {
		claimed, err := uc.repo.Story().Assign(ctx, candidate.ID, userID)
		if err == nil {
			return claimed, nil
		}
		// the queue is a snapshot; stories claimed or finished since then
		// are expected and skipped
		if errors.Is(err, model.ErrAlreadyAssigned) || errors.Is(err, model.ErrInvalidTransition) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// Unassign releases a claim.
func (uc *WorkflowUseCase) Unassign(ctx context.Context, storyID int64) (*model.Story, error) {
	return uc.repo.Story().Unassign(ctx, storyID)
}

// Edit applies a partial content update.
func (uc *WorkflowUseCase) Edit(ctx context.Context, storyID int64, upd model.ContentUpdate) (*model.Story, error) {
	if upd.Empty() {
		return nil, goerr.Wrap(ErrEmptyEdit, "edit rejected", goerr.V(StoryIDKey, storyID))
	}
	return uc.repo.Story().UpdateContent(ctx, storyID, upd)
}

// MarkReady moves a story into the review queue.
func (uc *WorkflowUseCase) MarkReady(ctx context.Context, storyID int64) (*model.Story, error) {
	return uc.repo.Story().Transition(ctx, storyID, types.StoryStateReady, interfaces.TransitionOptions{})
}

// SendBack returns a ready story to drafting.
func (uc *WorkflowUseCase) SendBack(ctx context.Context, storyID int64) (*model.Story, error) {
	return uc.repo.Story().Transition(ctx, storyID, types.StoryStateIncomplete, interfaces.TransitionOptions{})
}

// Publish finishes a ready story.
func (uc *WorkflowUseCase) Publish(ctx context.Context, storyID int64) (*model.Story, error) {
	return uc.repo.Story().Transition(ctx, storyID, types.StoryStatePublished, interfaces.TransitionOptions{})
}

// Discard finishes a story without publishing. A non-zero duplicateOf
// links the story to the one it duplicates.
func (uc *WorkflowUseCase) Discard(ctx context.Context, storyID, duplicateOf int64) (*model.Story, error) {
	return uc.repo.Story().Transition(ctx, storyID, types.StoryStateDiscarded,
		interfaces.TransitionOptions{DuplicateOf: duplicateOf})
}

// Review records a reviewer's verdict. Whether the verdicts eventually
// justify publication is the editor's call; the engine only counts them.
func (uc *WorkflowUseCase) Review(ctx context.Context, storyID int64, reviewer string, accepted bool, content string) (*model.Review, error) {
	created, err := uc.repo.Review().Create(ctx, &model.Review{
		StoryID:  storyID,
		Reviewer: reviewer,
		Accepted: accepted,
		Content:  content,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record review", goerr.V(StoryIDKey, storyID))
	}
	return created, nil
}

// Get retrieves one story.
func (uc *WorkflowUseCase) Get(ctx context.Context, storyID int64) (*model.Story, error) {
	return uc.repo.Story().Get(ctx, storyID)
}

// Reviews returns the reviews of one story, oldest first.
func (uc *WorkflowUseCase) Reviews(ctx context.Context, storyID int64) ([]*model.Review, error) {
	return uc.repo.Review().ListByStory(ctx, storyID)
}

// ListUnassigned returns the editing queue, oldest-edited first.
func (uc *WorkflowUseCase) ListUnassigned(ctx context.Context) ([]*model.Story, error) {
	return uc.repo.Story().ListUnassigned(ctx)
}

// ListReviewable returns the review queue. A maxReviews of zero applies
// the configured quota.
func (uc *WorkflowUseCase) ListReviewable(ctx context.Context, maxReviews int) ([]*model.ReviewableStory, error) {
	if maxReviews <= 0 {
		maxReviews = uc.maxReviews
	}
	return uc.repo.Story().ListReviewable(ctx, maxReviews)
}
