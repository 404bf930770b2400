package interfaces

import (
	"context"

	"github.com/gjum/newsroom/pkg/domain/model"
)

// ReviewRepository defines the interface for Review data access. Reviews
// are immutable once created; no update or delete is defined.
type ReviewRepository interface {
	// Create records a verdict with store-assigned ID and timestamp. The
	// owning story must exist; returns model.ErrNotFound otherwise.
	Create(ctx context.Context, r *model.Review) (*model.Review, error)

	// ListByStory returns the reviews of one story, oldest first.
	ListByStory(ctx context.Context, storyID int64) ([]*model.Review, error)

	// CountByStory returns the distinct review count of one story.
	CountByStory(ctx context.Context, storyID int64) (int, error)
}
