package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type reviewRepository struct {
	store *store
}

func (r *reviewRepository) Create(ctx context.Context, rev *model.Review) (*model.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.stories[rev.StoryID]; !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", rev.StoryID))
	}

	created := copyReview(rev)
	created.ID = r.store.nextReviewID
	created.CreatedAt = time.Now().UTC()
	r.store.nextReviewID++

	bucket, exists := r.store.reviews[rev.StoryID]
	if !exists {
		bucket = make(map[int64]*model.Review)
		r.store.reviews[rev.StoryID] = bucket
	}
	bucket[created.ID] = created

	return copyReview(created), nil
}

func (r *reviewRepository) ListByStory(ctx context.Context, storyID int64) ([]*model.Review, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, exists := r.store.stories[storyID]; !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", storyID))
	}

	result := make([]*model.Review, 0, len(r.store.reviews[storyID]))
	for _, rev := range r.store.reviews[storyID] {
		result = append(result, copyReview(rev))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *reviewRepository) CountByStory(ctx context.Context, storyID int64) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, exists := r.store.stories[storyID]; !exists {
		return 0, goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", storyID))
	}

	return len(r.store.reviews[storyID]), nil
}
