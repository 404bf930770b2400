package memory

import (
	"context"
	"sort"
	"time"

	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type storyRepository struct {
	store *store
}

func (r *storyRepository) Create(ctx context.Context, s *model.Story) (*model.Story, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	created := copyStory(s)
	created.ID = r.store.nextStoryID
	created.CreatedAt = now
	created.LastEditAt = now
	if created.State == "" {
		created.State = types.StoryStateIncomplete
	}
	if !created.State.IsValid() {
		return nil, goerr.New("invalid story state", goerr.V("state", created.State))
	}
	r.store.nextStoryID++

	r.store.stories[created.ID] = created
	return copyStory(created), nil
}

// get expects the caller to hold the lock.
func (r *storyRepository) get(id int64) (*model.Story, error) {
	s, exists := r.store.stories[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", id))
	}
	return s, nil
}

func (r *storyRepository) Get(ctx context.Context, id int64) (*model.Story, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return copyStory(s), nil
}

func (r *storyRepository) UpdateContent(ctx context.Context, id int64, upd model.ContentUpdate) (*model.Story, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, err := r.get(id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Content != nil {
		s.Content = *upd.Content
	}
	s.LastEditAt = time.Now().UTC()

	return copyStory(s), nil
}

func (r *storyRepository) Assign(ctx context.Context, id int64, userID string) (*model.Story, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if s.Assigned() {
		return nil, goerr.Wrap(model.ErrAlreadyAssigned, "story is claimed by another editor",
			goerr.V("story_id", id),
			goerr.V("assignee", s.Assignee))
	}
	if s.Done() {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "cannot assign a finished story",
			goerr.V("story_id", id),
			goerr.V("state", s.State))
	}

	s.Assignee = userID
	s.AssignedAt = time.Now().UTC()

	return copyStory(s), nil
}

func (r *storyRepository) Unassign(ctx context.Context, id int64) (*model.Story, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if !s.Assigned() {
		return nil, goerr.Wrap(model.ErrNotAssigned, "story has no assignee", goerr.V("story_id", id))
	}

	s.Assignee = ""
	s.AssignedAt = time.Time{}

	return copyStory(s), nil
}

func (r *storyRepository) Transition(ctx context.Context, id int64, next types.StoryState, opts interfaces.TransitionOptions) (*model.Story, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateTransition(next); err != nil {
		return nil, err
	}
	if opts.DuplicateOf != 0 {
		if next != types.StoryStateDiscarded {
			return nil, goerr.Wrap(model.ErrInvalidTransition, "duplicate link requires discard",
				goerr.V("story_id", id), goerr.V("to", next))
		}
		if _, err := r.get(opts.DuplicateOf); err != nil {
			return nil, goerr.Wrap(model.ErrNotFound, "duplicate target not found",
				goerr.V("story_id", id), goerr.V("duplicate_of", opts.DuplicateOf))
		}
	}

	s.State = next
	if next.IsTerminal() {
		s.DoneAt = time.Now().UTC()
	}
	if next == types.StoryStateDiscarded && opts.DuplicateOf != 0 {
		s.DuplicateOf = opts.DuplicateOf
	}

	return copyStory(s), nil
}

func (r *storyRepository) ListUnassigned(ctx context.Context) ([]*model.Story, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.Story, 0)
	for _, s := range r.store.stories {
		if !s.Assigned() && !s.Done() {
			result = append(result, copyStory(s))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastEditAt.Equal(result[j].LastEditAt) {
			return result[i].LastEditAt.Before(result[j].LastEditAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *storyRepository) ListReviewable(ctx context.Context, maxReviews int) ([]*model.ReviewableStory, error) {
	if maxReviews <= 0 {
		return []*model.ReviewableStory{}, nil
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.ReviewableStory, 0)
	for _, s := range r.store.stories {
		if s.State != types.StoryStateReady {
			continue
		}
		count := len(r.store.reviews[s.ID])
		if count < maxReviews {
			result = append(result, &model.ReviewableStory{
				Story:       copyStory(s),
				ReviewCount: count,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ReviewCount != result[j].ReviewCount {
			return result[i].ReviewCount > result[j].ReviewCount
		}
		if !result[i].Story.LastEditAt.Equal(result[j].Story.LastEditAt) {
			return result[i].Story.LastEditAt.Before(result[j].Story.LastEditAt)
		}
		return result[i].Story.ID < result[j].Story.ID
	})

	return result, nil
}
