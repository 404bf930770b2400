package memory

import (
	"sync"

	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
)

// Memory is an in-memory repository for development and tests. A single
// mutex over both tables stands in for the serializable isolation the
// production backend gets from store transactions: claims and transitions
// are atomic with respect to the selection queries.
type Memory struct {
	store  *store
	story  *storyRepository
	review *reviewRepository
}

var _ interfaces.Repository = &Memory{}

// store holds both tables under one lock. Reviews are nested under their
// owning story so a review can never outlive it.
type store struct {
	mu           sync.RWMutex
	stories      map[int64]*model.Story
	reviews      map[int64]map[int64]*model.Review // storyID -> reviewID
	nextStoryID  int64
	nextReviewID int64
}

func New() *Memory {
	s := &store{
		stories:      make(map[int64]*model.Story),
		reviews:      make(map[int64]map[int64]*model.Review),
		nextStoryID:  1,
		nextReviewID: 1,
	}

	return &Memory{
		store:  s,
		story:  &storyRepository{store: s},
		review: &reviewRepository{store: s},
	}
}

func (m *Memory) Story() interfaces.StoryRepository {
	return m.story
}

func (m *Memory) Review() interfaces.ReviewRepository {
	return m.review
}

func (m *Memory) Close() error {
	return nil
}

func copyStory(s *model.Story) *model.Story {
	copied := *s
	return &copied
}

func copyReview(r *model.Review) *model.Review {
	copied := *r
	return &copied
}
