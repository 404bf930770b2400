package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrNoUnassignedStories means the unassigned queue is empty.
	ErrNoUnassignedStories = errors.New("no unassigned stories")

	// ErrTitleRequired means a story was submitted without a title.
	ErrTitleRequired = errors.New("story title is required")

	// ErrEmptyEdit means an edit changed neither title nor content.
	ErrEmptyEdit = errors.New("nothing to edit")
)

// Context keys for error values
const (
	StoryIDKey  = "story_id"
	ReviewIDKey = "review_id"
)
