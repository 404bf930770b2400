package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestStory_ValidateTransition(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		story   model.Story
		to      types.StoryState
		wantErr bool
	}{
		{
			name:  "incomplete to ready",
			story: model.Story{ID: 1, State: types.StoryStateIncomplete},
			to:    types.StoryStateReady,
		},
		{
			name:  "incomplete to discarded",
			story: model.Story{ID: 1, State: types.StoryStateIncomplete},
			to:    types.StoryStateDiscarded,
		},
		{
			name:    "incomplete to published",
			story:   model.Story{ID: 1, State: types.StoryStateIncomplete},
			to:      types.StoryStatePublished,
			wantErr: true,
		},
		{
			name:  "ready back to incomplete",
			story: model.Story{ID: 1, State: types.StoryStateReady},
			to:    types.StoryStateIncomplete,
		},
		{
			name:  "ready to published",
			story: model.Story{ID: 1, State: types.StoryStateReady},
			to:    types.StoryStatePublished,
		},
		{
			name:    "published is terminal",
			story:   model.Story{ID: 1, State: types.StoryStatePublished, DoneAt: now},
			to:      types.StoryStateDiscarded,
			wantErr: true,
		},
		{
			name:    "discarded is terminal",
			story:   model.Story{ID: 1, State: types.StoryStateDiscarded, DoneAt: now},
			to:      types.StoryStateReady,
			wantErr: true,
		},
		{
			name:    "self transition rejected",
			story:   model.Story{ID: 1, State: types.StoryStateReady},
			to:      types.StoryStateReady,
			wantErr: true,
		},
		{
			name:    "unknown target state",
			story:   model.Story{ID: 1, State: types.StoryStateIncomplete},
			to:      types.StoryState("ARCHIVED"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.story.ValidateTransition(tt.to)
			if tt.wantErr {
				gt.Error(t, err)
				gt.B(t, errors.Is(err, model.ErrInvalidTransition)).True()
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestStory_Validate(t *testing.T) {
	now := time.Now().UTC()

	valid := model.Story{
		ID:         1,
		CreatedAt:  now,
		Creator:    "U100",
		LastEditAt: now,
		State:      types.StoryStateIncomplete,
	}
	gt.NoError(t, valid.Validate())

	t.Run("done time without terminal state", func(t *testing.T) {
		s := valid
		s.DoneAt = now
		gt.Error(t, s.Validate())
	})

	t.Run("terminal state without done time", func(t *testing.T) {
		s := valid
		s.State = types.StoryStatePublished
		gt.Error(t, s.Validate())
	})

	t.Run("duplicate link requires discarded", func(t *testing.T) {
		s := valid
		s.DuplicateOf = 2
		gt.Error(t, s.Validate())

		s.State = types.StoryStateDiscarded
		s.DoneAt = now
		gt.NoError(t, s.Validate())
	})

	t.Run("assignee and assign time set together", func(t *testing.T) {
		s := valid
		s.Assignee = "U200"
		gt.Error(t, s.Validate())

		s.AssignedAt = now
		gt.NoError(t, s.Validate())
	})

	t.Run("last edit before creation", func(t *testing.T) {
		s := valid
		s.LastEditAt = now.Add(-time.Hour)
		gt.Error(t, s.Validate())
	})
}

func TestTally(t *testing.T) {
	reviews := []*model.Review{
		{ID: 1, StoryID: 1, Reviewer: "U1", Accepted: true},
		{ID: 2, StoryID: 1, Reviewer: "U2", Accepted: false},
		{ID: 3, StoryID: 1, Reviewer: "U3", Accepted: true},
	}

	tally := model.Tally(reviews)
	gt.Value(t, tally.Accepted).Equal(2)
	gt.Value(t, tally.Rejected).Equal(1)
}
