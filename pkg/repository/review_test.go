package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

func runReviewRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamp", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		story, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "Reviewed"})
		gt.NoError(t, err).Required()

		created, err := repo.Review().Create(ctx, &model.Review{
			StoryID:  story.ID,
			Reviewer: "U200",
			Accepted: true,
			Content:  "solid sourcing",
		})
		gt.NoError(t, err).Required()

		gt.Value(t, created.ID).NotEqual(int64(0))
		gt.Value(t, created.StoryID).Equal(story.ID)
		gt.Value(t, created.Reviewer).Equal("U200")
		gt.B(t, created.Accepted).True()
		gt.B(t, created.CreatedAt.IsZero()).False()
	})

	t.Run("Create fails for missing story", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Review().Create(ctx, &model.Review{StoryID: 999999, Reviewer: "U200"})
		gt.Error(t, err)
		gt.B(t, errors.Is(err, model.ErrNotFound)).True()
	})

	t.Run("ListByStory returns reviews oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		story, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "Multi"})
		gt.NoError(t, err).Required()

		reviewers := []string{"U1", "U2", "U3"}
		for i, reviewer := range reviewers {
			_, err := repo.Review().Create(ctx, &model.Review{
				StoryID:  story.ID,
				Reviewer: reviewer,
				Accepted: i%2 == 0,
			})
			gt.NoError(t, err).Required()
		}

		reviews, err := repo.Review().ListByStory(ctx, story.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, reviews).Length(3)
		for i, rev := range reviews {
			gt.Value(t, rev.Reviewer).Equal(reviewers[i])
		}

		count, err := repo.Review().CountByStory(ctx, story.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(3)
	})

	t.Run("CountByStory is zero for a story without reviews", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		story, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "Fresh"})
		gt.NoError(t, err).Required()

		count, err := repo.Review().CountByStory(ctx, story.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, count).Equal(0)

		reviews, err := repo.Review().ListByStory(ctx, story.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, reviews).Length(0)
	})
}

func TestReviewRepository_Memory(t *testing.T) {
	runReviewRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestReviewRepository_Firestore(t *testing.T) {
	runReviewRepositoryTest(t, newFirestoreRepo)
}
