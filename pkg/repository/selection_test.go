package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/gjum/newsroom/pkg/repository/memory"
	"github.com/m-mizutani/gt"
)

func runSelectionTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("ListUnassigned surfaces stale drafts first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []int64
		for i := 0; i < 3; i++ {
			s, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: fmt.Sprintf("draft %d", i)})
			gt.NoError(t, err).Required()
			ids = append(ids, s.ID)
			time.Sleep(2 * time.Millisecond)
		}

		// editing the oldest story makes it the freshest draft
		content := "touched"
		_, err := repo.Story().UpdateContent(ctx, ids[0], model.ContentUpdate{Content: &content})
		gt.NoError(t, err).Required()

		unassigned, err := repo.Story().ListUnassigned(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, unassigned).Length(3)
		gt.Value(t, unassigned[0].ID).Equal(ids[1])
		gt.Value(t, unassigned[1].ID).Equal(ids[2])
		gt.Value(t, unassigned[2].ID).Equal(ids[0])
	})

	t.Run("ListUnassigned excludes assigned and finished stories", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		open, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "open"})
		gt.NoError(t, err).Required()

		claimed, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "claimed"})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Assign(ctx, claimed.ID, "U200")
		gt.NoError(t, err).Required()

		finished, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "finished"})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Transition(ctx, finished.ID, types.StoryStateDiscarded, interfaces.TransitionOptions{})
		gt.NoError(t, err).Required()

		unassigned, err := repo.Story().ListUnassigned(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, unassigned).Length(1)
		gt.Value(t, unassigned[0].ID).Equal(open.ID)
	})

	t.Run("ListUnassigned holds under random assign and publish sequences", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rng := rand.New(rand.NewSource(42))

		var ids []int64
		for i := 0; i < 20; i++ {
			s, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: fmt.Sprintf("s%d", i)})
			gt.NoError(t, err).Required()
			ids = append(ids, s.ID)
		}

		for i := 0; i < 60; i++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(4) {
			case 0:
				_, _ = repo.Story().Assign(ctx, id, fmt.Sprintf("U%d", rng.Intn(5)))
			case 1:
				_, _ = repo.Story().Unassign(ctx, id)
			case 2:
				_, _ = repo.Story().Transition(ctx, id, types.StoryStateReady, interfaces.TransitionOptions{})
			case 3:
				_, _ = repo.Story().Transition(ctx, id, types.StoryStatePublished, interfaces.TransitionOptions{})
			}
		}

		unassigned, err := repo.Story().ListUnassigned(ctx)
		gt.NoError(t, err).Required()
		for _, s := range unassigned {
			gt.Value(t, s.Assignee).Equal("")
			gt.B(t, s.Done()).False()
		}
		for i := 1; i < len(unassigned); i++ {
			gt.B(t, unassigned[i].LastEditAt.Before(unassigned[i-1].LastEditAt)).False()
		}
	})

	t.Run("ListReviewable enforces the quota as a pure count", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		story, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "quota"})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Transition(ctx, story.ID, types.StoryStateReady, interfaces.TransitionOptions{})
		gt.NoError(t, err).Required()

		for i := 0; i < 3; i++ {
			_, err := repo.Review().Create(ctx, &model.Review{
				StoryID:  story.ID,
				Reviewer: fmt.Sprintf("U%d", i),
				Accepted: true,
			})
			gt.NoError(t, err).Required()
		}

		// three reviews satisfy a quota of three even though nothing was rejected
		atQuota, err := repo.Story().ListReviewable(ctx, 3)
		gt.NoError(t, err).Required()
		for _, rs := range atQuota {
			gt.Value(t, rs.Story.ID).NotEqual(story.ID)
		}

		underQuota, err := repo.Story().ListReviewable(ctx, 4)
		gt.NoError(t, err).Required()
		gt.Array(t, underQuota).Length(1)
		gt.Value(t, underQuota[0].Story.ID).Equal(story.ID)
		gt.Value(t, underQuota[0].ReviewCount).Equal(3)
	})

	t.Run("ListReviewable returns only ready stories under the quota", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		incomplete, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "incomplete"})
		gt.NoError(t, err).Required()

		ready, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "ready"})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Transition(ctx, ready.ID, types.StoryStateReady, interfaces.TransitionOptions{})
		gt.NoError(t, err).Required()

		published, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: "published"})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Transition(ctx, published.ID, types.StoryStateReady, interfaces.TransitionOptions{})
		gt.NoError(t, err).Required()
		_, err = repo.Story().Transition(ctx, published.ID, types.StoryStatePublished, interfaces.TransitionOptions{})
		gt.NoError(t, err).Required()

		reviewable, err := repo.Story().ListReviewable(ctx, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, reviewable).Length(1)
		gt.Value(t, reviewable[0].Story.ID).Equal(ready.ID)
		gt.Value(t, reviewable[0].Story.State).Equal(types.StoryStateReady)
		_ = incomplete
	})

	t.Run("ListReviewable orders almost-done first, then longest waiting", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		mkReady := func(title string) int64 {
			s, err := repo.Story().Create(ctx, &model.Story{Creator: "U100", Title: title})
			gt.NoError(t, err).Required()
			_, err = repo.Story().Transition(ctx, s.ID, types.StoryStateReady, interfaces.TransitionOptions{})
			gt.NoError(t, err).Required()
			return s.ID
		}

		oldID := mkReady("old, one review")
		time.Sleep(2 * time.Millisecond)
		newID := mkReady("new, one review")
		time.Sleep(2 * time.Millisecond)
		hotID := mkReady("newest, two reviews")

		for i, id := range []int64{oldID, newID, hotID, hotID} {
			_, err := repo.Review().Create(ctx, &model.Review{
				StoryID:  id,
				Reviewer: fmt.Sprintf("U%d", i),
				Accepted: true,
			})
			gt.NoError(t, err).Required()
		}

		reviewable, err := repo.Story().ListReviewable(ctx, 3)
		gt.NoError(t, err).Required()
		gt.Array(t, reviewable).Length(3)
		gt.Value(t, reviewable[0].Story.ID).Equal(hotID)
		gt.Value(t, reviewable[1].Story.ID).Equal(oldID)
		gt.Value(t, reviewable[2].Story.ID).Equal(newID)
	})

	t.Run("ListReviewable with zero quota is empty", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		reviewable, err := repo.Story().ListReviewable(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, reviewable).Length(0)
	})
}

func TestSelection_Memory(t *testing.T) {
	runSelectionTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestSelection_Firestore(t *testing.T) {
	runSelectionTest(t, newFirestoreRepo)
}
