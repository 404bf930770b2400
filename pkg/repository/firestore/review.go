package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Reviews live in a subcollection of their story document so their
// lifetime is bound to the story.
const reviewsSubcollection = "reviews"

type reviewRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newReviewRepository(client *firestore.Client) *reviewRepository {
	return &reviewRepository{client: client}
}

func (r *reviewRepository) storiesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_stories"
	}
	return "stories"
}

func (r *reviewRepository) countersCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *reviewRepository) storyDoc(storyID int64) *firestore.DocumentRef {
	return r.client.Collection(r.storiesCollection()).Doc(fmt.Sprintf("%d", storyID))
}

func (r *reviewRepository) checkStoryExists(ctx context.Context, storyID int64) error {
	_, err := r.storyDoc(storyID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", storyID))
		}
		return storeErr(err, "failed to get story", goerr.V("story_id", storyID))
	}
	return nil
}

func (r *reviewRepository) Create(ctx context.Context, rev *model.Review) (*model.Review, error) {
	if err := r.checkStoryExists(ctx, rev.StoryID); err != nil {
		return nil, err
	}

	nextID, err := nextCounterValue(ctx, r.client, r.countersCollection(), "review_counter")
	if err != nil {
		return nil, err
	}

	created := &model.Review{
		ID:        nextID,
		CreatedAt: time.Now().UTC(),
		StoryID:   rev.StoryID,
		Reviewer:  rev.Reviewer,
		Accepted:  rev.Accepted,
		Content:   rev.Content,
	}

	docID := fmt.Sprintf("%d", created.ID)
	if _, err := r.storyDoc(rev.StoryID).Collection(reviewsSubcollection).Doc(docID).Set(ctx, created); err != nil {
		return nil, storeErr(err, "failed to create review",
			goerr.V("story_id", rev.StoryID),
			goerr.V("review_id", created.ID))
	}

	return created, nil
}

func (r *reviewRepository) ListByStory(ctx context.Context, storyID int64) ([]*model.Review, error) {
	if err := r.checkStoryExists(ctx, storyID); err != nil {
		return nil, err
	}

	query := r.storyDoc(storyID).Collection(reviewsSubcollection).
		OrderBy("CreatedAt", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var result []*model.Review
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr(err, "failed to list reviews", goerr.V("story_id", storyID))
		}

		var rev model.Review
		if err := snapshot.DataTo(&rev); err != nil {
			return nil, goerr.Wrap(err, "failed to decode review", goerr.V("doc", snapshot.Ref.ID))
		}
		result = append(result, &rev)
	}

	if result == nil {
		result = []*model.Review{}
	}
	return result, nil
}

func (r *reviewRepository) CountByStory(ctx context.Context, storyID int64) (int, error) {
	if err := r.checkStoryExists(ctx, storyID); err != nil {
		return 0, err
	}

	count, err := countReviews(ctx, r.storyDoc(storyID))
	if err != nil {
		return 0, storeErr(err, "failed to count reviews", goerr.V("story_id", storyID))
	}
	return count, nil
}
