package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/gjum/newsroom/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type storyRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newStoryRepository(client *firestore.Client) *storyRepository {
	return &storyRepository{client: client}
}

func (r *storyRepository) storiesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_stories"
	}
	return "stories"
}

func (r *storyRepository) countersCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_counters"
	}
	return "counters"
}

func (r *storyRepository) storyDoc(id int64) *firestore.DocumentRef {
	return r.client.Collection(r.storiesCollection()).Doc(fmt.Sprintf("%d", id))
}

func (r *storyRepository) Create(ctx context.Context, s *model.Story) (*model.Story, error) {
	nextID, err := nextCounterValue(ctx, r.client, r.countersCollection(), "story_counter")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	state := s.State
	if state == "" {
		state = types.StoryStateIncomplete
	}
	if !state.IsValid() {
		return nil, goerr.New("invalid story state", goerr.V("state", state))
	}

	created := &model.Story{
		ID:         nextID,
		CreatedAt:  now,
		Creator:    s.Creator,
		Title:      s.Title,
		Content:    s.Content,
		LastEditAt: now,
		State:      state,
	}

	if _, err := r.storyDoc(created.ID).Set(ctx, created); err != nil {
		return nil, storeErr(err, "failed to create story", goerr.V("story_id", created.ID))
	}

	return created, nil
}

func decodeStory(snapshot *firestore.DocumentSnapshot) (*model.Story, error) {
	var s model.Story
	if err := snapshot.DataTo(&s); err != nil {
		return nil, goerr.Wrap(err, "failed to decode story", goerr.V("doc", snapshot.Ref.ID))
	}
	return &s, nil
}

func (r *storyRepository) getTx(tx *firestore.Transaction, id int64) (*model.Story, error) {
	snapshot, err := tx.Get(r.storyDoc(id))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get story", goerr.V("story_id", id))
	}
	return decodeStory(snapshot)
}

func (r *storyRepository) Get(ctx context.Context, id int64) (*model.Story, error) {
	snapshot, err := r.storyDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "story not found", goerr.V("story_id", id))
		}
		return nil, storeErr(err, "failed to get story", goerr.V("story_id", id))
	}
	return decodeStory(snapshot)
}

// mutate runs fn against the current story inside one serializable
// transaction and writes the result back. Domain errors returned by fn
// abort the transaction untouched.
func (r *storyRepository) mutate(ctx context.Context, id int64, fn func(s *model.Story) error) (*model.Story, error) {
	var result *model.Story
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		s, err := r.getTx(tx, id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		if err := tx.Set(r.storyDoc(id), s); err != nil {
			return goerr.Wrap(err, "failed to write story", goerr.V("story_id", id))
		}
		result = s
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "story update failed", goerr.V("story_id", id))
	}
	return result, nil
}

func (r *storyRepository) UpdateContent(ctx context.Context, id int64, upd model.ContentUpdate) (*model.Story, error) {
	return r.mutate(ctx, id, func(s *model.Story) error {
		if upd.Title != nil {
			s.Title = *upd.Title
		}
		if upd.Content != nil {
			s.Content = *upd.Content
		}
		s.LastEditAt = time.Now().UTC()
		return nil
	})
}

func (r *storyRepository) Assign(ctx context.Context, id int64, userID string) (*model.Story, error) {
	return r.mutate(ctx, id, func(s *model.Story) error {
		if s.Assigned() {
			return goerr.Wrap(model.ErrAlreadyAssigned, "story is claimed by another editor",
				goerr.V("story_id", id),
				goerr.V("assignee", s.Assignee))
		}
		if s.Done() {
			return goerr.Wrap(model.ErrInvalidTransition, "cannot assign a finished story",
				goerr.V("story_id", id),
				goerr.V("state", s.State))
		}
		s.Assignee = userID
		s.AssignedAt = time.Now().UTC()
		return nil
	})
}

func (r *storyRepository) Unassign(ctx context.Context, id int64) (*model.Story, error) {
	return r.mutate(ctx, id, func(s *model.Story) error {
		if !s.Assigned() {
			return goerr.Wrap(model.ErrNotAssigned, "story has no assignee", goerr.V("story_id", id))
		}
		s.Assignee = ""
		s.AssignedAt = time.Time{}
		return nil
	})
}

func (r *storyRepository) Transition(ctx context.Context, id int64, next types.StoryState, opts interfaces.TransitionOptions) (*model.Story, error) {
	var result *model.Story
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		s, err := r.getTx(tx, id)
		if err != nil {
			return err
		}
		if err := s.ValidateTransition(next); err != nil {
			return err
		}
		if opts.DuplicateOf != 0 {
			if next != types.StoryStateDiscarded {
				return goerr.Wrap(model.ErrInvalidTransition, "duplicate link requires discard",
					goerr.V("story_id", id), goerr.V("to", next))
			}
			if _, err := r.getTx(tx, opts.DuplicateOf); err != nil {
				return goerr.Wrap(model.ErrNotFound, "duplicate target not found",
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

		if err := tx.Set(r.storyDoc(id), s); err != nil {
			return goerr.Wrap(err, "failed to write story", goerr.V("story_id", id))
		}
		result = s
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "state transition failed", goerr.V("story_id", id))
	}
	return result, nil
}

func (r *storyRepository) ListUnassigned(ctx context.Context) ([]*model.Story, error) {
	query := r.client.Collection(r.storiesCollection()).
		Where("Assignee", "==", "").
		Where("DoneAt", "==", time.Time{}).
		OrderBy("LastEditAt", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var result []*model.Story
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr(err, "failed to list unassigned stories")
		}
		s, err := decodeStory(snapshot)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if result == nil {
		result = []*model.Story{}
	}
	return result, nil
}

func (r *storyRepository) ListReviewable(ctx context.Context, maxReviews int) ([]*model.ReviewableStory, error) {
	if maxReviews <= 0 {
		return []*model.ReviewableStory{}, nil
	}

	query := r.client.Collection(r.storiesCollection()).
		Where("State", "==", string(types.StoryStateReady)).
		OrderBy("LastEditAt", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var result []*model.ReviewableStory
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr(err, "failed to list ready stories")
		}
		s, err := decodeStory(snapshot)
		if err != nil {
			return nil, err
		}

		count, err := countReviews(ctx, snapshot.Ref)
		if err != nil {
			return nil, storeErr(err, "failed to count reviews", goerr.V("story_id", s.ID))
		}
		if count < maxReviews {
			result = append(result, &model.ReviewableStory{Story: s, ReviewCount: count})
		}
	}

	// The query already ordered by LastEditAt ascending; a stable sort on
	// the count keeps that ordering within each count bucket.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReviewCount > result[j].ReviewCount
	})

	if result == nil {
		result = []*model.ReviewableStory{}
	}
	return result, nil
}

// countReviews counts the reviews subcollection with an aggregation query
// so no document data is transferred.
func countReviews(ctx context.Context, storyRef *firestore.DocumentRef) (int, error) {
	agg := storyRef.Collection(reviewsSubcollection).Query.NewAggregationQuery().WithCount("count")
	results, err := agg.Get(ctx)
	if err != nil {
		return 0, err
	}

	value, ok := results["count"]
	if !ok {
		return 0, goerr.New("aggregation result missing count")
	}
	countValue, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected aggregation value type")
	}
	return int(countValue.GetIntegerValue()), nil
}
