package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/gjum/newsroom/pkg/domain/interfaces"
	"github.com/gjum/newsroom/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the production repository backend. Firestore transactions
// are optimistic and serializable, which is exactly the isolation the
// workflow needs for race-free claims and transitions.
type Firestore struct {
	client *firestore.Client
	story  *storyRepository
	review *reviewRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests
// sharing one project.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.story.collectionPrefix = prefix
		f.review.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client: client,
		story:  newStoryRepository(client),
		review: newReviewRepository(client),
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Story() interfaces.StoryRepository {
	return f.story
}

func (f *Firestore) Review() interfaces.ReviewRepository {
	return f.review
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

// domainSentinels raised inside a transaction callback belong to the
// caller and must stay matchable; any other failure from the store is an
// availability problem.
var domainSentinels = []error{
	model.ErrNotFound,
	model.ErrInvalidTransition,
	model.ErrAlreadyAssigned,
	model.ErrNotAssigned,
}

// storeErr classifies a backend failure. Domain errors pass through
// untouched; everything else (transport, exhausted transaction retries,
// commit failures) is reported as storage unavailability. The original
// error text is kept as a value because the sentinel becomes the cause.
func storeErr(err error, msg string, options ...goerr.Option) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range domainSentinels {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	options = append(options, goerr.V("cause", err.Error()))
	return goerr.Wrap(model.ErrStorageUnavailable, msg, options...)
}

// nextCounterValue increments and returns the named auto-increment counter
// inside its own transaction.
func nextCounterValue(ctx context.Context, client *firestore.Client, collection, doc string) (int64, error) {
	counterRef := client.Collection(collection).Doc(doc)

	var nextID int64
	err := client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := snapshot.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}

		val, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not of type int64", goerr.V("value", currentValue))
		}
		nextID = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})

	if err != nil {
		return 0, storeErr(err, "failed to get next ID", goerr.V("counter", doc))
	}

	return nextID, nil
}
