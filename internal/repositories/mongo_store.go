package repositories

import (
	"context"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements DocumentStore on MongoDB. Multi-document transitions
// run in a transaction, so the deployment must be a replica set, which the
// change streams behind the Subscribe methods need anyway.
type MongoStore struct {
	client        *mongo.Client
	posts         *mongo.Collection
	answers       *mongo.Collection
	reports       *mongo.Collection
	conversations *mongo.Collection
	messages      *mongo.Collection
	settings      *mongo.Collection
	announcements *mongo.Collection
	now           func() time.Time
}

// NewMongoStore creates a new MongoStore
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:        db.Client(),
		posts:         db.Collection(postsCollection),
		answers:       db.Collection(answersCollection),
		reports:       db.Collection(reportsCollection),
		conversations: db.Collection(conversationsCollection),
		messages:      db.Collection(messagesCollection),
		settings:      db.Collection(settingsCollection),
		announcements: db.Collection(announcementsCollection),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

var _ DocumentStore = (*MongoStore)(nil)

// EnsureIndexes creates the secondary indexes the queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := []struct {
		coll *mongo.Collection
		keys bson.D
	}{
		{s.posts, bson.D{{Key: "created_at", Value: -1}}},
		{s.posts, bson.D{{Key: "author_id", Value: 1}}},
		{s.answers, bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{s.reports, bson.D{{Key: "post_id", Value: 1}}},
		{s.conversations, bson.D{{Key: "participants", Value: 1}}},
		{s.messages, bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{s.announcements, bson.D{{Key: "created_at", Value: -1}}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.keys}); err != nil {
			return err
		}
	}
	return nil
}

// inTransaction runs fn inside a transaction on a fresh session. Any error
// from fn aborts the transaction and is returned as is.
func (s *MongoStore) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return models.NewPersistenceError("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return translate("transaction", "", "", err)
}

func newID() string {
	return uuid.NewString()
}

// findAll decodes every document matching filter.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// watchCollection emits load() once and again after every change on coll
// matching the pipeline. Change streams require a replica set.
func watchCollection[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, load func(context.Context) ([]T, error), fn SnapshotFunc[T], onErr ErrorFunc, opts ...*options.ChangeStreamOptions) (Subscription, error) {
	stream, err := coll.Watch(ctx, pipeline, opts...)
	if err != nil {
		return nil, models.NewPersistenceError("watch "+coll.Name(), err)
	}
	return startSubscription(ctx, func(ctx context.Context) {
		defer stream.Close(context.Background())
		emit := func() bool {
			items, err := load(ctx)
			if err != nil {
				if ctx.Err() == nil && onErr != nil {
					onErr(models.NewPersistenceError("load "+coll.Name(), err))
				}
				return false
			}
			if ctx.Err() != nil {
				return false
			}
			fn(items)
			return true
		}
		if !emit() {
			return
		}
		for stream.Next(ctx) {
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil && onErr != nil {
			onErr(models.NewPersistenceError("watch "+coll.Name(), err))
		}
	}), nil
}

func matchField(field string, value interface{}) mongo.Pipeline {
	return mongo.Pipeline{{{Key: "$match", Value: bson.M{"fullDocument." + field: value}}}}
}

func mongoPipelineAll() mongo.Pipeline {
	return mongo.Pipeline{}
}
