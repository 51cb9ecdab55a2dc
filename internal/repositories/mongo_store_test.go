package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newTestMongoStore connects to MONGO_TEST_URI and uses a throwaway database.
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set; skipping MongoDB integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB unavailable: %v", err)
	}
	var hello struct {
		SetName string `bson:"setName"`
	}
	require.NoError(t, client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello))
	if hello.SetName == "" {
		_ = client.Disconnect(context.Background())
		t.Skip("MongoDB is not a replica set; transactions unavailable")
	}
	db := client.Database("campus_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	store := NewMongoStore(db)
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestMongoStore_ReportLifecycle(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	post := models.NewPost(models.CategorySell, "Calculator", "fx-991", "", models.Actor{UID: "owner"}, "Owner")
	require.NoError(t, store.CreatePost(ctx, post))

	for _, reason := range []models.ReportReason{models.ReasonSpam, models.ReasonScam} {
		require.NoError(t, store.FlagPost(ctx, &models.Report{PostID: post.ID, Reason: reason, ReporterID: "r"}))
	}
	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, got.Status)
	assert.NotNil(t, got.UpdatedAt)

	removed, err := store.ReinstatePost(ctx, post.ID, (*models.Post).CheckUnderReview)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	got, err = store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.UpdatedAt)

	reports, err := store.ListReportsForPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestMongoStore_AnswersAndResolution(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	post := models.NewPost(models.CategoryQA, "Lab timing?", "When does the lab open", "", models.Actor{UID: "owner"}, "Owner")
	require.NoError(t, store.CreatePost(ctx, post))

	answer := &models.Answer{Text: "9am", AuthorID: "helper", AuthorName: "Helper"}
	require.NoError(t, store.AddAnswer(ctx, post.ID, answer, (*models.Post).CheckAcceptsAnswer))
	require.NoError(t, store.ResolvePost(ctx, post.ID, answer.ID, nil))

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.AnswerCount)
	assert.Equal(t, models.StatusResolved, got.Status)
	require.NotNil(t, got.HelpfulAnswerID)
	assert.Equal(t, answer.ID, *got.HelpfulAnswerID)

	err = store.ResolvePost(ctx, post.ID, answer.ID, nil)
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestMongoStore_ConversationCreateIsIdempotent(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	id := models.ConversationID("a", "b")
	created, err := store.CreateConversation(ctx, &models.Conversation{ID: id, Participants: []string{"a", "b"}})
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, store.TouchConversation(ctx, id, "hi"))

	created, err = store.CreateConversation(ctx, &models.Conversation{ID: id, Participants: []string{"a", "b"}})
	require.NoError(t, err)
	assert.False(t, created)

	conv, err := store.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hi", conv.LastMessage)
}

func TestMongoStore_TransactionRollsBackOnError(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	post := models.NewPost(models.CategoryQA, "Bus times?", "Evening shuttle", "", models.Actor{UID: "owner"}, "Owner")
	require.NoError(t, store.CreatePost(ctx, post))

	boom := errors.New("boom")
	err := store.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := store.answers.InsertOne(sc, &models.Answer{ID: "a1", PostID: post.ID, Text: "6pm"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	answers, err := store.ListAnswers(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
}

func TestMongoStore_AnswerCountTracksAnswers(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	post := models.NewPost(models.CategoryQA, "Library hours?", "Weekend", "", models.Actor{UID: "owner"}, "Owner")
	require.NoError(t, store.CreatePost(ctx, post))
	for _, text := range []string{"10am", "noon", "closed Sunday"} {
		require.NoError(t, store.AddAnswer(ctx, post.ID, &models.Answer{Text: text, AuthorID: "h"}, nil))
	}

	got, err := store.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	answers, err := store.ListAnswers(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)
	assert.EqualValues(t, len(answers), got.AnswerCount)
}

func TestMongoStore_PurgePostCascades(t *testing.T) {
	store := newTestMongoStore(t)
	ctx := context.Background()

	post := models.NewPost(models.CategoryQA, "Lost ID?", "Near canteen", "", models.Actor{UID: "owner"}, "Owner")
	require.NoError(t, store.CreatePost(ctx, post))
	require.NoError(t, store.AddAnswer(ctx, post.ID, &models.Answer{Text: "office", AuthorID: "h"}, nil))
	require.NoError(t, store.FlagPost(ctx, &models.Report{PostID: post.ID, Reason: models.ReasonSpam, ReporterID: "r"}))

	removed, err := store.PurgePost(ctx, post.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.GetPostByID(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	answers, err := store.ListAnswers(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, answers)
	reports, err := store.ListReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
