package repositories

import (
	"context"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatePost creates a new post in MongoDB
func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = newID()
	post.CreatedAt = s.now()
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return translate("create post", "Post", post.ID, err)
	}
	return nil
}

// GetPostByID retrieves a post by ID from MongoDB
func (s *MongoStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translate("load post", "Post", id, err)
	}
	return &post, nil
}

func (s *MongoStore) listPosts(ctx context.Context, limit int) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	return findAll[models.Post](ctx, s.posts, bson.D{}, findOptions)
}

// ListPosts retrieves posts newest first
func (s *MongoStore) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts, err := s.listPosts(ctx, limit)
	return posts, translate("list posts", "Post", "", err)
}

// ListAnswers retrieves the answers of a post, oldest first
func (s *MongoStore) ListAnswers(ctx context.Context, postID string) ([]models.Answer, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	answers, err := findAll[models.Answer](ctx, s.answers, bson.M{"post_id": postID}, findOptions)
	return answers, translate("list answers", "Post", postID, err)
}

// AddAnswer inserts the answer and increments answer_count in one transaction.
func (s *MongoStore) AddAnswer(ctx context.Context, postID string, answer *models.Answer, check PostCheck) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		post, err := s.GetPostByID(sc, postID)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}

		answer.ID = newID()
		answer.PostID = postID
		answer.CreatedAt = s.now()
		if _, err := s.answers.InsertOne(sc, answer); err != nil {
			return translate("add answer", "Post", postID, err)
		}
		_, err = s.posts.UpdateOne(sc, bson.M{"_id": postID}, bson.M{"$inc": bson.M{"answer_count": 1}})
		return translate("increment answer count", "Post", postID, err)
	})
}

// ResolvePost marks answerID helpful. The update is conditional on the post
// still being unresolved so concurrent selections cannot both win.
func (s *MongoStore) ResolvePost(ctx context.Context, postID, answerID string, check PostCheck) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		post, err := s.GetPostByID(sc, postID)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}
		n, err := s.answers.CountDocuments(sc, bson.M{"_id": answerID, "post_id": postID})
		if err != nil {
			return translate("load answer", "Answer", answerID, err)
		}
		if n == 0 {
			return models.NewNotFoundError("Answer", answerID)
		}

		res, err := s.posts.UpdateOne(sc,
			bson.M{"_id": postID, "status": bson.M{"$ne": models.StatusResolved}},
			bson.M{"$set": bson.M{
				"helpful_answer_id": answerID,
				"status":            models.StatusResolved,
				"updated_at":        s.now(),
			}},
		)
		if err != nil {
			return translate("resolve post", "Post", postID, err)
		}
		if res.MatchedCount == 0 {
			return models.NewValidationError("This question has already been resolved")
		}
		return nil
	})
}

// SubscribePosts streams the newest posts.
func (s *MongoStore) SubscribePosts(ctx context.Context, limit int, fn SnapshotFunc[models.Post], onErr ErrorFunc) (Subscription, error) {
	load := func(ctx context.Context) ([]models.Post, error) { return s.listPosts(ctx, limit) }
	return watchCollection(ctx, s.posts, mongoPipelineAll(), load, fn, onErr)
}

// SubscribeAuthorPosts streams every post by authorID. Delete events carry no
// document, so the stream watches all posts and reloads the author's.
func (s *MongoStore) SubscribeAuthorPosts(ctx context.Context, authorID string, fn SnapshotFunc[models.Post], onErr ErrorFunc) (Subscription, error) {
	load := func(ctx context.Context) ([]models.Post, error) {
		return findAll[models.Post](ctx, s.posts, bson.M{"author_id": authorID})
	}
	return watchCollection(ctx, s.posts, mongoPipelineAll(), load, fn, onErr)
}
