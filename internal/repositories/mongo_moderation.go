package repositories

import (
	"context"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) listReports(ctx context.Context, filter interface{}) ([]models.Report, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findAll[models.Report](ctx, s.reports, filter, findOptions)
}

// ListReports retrieves every report, oldest first
func (s *MongoStore) ListReports(ctx context.Context) ([]models.Report, error) {
	reports, err := s.listReports(ctx, bson.D{})
	return reports, translate("list reports", "Report", "", err)
}

// ListReportsForPost retrieves the reports referencing postID
func (s *MongoStore) ListReportsForPost(ctx context.Context, postID string) ([]models.Report, error) {
	reports, err := s.listReports(ctx, bson.M{"post_id": postID})
	return reports, translate("list reports", "Post", postID, err)
}

// DeleteReports removes the given reports.
func (s *MongoStore) DeleteReports(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.reports.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, translate("delete reports", "Report", "", err)
	}
	return int(res.DeletedCount), nil
}

// SubscribeReports streams every report.
func (s *MongoStore) SubscribeReports(ctx context.Context, fn SnapshotFunc[models.Report], onErr ErrorFunc) (Subscription, error) {
	load := func(ctx context.Context) ([]models.Report, error) { return s.listReports(ctx, bson.D{}) }
	return watchCollection(ctx, s.reports, mongoPipelineAll(), load, fn, onErr)
}

// FlagPost inserts the report and sets the post to reported in one transaction.
func (s *MongoStore) FlagPost(ctx context.Context, report *models.Report) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		post, err := s.GetPostByID(sc, report.PostID)
		if err != nil {
			return err
		}
		report.ID = newID()
		report.CreatedAt = s.now()
		if _, err := s.reports.InsertOne(sc, report); err != nil {
			return translate("submit report", "Post", report.PostID, err)
		}
		_, err = s.posts.UpdateOne(sc, bson.M{"_id": report.PostID}, bson.M{"$set": bson.M{
			"status":     post.StatusAfterReport(),
			"updated_at": s.now(),
		}})
		return translate("mark post reported", "Post", report.PostID, err)
	})
}

// ReinstatePost ends the review and deletes the post's reports.
func (s *MongoStore) ReinstatePost(ctx context.Context, postID string, check PostCheck) (int, error) {
	var removed int
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		post, err := s.GetPostByID(sc, postID)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}
		res, err := s.posts.UpdateOne(sc,
			bson.M{"_id": postID, "status": bson.M{"$in": []models.PostStatus{models.StatusReported, models.StatusHidden}}},
			bson.M{"$set": bson.M{"status": post.StatusAfterReview()}, "$unset": bson.M{"updated_at": ""}},
		)
		if err != nil {
			return translate("reinstate post", "Post", postID, err)
		}
		if res.MatchedCount == 0 {
			return models.NewValidationError("Post is not under review")
		}
		del, err := s.reports.DeleteMany(sc, bson.M{"post_id": postID})
		if err != nil {
			return translate("delete reports", "Post", postID, err)
		}
		removed = int(del.DeletedCount)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// HidePost takes the post out of every public list. Reports are kept.
func (s *MongoStore) HidePost(ctx context.Context, postID string, check PostCheck) error {
	return s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		post, err := s.GetPostByID(sc, postID)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}
		_, err = s.posts.UpdateOne(sc, bson.M{"_id": postID}, bson.M{"$set": bson.M{
			"status":     models.StatusHidden,
			"updated_at": s.now(),
		}})
		return translate("hide post", "Post", postID, err)
	})
}

// PurgePost deletes the post with its answers and reports.
func (s *MongoStore) PurgePost(ctx context.Context, postID string, check PostCheck) (int, error) {
	var removed int
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		post, err := s.GetPostByID(sc, postID)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}
		res, err := s.posts.DeleteOne(sc, bson.M{"_id": postID})
		if err != nil {
			return translate("delete post", "Post", postID, err)
		}
		if res.DeletedCount == 0 {
			return models.NewNotFoundError("Post", postID)
		}
		if _, err := s.answers.DeleteMany(sc, bson.M{"post_id": postID}); err != nil {
			return translate("delete answers", "Post", postID, err)
		}
		del, err := s.reports.DeleteMany(sc, bson.M{"post_id": postID})
		if err != nil {
			return translate("delete reports", "Post", postID, err)
		}
		removed = int(del.DeletedCount)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// PurgeAllPosts deletes every post, answer and report.
func (s *MongoStore) PurgeAllPosts(ctx context.Context) (int, error) {
	var removed int
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.posts.DeleteMany(sc, bson.D{})
		if err != nil {
			return translate("delete all posts", "Post", "", err)
		}
		if _, err := s.answers.DeleteMany(sc, bson.D{}); err != nil {
			return translate("delete answers", "Answer", "", err)
		}
		if _, err := s.reports.DeleteMany(sc, bson.D{}); err != nil {
			return translate("delete reports", "Report", "", err)
		}
		removed = int(res.DeletedCount)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
