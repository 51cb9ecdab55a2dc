package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// CreatePost stores a new post. The stored createdAt is the commit time.
func (s *FirestoreStore) CreatePost(ctx context.Context, post *models.Post) error {
	ref := s.posts().NewDoc()
	wr, err := ref.Create(ctx, post)
	if err != nil {
		return translate("create post", "Post", ref.ID, err)
	}
	post.ID = ref.ID
	post.CreatedAt = wr.UpdateTime
	return nil
}

// GetPostByID retrieves a post by ID from Firestore
func (s *FirestoreStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	snap, err := s.posts().Doc(id).Get(ctx)
	if err != nil {
		return nil, translate("load post", "Post", id, err)
	}
	return decodePost(snap)
}

func decodePost(snap *firestore.DocumentSnapshot) (*models.Post, error) {
	var p models.Post
	if err := snap.DataTo(&p); err != nil {
		return nil, models.NewPersistenceError("decode post", err)
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

func (s *FirestoreStore) postsQuery(limit int) firestore.Query {
	q := s.posts().OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

// ListPosts retrieves posts newest first
func (s *FirestoreStore) ListPosts(ctx context.Context, limit int) ([]models.Post, error) {
	docs, err := s.postsQuery(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("list posts", "Post", "", err)
	}
	posts, err := decodeAll(docs, setPostID)
	return posts, models.AsPersistence("decode posts", err)
}

// ListAnswers retrieves the answers of a post, oldest first
func (s *FirestoreStore) ListAnswers(ctx context.Context, postID string) ([]models.Answer, error) {
	docs, err := s.posts().Doc(postID).Collection(answersCollection).
		OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("list answers", "Post", postID, err)
	}
	answers, err := decodeAll(docs, setAnswerID)
	return answers, models.AsPersistence("decode answers", err)
}

// AddAnswer appends an answer and increments answerCount in one transaction.
func (s *FirestoreStore) AddAnswer(ctx context.Context, postID string, answer *models.Answer, check PostCheck) error {
	postRef := s.posts().Doc(postID)
	var answerRef *firestore.DocumentRef
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(postRef)
		if err != nil {
			return translate("load post", "Post", postID, err)
		}
		post, err := decodePost(snap)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}
		answerRef = postRef.Collection(answersCollection).NewDoc()
		if err := tx.Create(answerRef, answer); err != nil {
			return err
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "answerCount", Value: firestore.Increment(1)},
		})
	})
	if err != nil {
		return translate("add answer", "Post", postID, err)
	}
	answer.ID = answerRef.ID
	answer.PostID = postID
	return nil
}

// ResolvePost marks answerID helpful. The answer must exist under the post.
func (s *FirestoreStore) ResolvePost(ctx context.Context, postID, answerID string, check PostCheck) error {
	postRef := s.posts().Doc(postID)
	answerRef := postRef.Collection(answersCollection).Doc(answerID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(postRef)
		if err != nil {
			return translate("load post", "Post", postID, err)
		}
		post, err := decodePost(snap)
		if err != nil {
			return err
		}
		if err := runCheck(check, post); err != nil {
			return err
		}
		if _, err := tx.Get(answerRef); err != nil {
			return translate("load answer", "Answer", answerID, err)
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "helpfulAnswerId", Value: answerID},
			{Path: "status", Value: models.StatusResolved},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	})
	return translate("resolve post", "Post", postID, err)
}

// SubscribePosts streams the newest posts.
func (s *FirestoreStore) SubscribePosts(ctx context.Context, limit int, fn SnapshotFunc[models.Post], onErr ErrorFunc) (Subscription, error) {
	return watchQuery(ctx, s.postsQuery(limit), setPostID, fn, onErr), nil
}

// SubscribeAuthorPosts streams every post by authorID. The query has no
// ordering so it runs on the single-field index.
func (s *FirestoreStore) SubscribeAuthorPosts(ctx context.Context, authorID string, fn SnapshotFunc[models.Post], onErr ErrorFunc) (Subscription, error) {
	return watchQuery(ctx, s.posts().Where("authorId", "==", authorID), setPostID, fn, onErr), nil
}
