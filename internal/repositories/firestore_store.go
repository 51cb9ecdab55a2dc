package repositories

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"google.golang.org/api/iterator"
)

const (
	postsCollection         = "posts"
	answersCollection       = "answers"
	reportsCollection       = "reports"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	settingsCollection      = "settings"
	announcementsCollection = "announcements"
	portalsDocument         = "portals"
)

// FirestoreStore implements DocumentStore on Cloud Firestore. Multi-document
// post transitions run in transactions.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new FirestoreStore
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

var _ DocumentStore = (*FirestoreStore)(nil)

func (s *FirestoreStore) posts() *firestore.CollectionRef {
	return s.client.Collection(postsCollection)
}

func (s *FirestoreStore) reports() *firestore.CollectionRef {
	return s.client.Collection(reportsCollection)
}

func (s *FirestoreStore) conversations() *firestore.CollectionRef {
	return s.client.Collection(conversationsCollection)
}

// decodeAll converts snapshots into T, letting setID fill the document id.
func decodeAll[T any](docs []*firestore.DocumentSnapshot, setID func(*T, *firestore.DocumentSnapshot)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		setID(&v, doc)
		out = append(out, v)
	}
	return out, nil
}

func setPostID(p *models.Post, doc *firestore.DocumentSnapshot)     { p.ID = doc.Ref.ID }
func setReportID(r *models.Report, doc *firestore.DocumentSnapshot) { r.ID = doc.Ref.ID }
func setConversationID(c *models.Conversation, doc *firestore.DocumentSnapshot) {
	c.ID = doc.Ref.ID
}
func setMessageID(m *models.Message, doc *firestore.DocumentSnapshot) { m.ID = doc.Ref.ID }
func setAnswerID(a *models.Answer, doc *firestore.DocumentSnapshot) {
	a.ID = doc.Ref.ID
	if parent := doc.Ref.Parent.Parent; parent != nil {
		a.PostID = parent.ID
	}
}

// watchQuery relays every snapshot of q until the subscription is stopped.
func watchQuery[T any](ctx context.Context, q firestore.Query, setID func(*T, *firestore.DocumentSnapshot), fn SnapshotFunc[T], onErr ErrorFunc) Subscription {
	return startSubscription(ctx, func(ctx context.Context) {
		it := q.Snapshots(ctx)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, iterator.Done) && onErr != nil {
					onErr(translate("watch", "Query", "", err))
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if ctx.Err() == nil && onErr != nil {
					onErr(translate("watch", "Query", "", err))
				}
				return
			}
			items, err := decodeAll(docs, setID)
			if err != nil {
				if onErr != nil {
					onErr(models.NewPersistenceError("decode snapshot", err))
				}
				return
			}
			if ctx.Err() != nil {
				return
			}
			fn(items)
		}
	})
}
