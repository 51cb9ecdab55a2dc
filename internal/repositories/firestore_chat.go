package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateConversation creates the document only if it does not exist yet.
func (s *FirestoreStore) CreateConversation(ctx context.Context, conv *models.Conversation) (bool, error) {
	_, err := s.conversations().Doc(conv.ID).Create(ctx, conv)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, translate("create conversation", "Conversation", conv.ID, err)
	}
	return true, nil
}

// GetConversation retrieves a conversation by ID
func (s *FirestoreStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	snap, err := s.conversations().Doc(id).Get(ctx)
	if err != nil {
		return nil, translate("load conversation", "Conversation", id, err)
	}
	var c models.Conversation
	if err := snap.DataTo(&c); err != nil {
		return nil, models.NewPersistenceError("decode conversation", err)
	}
	c.ID = snap.Ref.ID
	return &c, nil
}

func (s *FirestoreStore) conversationsOf(uid string) firestore.Query {
	return s.conversations().Where("participants", "array-contains", uid)
}

// ListConversations retrieves the conversations uid takes part in
func (s *FirestoreStore) ListConversations(ctx context.Context, uid string) ([]models.Conversation, error) {
	docs, err := s.conversationsOf(uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("list conversations", "User", uid, err)
	}
	convs, err := decodeAll(docs, setConversationID)
	return convs, models.AsPersistence("decode conversations", err)
}

// AppendMessage adds a message stamped with the commit time.
func (s *FirestoreStore) AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	ref := s.conversations().Doc(conversationID).Collection(messagesCollection).NewDoc()
	wr, err := ref.Create(ctx, msg)
	if err != nil {
		return translate("send message", "Conversation", conversationID, err)
	}
	msg.ID = ref.ID
	msg.CreatedAt = wr.UpdateTime
	return nil
}

// TouchConversation refreshes the preview fields.
func (s *FirestoreStore) TouchConversation(ctx context.Context, conversationID, lastMessage string) error {
	_, err := s.conversations().Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: lastMessage},
		{Path: "lastMessageTime", Value: firestore.ServerTimestamp},
	})
	return translate("update conversation", "Conversation", conversationID, err)
}

func (s *FirestoreStore) messagesQuery(conversationID string) firestore.Query {
	return s.conversations().Doc(conversationID).Collection(messagesCollection).OrderBy("createdAt", firestore.Asc)
}

// ListMessages retrieves messages in server timestamp order
func (s *FirestoreStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	docs, err := s.messagesQuery(conversationID).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("list messages", "Conversation", conversationID, err)
	}
	msgs, err := decodeAll(docs, setMessageID)
	return msgs, models.AsPersistence("decode messages", err)
}

// SubscribeConversations streams the conversations uid takes part in.
func (s *FirestoreStore) SubscribeConversations(ctx context.Context, uid string, fn SnapshotFunc[models.Conversation], onErr ErrorFunc) (Subscription, error) {
	return watchQuery(ctx, s.conversationsOf(uid), setConversationID, fn, onErr), nil
}

// SubscribeMessages streams one conversation's messages.
func (s *FirestoreStore) SubscribeMessages(ctx context.Context, conversationID string, fn SnapshotFunc[models.Message], onErr ErrorFunc) (Subscription, error) {
	return watchQuery(ctx, s.messagesQuery(conversationID), setMessageID, fn, onErr), nil
}
