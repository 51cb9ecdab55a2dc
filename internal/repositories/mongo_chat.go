package repositories

import (
	"context"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// messageDocument stores a message with its conversation key.
type messageDocument struct {
	ConversationID string `bson:"conversation_id"`
	models.Message `bson:",inline"`
}

// CreateConversation inserts the conversation; a duplicate id means it already exists.
func (s *MongoStore) CreateConversation(ctx context.Context, conv *models.Conversation) (bool, error) {
	conv.CreatedAt = s.now()
	_, err := s.conversations.InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, translate("create conversation", "Conversation", conv.ID, err)
	}
	return true, nil
}

// GetConversation retrieves a conversation by ID
func (s *MongoStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	if err := s.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate("load conversation", "Conversation", id, err)
	}
	return &c, nil
}

func (s *MongoStore) listConversations(ctx context.Context, uid string) ([]models.Conversation, error) {
	return findAll[models.Conversation](ctx, s.conversations, bson.M{"participants": uid})
}

// ListConversations retrieves the conversations uid takes part in
func (s *MongoStore) ListConversations(ctx context.Context, uid string) ([]models.Conversation, error) {
	convs, err := s.listConversations(ctx, uid)
	return convs, translate("list conversations", "User", uid, err)
}

// AppendMessage stores a message stamped with this server's clock.
func (s *MongoStore) AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error {
	msg.ID = newID()
	msg.CreatedAt = s.now()
	doc := messageDocument{ConversationID: conversationID, Message: *msg}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return translate("send message", "Conversation", conversationID, err)
	}
	return nil
}

// TouchConversation refreshes the preview fields.
func (s *MongoStore) TouchConversation(ctx context.Context, conversationID, lastMessage string) error {
	res, err := s.conversations.UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$set": bson.M{
		"last_message":      lastMessage,
		"last_message_time": s.now(),
	}})
	if err != nil {
		return translate("update conversation", "Conversation", conversationID, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Conversation", conversationID)
	}
	return nil
}

func (s *MongoStore) listMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	docs, err := findAll[messageDocument](ctx, s.messages, bson.M{"conversation_id": conversationID}, findOptions)
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Message)
	}
	return out, nil
}

// ListMessages retrieves messages in ascending creation order
func (s *MongoStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	msgs, err := s.listMessages(ctx, conversationID)
	return msgs, translate("list messages", "Conversation", conversationID, err)
}

// SubscribeConversations streams the conversations uid takes part in.
func (s *MongoStore) SubscribeConversations(ctx context.Context, uid string, fn SnapshotFunc[models.Conversation], onErr ErrorFunc) (Subscription, error) {
	load := func(ctx context.Context) ([]models.Conversation, error) { return s.listConversations(ctx, uid) }
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"fullDocument.participants": uid}}}}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	return watchCollection(ctx, s.conversations, pipeline, load, fn, onErr, opts)
}

// SubscribeMessages streams one conversation's messages.
func (s *MongoStore) SubscribeMessages(ctx context.Context, conversationID string, fn SnapshotFunc[models.Message], onErr ErrorFunc) (Subscription, error) {
	load := func(ctx context.Context) ([]models.Message, error) { return s.listMessages(ctx, conversationID) }
	return watchCollection(ctx, s.messages, matchField("conversation_id", conversationID), load, fn, onErr)
}
