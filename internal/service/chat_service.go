package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
)

// MaxMessageLength bounds a chat message.
const MaxMessageLength = 2000

// ChatService implements two-party messaging.
type ChatService struct {
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
}

// NewChatService creates a new ChatService
func NewChatService(conversations repositories.ConversationRepository, users repositories.UserRepository) *ChatService {
	return &ChatService{conversations: conversations, users: users}
}

// EnsureConversation opens the chat between the caller and otherUID, creating
// it on first contact. Existing metadata is never overwritten.
func (s *ChatService) EnsureConversation(ctx context.Context, actor models.Actor, otherUID, otherName string) (*models.Conversation, error) {
	otherUID = strings.TrimSpace(otherUID)
	if otherUID == "" {
		return nil, models.NewValidationError("User ID is required")
	}
	if otherUID == actor.UID {
		return nil, models.NewValidationError("You cannot message yourself")
	}

	id := models.ConversationID(actor.UID, otherUID)
	conv := &models.Conversation{
		ID:           id,
		Participants: []string{actor.UID, otherUID},
		ParticipantNames: map[string]string{
			actor.UID: s.nameOf(ctx, actor.UID, actor.Name),
			otherUID:  s.nameOf(ctx, otherUID, otherName),
		},
	}
	created, err := s.conversations.CreateConversation(ctx, conv)
	if err != nil {
		return nil, s.fail(ctx, "EnsureConversation", err)
	}
	if created {
		observability.LogServiceCall(ctx, "ChatService", "EnsureConversation", map[string]interface{}{
			"conversation_id": id,
		})
	}
	return s.conversations.GetConversation(ctx, id)
}

func (s *ChatService) nameOf(ctx context.Context, uid, fallback string) string {
	if s.users != nil {
		if u, err := s.users.GetUserByUID(ctx, uid); err == nil && u.DisplayName() != "" {
			return u.DisplayName()
		}
	}
	if name := strings.TrimSpace(fallback); name != "" {
		return name
	}
	return models.UnnamedUser
}

// SendMessage appends a message and then refreshes the conversation preview.
func (s *ChatService) SendMessage(ctx context.Context, actor models.Actor, conversationID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}
	if _, err := s.participantOf(ctx, actor, conversationID); err != nil {
		return nil, err
	}

	msg := &models.Message{Text: text, SenderID: actor.UID, SenderName: s.nameOf(ctx, actor.UID, actor.Name)}
	if err := s.conversations.AppendMessage(ctx, conversationID, msg); err != nil {
		return nil, s.fail(ctx, "SendMessage", err)
	}
	observability.MessagesSent.Inc()

	if err := s.conversations.TouchConversation(ctx, conversationID, text); err != nil {
		return msg, s.fail(ctx, "SendMessage", models.NewPartialFailureError("conversation preview", err))
	}
	return msg, nil
}

// ListConversations returns the caller's conversations, most recent activity first.
func (s *ChatService) ListConversations(ctx context.Context, actor models.Actor) ([]models.Conversation, error) {
	convs, err := s.conversations.ListConversations(ctx, actor.UID)
	if err != nil {
		return nil, s.fail(ctx, "ListConversations", err)
	}
	feed.SortByActivity(convs)
	return convs, nil
}

// ListMessages returns a conversation's messages oldest first.
func (s *ChatService) ListMessages(ctx context.Context, actor models.Actor, conversationID string) ([]models.Message, error) {
	if _, err := s.participantOf(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, s.fail(ctx, "ListMessages", err)
	}
	return msgs, nil
}

// Participant loads a conversation and checks that the caller belongs to it.
func (s *ChatService) Participant(ctx context.Context, actor models.Actor, conversationID string) (*models.Conversation, error) {
	return s.participantOf(ctx, actor, conversationID)
}

func (s *ChatService) participantOf(ctx context.Context, actor models.Actor, conversationID string) (*models.Conversation, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, models.NewValidationError("Conversation ID is required")
	}
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, s.fail(ctx, "participantOf", err)
	}
	if !conv.HasParticipant(actor.UID) {
		return nil, models.NewPermissionDeniedError("You are not part of this conversation")
	}
	return conv, nil
}

func (s *ChatService) fail(ctx context.Context, method string, err error) error {
	return failed(ctx, "ChatService", method, err)
}
