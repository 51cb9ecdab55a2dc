package models

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a two-party chat. Its ID is derived from the participants.
type Conversation struct {
	ID               string            `json:"id" firestore:"-" bson:"_id"`
	Participants     []string          `json:"participants" firestore:"participants" bson:"participants"`
	ParticipantNames map[string]string `json:"participant_names" firestore:"participantNames" bson:"participant_names"`
	LastMessage      string            `json:"last_message" firestore:"lastMessage" bson:"last_message"`
	LastMessageTime  *time.Time        `json:"last_message_time,omitempty" firestore:"lastMessageTime" bson:"last_message_time,omitempty"`
	CreatedAt        time.Time         `json:"created_at" firestore:"createdAt,serverTimestamp" bson:"created_at"`
}

// Message is a single chat line.
type Message struct {
	ID         string    `json:"id" firestore:"-" bson:"_id"`
	Text       string    `json:"text" firestore:"text" bson:"text"`
	SenderID   string    `json:"sender_id" firestore:"senderId" bson:"sender_id"`
	SenderName string    `json:"sender_name" firestore:"senderName" bson:"sender_name"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt,serverTimestamp" bson:"created_at"`
}

// ConversationID returns the deterministic id shared by both participants.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// HasParticipant reports whether uid belongs to the conversation.
func (c *Conversation) HasParticipant(uid string) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not uid.
func (c *Conversation) OtherParticipant(uid string) string {
	for _, p := range c.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}

// StartConversationRequest defines the request body for opening a chat
type StartConversationRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name"`
}

// SendMessageRequest defines the request body for sending a chat message
type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
