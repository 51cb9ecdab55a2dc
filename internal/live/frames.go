// Package live keeps a connected client's view of the portal current by
// owning its store subscriptions and pushing recomputed frames.
package live

import (
	"errors"

	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// Command types accepted from the client.
const (
	CommandNavigate  = "navigate"
	CommandFilter    = "filter"
	CommandSearch    = "search"
	CommandOpenChat  = "open_chat"
	CommandCloseChat = "close_chat"
)

// Frame types pushed to the client.
const (
	FrameFeed          = "feed"
	FrameConversations = "conversations"
	FrameMessages      = "messages"
	FrameDashboard     = "dashboard"
	FrameError         = "error"
)

// Command is a client request to change the view.
type Command struct {
	Type           string `json:"type"`
	Page           string `json:"page,omitempty"`
	Filter         string `json:"filter,omitempty"`
	Search         string `json:"search,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Frame is one server push.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ViewState is what the client is looking at.
type ViewState struct {
	Page      feed.Page `json:"page"`
	FilterTab string    `json:"filter"`
	Search    string    `json:"search"`
	ChatID    string    `json:"chat_id,omitempty"`
}

// DefaultView is the landing page with no filters.
func DefaultView() ViewState {
	return ViewState{Page: feed.PageHome, FilterTab: feed.FilterAll}
}

// FeedData is the payload of a feed frame.
type FeedData struct {
	View    ViewState      `json:"view"`
	Portals models.Portals `json:"portals"`
	Posts   []models.Post  `json:"posts"`
	MyPosts []models.Post  `json:"my_posts"`
}

// MessagesData is the payload of a messages frame.
type MessagesData struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []models.Message `json:"messages"`
}

// Sink receives frames. Implementations need not be safe for concurrent use;
// a Session never calls Send concurrently.
type Sink interface {
	Send(Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Frame) error

// Send calls f.
func (f SinkFunc) Send(frame Frame) error { return f(frame) }

func errorFrame(err error) Frame {
	resp := models.ErrorResponse{Error: "Live update failed", Code: models.CodePersistence}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
		switch appErr.Code {
		case models.CodeValidation, models.CodeNotFound, models.CodePermissionDenied, models.CodeUnauthorized:
			resp.Error = appErr.Message
		}
	}
	return Frame{Type: FrameError, Data: resp}
}
