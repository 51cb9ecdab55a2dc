package repositories

import (
	"context"

	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// PostCheck validates a freshly read post before a conditional write. It runs
// inside the store's transaction where the store has one.
type PostCheck func(*models.Post) error

// PostRepository defines the interface for post and answer data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	// ListPosts returns posts newest first. limit <= 0 means no limit.
	ListPosts(ctx context.Context, limit int) ([]models.Post, error)
	ListAnswers(ctx context.Context, postID string) ([]models.Answer, error)
	// AddAnswer appends the answer and atomically increments answerCount.
	AddAnswer(ctx context.Context, postID string, answer *models.Answer, check PostCheck) error
	// ResolvePost records answerID as helpful and moves the post to resolved.
	ResolvePost(ctx context.Context, postID, answerID string, check PostCheck) error
	SubscribePosts(ctx context.Context, limit int, fn SnapshotFunc[models.Post], onErr ErrorFunc) (Subscription, error)
	// SubscribeAuthorPosts streams every post by authorID in any status. The
	// snapshot order is unspecified.
	SubscribeAuthorPosts(ctx context.Context, authorID string, fn SnapshotFunc[models.Post], onErr ErrorFunc) (Subscription, error)
}

// ReportRepository defines read and cleanup operations on reports
type ReportRepository interface {
	// ListReports returns reports oldest first.
	ListReports(ctx context.Context) ([]models.Report, error)
	ListReportsForPost(ctx context.Context, postID string) ([]models.Report, error)
	DeleteReports(ctx context.Context, ids []string) (int, error)
	SubscribeReports(ctx context.Context, fn SnapshotFunc[models.Report], onErr ErrorFunc) (Subscription, error)
}

// ModerationStore performs the multi-document post state transitions.
type ModerationStore interface {
	// FlagPost stores the report and moves the post to StatusAfterReport.
	FlagPost(ctx context.Context, report *models.Report) error
	// ReinstatePost moves the post to StatusAfterReview and deletes its reports.
	ReinstatePost(ctx context.Context, postID string, check PostCheck) (int, error)
	HidePost(ctx context.Context, postID string, check PostCheck) error
	// PurgePost deletes the post with its answers and reports.
	PurgePost(ctx context.Context, postID string, check PostCheck) (int, error)
	// PurgeAllPosts deletes every post, answer and report and returns the post count.
	PurgeAllPosts(ctx context.Context) (int, error)
}

// ConversationRepository defines the interface for chat data operations
type ConversationRepository interface {
	// CreateConversation creates the conversation unless it exists. It never overwrites.
	CreateConversation(ctx context.Context, conv *models.Conversation) (bool, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, uid string) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID string, msg *models.Message) error
	TouchConversation(ctx context.Context, conversationID, lastMessage string) error
	// ListMessages returns messages in ascending server creation time.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	SubscribeConversations(ctx context.Context, uid string, fn SnapshotFunc[models.Conversation], onErr ErrorFunc) (Subscription, error)
	SubscribeMessages(ctx context.Context, conversationID string, fn SnapshotFunc[models.Message], onErr ErrorFunc) (Subscription, error)
}

// SettingsRepository holds the portal switches and announcements
type SettingsRepository interface {
	// GetPortals returns the switches, storing the defaults on first read.
	GetPortals(ctx context.Context) (models.Portals, error)
	SavePortals(ctx context.Context, portals models.Portals) error
	LatestAnnouncement(ctx context.Context) (*models.Announcement, error)
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
}

// DocumentStore is everything backed by the document database.
type DocumentStore interface {
	PostRepository
	ReportRepository
	ModerationStore
	ConversationRepository
	SettingsRepository
}

func runCheck(check PostCheck, p *models.Post) error {
	if check == nil {
		return nil
	}
	return check(p)
}
