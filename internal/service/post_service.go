// Package service implements the post lifecycle, moderation and messaging operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anonto42/campus-p2p/backend/internal/blob"
	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
)

// DefaultMaxImageSize is the upload ceiling when none is configured.
const DefaultMaxImageSize = 5 * 1024 * 1024

// ImageUpload is an optional image attached to a new post.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// CreatePostInput is the user-supplied part of a new post.
type CreatePostInput struct {
	Category    string
	Title       string
	Description string
	Image       *ImageUpload
}

// ReportInput is the user-supplied part of a report.
type ReportInput struct {
	Reason  string
	Details string
}

// FeedQuery selects a page of the feed.
type FeedQuery struct {
	Page   feed.Page
	Filter string
	Search string
}

// PostDetail is a post with its answers, oldest first.
type PostDetail struct {
	Post    *models.Post    `json:"post"`
	Answers []models.Answer `json:"answers"`
}

// PostServiceConfig carries the limits PostService enforces.
type PostServiceConfig struct {
	MaxImageSize int64
	FeedWindow   int
}

// PostService runs the post lifecycle: create, report, answer, resolve and delete.
type PostService struct {
	posts      repositories.PostRepository
	moderation repositories.ModerationStore
	settings   repositories.SettingsRepository
	users      repositories.UserRepository
	blobs      blob.Store
	cfg        PostServiceConfig
	now        func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(
	posts repositories.PostRepository,
	moderation repositories.ModerationStore,
	settings repositories.SettingsRepository,
	users repositories.UserRepository,
	blobs blob.Store,
	cfg PostServiceConfig,
) *PostService {
	if cfg.MaxImageSize <= 0 {
		cfg.MaxImageSize = DefaultMaxImageSize
	}
	if cfg.FeedWindow <= 0 {
		cfg.FeedWindow = 100
	}
	return &PostService{
		posts:      posts,
		moderation: moderation,
		settings:   settings,
		users:      users,
		blobs:      blobs,
		cfg:        cfg,
		now:        time.Now,
	}
}

// CreatePost validates the input, uploads the image if any and stores the post.
func (s *PostService) CreatePost(ctx context.Context, actor models.Actor, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if strings.TrimSpace(in.Category) == "" || title == "" || description == "" {
		return nil, models.NewValidationError("Please fill in all required fields")
	}
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return nil, models.NewValidationError(fmt.Sprintf("Title must be at most %d characters", models.MaxTitleLength))
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return nil, models.NewValidationError(fmt.Sprintf("Description must be at most %d characters", models.MaxDescriptionLength))
	}
	if err := s.checkImage(in.Image); err != nil {
		return nil, err
	}

	portals, err := s.settings.GetPortals(ctx)
	if err != nil {
		return nil, s.fail(ctx, "CreatePost", err)
	}
	if !feed.PortalEnabled(portals, feed.PortalFor(category)) {
		return nil, models.NewValidationError("This portal is currently disabled")
	}

	imageURL := ""
	if in.Image != nil {
		name := blob.ObjectPath(s.now(), in.Image.Filename)
		imageURL, err = s.blobs.Upload(ctx, name, in.Image.ContentType, in.Image.Size, in.Image.Reader)
		if err != nil {
			return nil, s.fail(ctx, "CreatePost", models.NewStorageError(err))
		}
	}

	post := models.NewPost(category, title, description, imageURL, actor, s.authorName(ctx, actor))
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, s.fail(ctx, "CreatePost", err)
	}

	observability.PostsCreated.WithLabelValues(string(category)).Inc()
	observability.LogServiceCall(ctx, "PostService", "CreatePost", map[string]interface{}{
		"post_id": post.ID, "category": category, "author_id": actor.UID,
	})
	return post, nil
}

func (s *PostService) checkImage(img *ImageUpload) error {
	if img == nil {
		return nil
	}
	if img.Size > s.cfg.MaxImageSize {
		return models.NewPayloadTooLargeError("Image must be " + sizeLabel(s.cfg.MaxImageSize) + " or smaller")
	}
	if !strings.HasPrefix(strings.ToLower(img.ContentType), "image/") {
		return models.NewValidationError("Only image files can be attached")
	}
	if img.Reader == nil {
		return models.NewValidationError("Image could not be read")
	}
	return nil
}

func sizeLabel(n int64) string {
	if n >= 1024*1024 {
		return fmt.Sprintf("%dMB", n/(1024*1024))
	}
	return fmt.Sprintf("%dKB", n/1024)
}

// authorName is the name frozen onto new content: profile name, then token name.
func (s *PostService) authorName(ctx context.Context, actor models.Actor) string {
	if s.users != nil {
		user, err := s.users.GetUserByUID(ctx, actor.UID)
		if err == nil && user.DisplayName() != "" {
			return user.DisplayName()
		}
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			observability.LogServiceError(ctx, "PostService", "authorName", err, map[string]interface{}{"uid": actor.UID})
		}
	}
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	return models.UnnamedUser
}

// SubmitReport records a report and moves the post into review.
func (s *PostService) SubmitReport(ctx context.Context, actor models.Actor, postID string, in ReportInput) (*models.Report, error) {
	reason, err := models.ParseReportReason(in.Reason)
	if err != nil {
		return nil, err
	}
	details := strings.TrimSpace(in.Details)
	if utf8.RuneCountInString(details) > models.MaxDescriptionLength {
		return nil, models.NewValidationError("Details are too long")
	}
	if strings.TrimSpace(postID) == "" {
		return nil, models.NewValidationError("Post ID is required")
	}

	report := &models.Report{PostID: postID, Reason: reason, Details: details, ReporterID: actor.UID}
	if err := s.moderation.FlagPost(ctx, report); err != nil {
		return nil, s.fail(ctx, "SubmitReport", err)
	}

	observability.ReportsSubmitted.WithLabelValues(string(reason)).Inc()
	observability.LogServiceCall(ctx, "PostService", "SubmitReport", map[string]interface{}{
		"post_id": postID, "reason": reason, "reporter_id": actor.UID,
	})
	return report, nil
}

// DeletePost removes a post with its answers and reports. Owners and admins only.
func (s *PostService) DeletePost(ctx context.Context, actor models.Actor, postID string) error {
	check := func(p *models.Post) error { return p.CheckDeletableBy(actor) }
	removed, err := s.moderation.PurgePost(ctx, postID, check)
	if err != nil {
		return s.fail(ctx, "DeletePost", err)
	}
	observability.LogServiceCall(ctx, "PostService", "DeletePost", map[string]interface{}{
		"post_id": postID, "reports_removed": removed, "actor": actor.UID,
	})
	return nil
}

// SubmitAnswer appends an answer to an unresolved post.
func (s *PostService) SubmitAnswer(ctx context.Context, actor models.Actor, postID, text string) (*models.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Answer cannot be empty")
	}
	if utf8.RuneCountInString(text) > models.MaxAnswerLength {
		return nil, models.NewValidationError(fmt.Sprintf("Answer must be at most %d characters", models.MaxAnswerLength))
	}

	answer := &models.Answer{Text: text, AuthorID: actor.UID, AuthorName: s.authorName(ctx, actor)}
	check := func(p *models.Post) error {
		if !p.VisibleTo(actor) {
			return models.NewNotFoundError("Post", postID)
		}
		return p.CheckAcceptsAnswer()
	}
	if err := s.posts.AddAnswer(ctx, postID, answer, check); err != nil {
		return nil, s.fail(ctx, "SubmitAnswer", err)
	}

	observability.AnswersSubmitted.Inc()
	observability.LogServiceCall(ctx, "PostService", "SubmitAnswer", map[string]interface{}{
		"post_id": postID, "answer_id": answer.ID, "author_id": actor.UID,
	})
	return answer, nil
}

// MarkHelpful resolves a question with one of its answers. Resolution is
// permanent; there is no operation that reopens a resolved post.
func (s *PostService) MarkHelpful(ctx context.Context, actor models.Actor, postID, answerID string) error {
	if strings.TrimSpace(answerID) == "" {
		return models.NewValidationError("Answer ID is required")
	}
	check := func(p *models.Post) error { return p.CheckResolvableBy(actor) }
	if err := s.posts.ResolvePost(ctx, postID, answerID, check); err != nil {
		return s.fail(ctx, "MarkHelpful", err)
	}
	observability.LogServiceCall(ctx, "PostService", "MarkHelpful", map[string]interface{}{
		"post_id": postID, "answer_id": answerID,
	})
	return nil
}

// GetPost returns a post with its answers. Posts under review are only
// visible to their author and admins.
func (s *PostService) GetPost(ctx context.Context, actor models.Actor, postID string) (*PostDetail, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, s.fail(ctx, "GetPost", err)
	}
	if !post.VisibleTo(actor) {
		return nil, models.NewNotFoundError("Post", postID)
	}
	answers, err := s.posts.ListAnswers(ctx, postID)
	if err != nil {
		return nil, s.fail(ctx, "GetPost", err)
	}
	return &PostDetail{Post: post, Answers: answers}, nil
}

// ListFeed returns the posts a page shows for the current portal switches.
func (s *PostService) ListFeed(ctx context.Context, actor models.Actor, q FeedQuery) ([]models.Post, error) {
	if q.Page == "" {
		q.Page = feed.PageHome
	}
	portals, err := s.settings.GetPortals(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ListFeed", err)
	}
	if !feed.PortalEnabled(portals, q.Page) {
		return nil, models.NewValidationError("This portal is currently disabled")
	}
	posts, err := s.posts.ListPosts(ctx, s.cfg.FeedWindow)
	if err != nil {
		return nil, s.fail(ctx, "ListFeed", err)
	}
	return feed.WithinPortals(feed.FilterForPage(posts, q.Page, q.Filter, q.Search), portals), nil
}

// MyPosts returns every post by the caller, including those under review.
func (s *PostService) MyPosts(ctx context.Context, actor models.Actor) ([]models.Post, error) {
	posts, err := s.posts.ListPosts(ctx, 0)
	if err != nil {
		return nil, s.fail(ctx, "MyPosts", err)
	}
	return feed.MyPosts(posts, actor.UID), nil
}

// Portals returns the current portal switches.
func (s *PostService) Portals(ctx context.Context) (models.Portals, error) {
	p, err := s.settings.GetPortals(ctx)
	if err != nil {
		return p, s.fail(ctx, "Portals", err)
	}
	return p, nil
}

// LatestAnnouncement returns the newest announcement.
func (s *PostService) LatestAnnouncement(ctx context.Context) (*models.Announcement, error) {
	a, err := s.settings.LatestAnnouncement(ctx)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, s.fail(ctx, "LatestAnnouncement", err)
	}
	return a, err
}

func (s *PostService) fail(ctx context.Context, method string, err error) error {
	return failed(ctx, "PostService", method, err)
}

// failed logs unexpected errors and counts partial failures. Expected
// client errors pass through quietly.
func failed(ctx context.Context, service, method string, err error) error {
	switch models.ErrorCode(err) {
	case models.CodeValidation, models.CodeNotFound, models.CodePermissionDenied, models.CodePayloadTooLarge:
		return err
	case models.CodePartialFailure:
		observability.PartialFailures.WithLabelValues(method).Inc()
	}
	observability.LogServiceError(ctx, service, method, err, nil)
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewPersistenceError(method, err)
}
