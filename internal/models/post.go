package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is the kind of listing a post represents.
type Category string

const (
	CategoryQA     Category = "qa"
	CategorySell   Category = "sell"
	CategoryBuy    Category = "buy"
	CategoryNeed   Category = "need"
	CategoryLost   Category = "lost"
	CategoryFound  Category = "found"
	CategoryTeamUp Category = "teamup"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryQA, CategorySell, CategoryBuy, CategoryNeed, CategoryLost, CategoryFound, CategoryTeamUp,
}

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("Unknown category %q", raw))
}

// PostStatus is the moderation state of a post.
type PostStatus string

const (
	StatusActive   PostStatus = "active"
	StatusReported PostStatus = "reported"
	StatusResolved PostStatus = "resolved"
	StatusHidden   PostStatus = "hidden"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MaxAnswerLength      = 1000
)

// Post is a listing in the community feed.
// AuthorName is captured when the post is created and is never rewritten.
type Post struct {
	ID              string     `json:"id" firestore:"-" bson:"_id"`
	Category        Category   `json:"category" firestore:"category" bson:"category"`
	Title           string     `json:"title" firestore:"title" bson:"title"`
	Description     string     `json:"description" firestore:"description" bson:"description"`
	ImageURL        string     `json:"image_url,omitempty" firestore:"imageUrl,omitempty" bson:"image_url,omitempty"`
	AuthorID        string     `json:"author_id" firestore:"authorId" bson:"author_id"`
	AuthorName      string     `json:"author_name" firestore:"authorName" bson:"author_name"`
	CreatedAt       time.Time  `json:"created_at" firestore:"createdAt,serverTimestamp" bson:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" firestore:"updatedAt,omitempty" bson:"updated_at,omitempty"`
	Status          PostStatus `json:"status" firestore:"status" bson:"status"`
	HelpfulAnswerID *string    `json:"helpful_answer_id" firestore:"helpfulAnswerId" bson:"helpful_answer_id"`
	AnswerCount     int64      `json:"answer_count" firestore:"answerCount" bson:"answer_count"`
}

// CreatePostRequest is the form body of a new post. The image travels as a multipart file.
type CreatePostRequest struct {
	Category    string `form:"category" json:"category" validate:"required"`
	Title       string `form:"title" json:"title" validate:"required,max=100"`
	Description string `form:"description" json:"description" validate:"required,max=1000"`
}

// NewPost builds a post in its initial state.
func NewPost(category Category, title, description, imageURL string, author Actor, authorName string) *Post {
	return &Post{
		Category:    category,
		Title:       title,
		Description: description,
		ImageURL:    imageURL,
		AuthorID:    author.UID,
		AuthorName:  authorName,
		Status:      StatusActive,
	}
}

// IsResolved reports whether a helpful answer has been chosen.
func (p *Post) IsResolved() bool {
	return p.Status == StatusResolved
}

// CheckAcceptsAnswer returns an error when no further answers may be appended.
func (p *Post) CheckAcceptsAnswer() error {
	if p.IsResolved() {
		return NewValidationError("This question has already been resolved")
	}
	return nil
}

// CheckResolvableBy validates a helpful-answer selection by the given actor.
func (p *Post) CheckResolvableBy(actor Actor) error {
	if p.AuthorID != actor.UID {
		return NewPermissionDeniedError("Only the author can mark an answer as helpful")
	}
	if p.Category != CategoryQA {
		return NewValidationError("Only questions can be marked as resolved")
	}
	if p.IsResolved() || p.HelpfulAnswerID != nil {
		return NewValidationError("This question has already been resolved")
	}
	return nil
}

// CheckUnderReview returns an error unless the post is waiting on a moderator.
func (p *Post) CheckUnderReview() error {
	if p.Status != StatusReported && p.Status != StatusHidden {
		return NewValidationError("Post is not under review")
	}
	return nil
}

// StatusAfterReport is the status a new report moves the post to. Every
// report reopens review, so a hidden or resolved post becomes reported too.
func (p *Post) StatusAfterReport() PostStatus {
	return StatusReported
}

// StatusAfterReview is the status a dismissed review restores. A post that
// already has a helpful answer returns to resolved.
func (p *Post) StatusAfterReview() PostStatus {
	if p.HelpfulAnswerID != nil {
		return StatusResolved
	}
	return StatusActive
}

// CheckHideable returns an error unless the post can be taken out of the feed.
func (p *Post) CheckHideable() error {
	switch p.Status {
	case StatusActive, StatusReported:
		return nil
	case StatusHidden:
		return NewValidationError("Post is already hidden")
	default:
		return NewValidationError("Resolved posts cannot be hidden")
	}
}

// CheckDeletableBy allows the author and admins.
func (p *Post) CheckDeletableBy(actor Actor) error {
	if p.AuthorID != actor.UID && !actor.IsAdmin {
		return NewPermissionDeniedError("You can only delete your own posts")
	}
	return nil
}

// VisibleTo reports whether the actor may see the post outside the moderation console.
func (p *Post) VisibleTo(actor Actor) bool {
	switch p.Status {
	case StatusActive, StatusResolved:
		return true
	default:
		return actor.IsAdmin || p.AuthorID == actor.UID
	}
}
