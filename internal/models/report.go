package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportReason classifies why a post was flagged.
type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonHarassment    ReportReason = "harassment"
	ReasonScam          ReportReason = "scam"
	ReasonOther         ReportReason = "other"
)

// ReportReasons lists the accepted reasons.
var ReportReasons = []ReportReason{ReasonSpam, ReasonInappropriate, ReasonHarassment, ReasonScam, ReasonOther}

// ParseReportReason validates a raw reason value.
func ParseReportReason(raw string) (ReportReason, error) {
	r := ReportReason(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range ReportReasons {
		if r == known {
			return r, nil
		}
	}
	if r == "" {
		return "", NewValidationError("Please select a reason")
	}
	return "", NewValidationError(fmt.Sprintf("Unknown report reason %q", raw))
}

// Report is one user's flag against a post.
type Report struct {
	ID         string       `json:"id" firestore:"-" bson:"_id"`
	PostID     string       `json:"post_id" firestore:"postId" bson:"post_id"`
	Reason     ReportReason `json:"reason" firestore:"reason" bson:"reason"`
	Details    string       `json:"details" firestore:"details" bson:"details"`
	ReporterID string       `json:"reporter_id" firestore:"reporterId" bson:"reporter_id"`
	CreatedAt  time.Time    `json:"created_at" firestore:"createdAt,serverTimestamp" bson:"created_at"`
}

// CreateReportRequest defines the request body for reporting a post
type CreateReportRequest struct {
	Reason  string `json:"reason" validate:"required"`
	Details string `json:"details" validate:"max=1000"`
}
