package feed

import (
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// Stats are the moderation dashboard counters.
type Stats struct {
	TotalPosts    int   `json:"total_posts"`
	PostsToday    int   `json:"posts_today"`
	ActiveReports int   `json:"active_reports"`
	HiddenPosts   int   `json:"hidden_posts"`
	TotalUsers    int64 `json:"total_users"`
}

// ComputeStats counts posts overall, posts since local midnight, reported
// posts and hidden posts.
func ComputeStats(posts []models.Post, userCount int64, now time.Time) Stats {
	s := Stats{
		TotalPosts: len(posts),
		PostsToday: len(PostsCreatedSince(posts, StartOfDay(now))),
		TotalUsers: userCount,
	}
	for _, p := range posts {
		switch p.Status {
		case models.StatusReported:
			s.ActiveReports++
		case models.StatusHidden:
			s.HiddenPosts++
		}
	}
	return s
}

// ReviewItem is a post under review with its evidence.
type ReviewItem struct {
	Post        models.Post           `json:"post"`
	ReportCount int                   `json:"report_count"`
	Reasons     []models.ReportReason `json:"reasons"`
	Reports     []models.Report       `json:"reports"`
}

// ReviewQueue lists reported and hidden posts, in input order. Hidden posts
// stay here so a moderator can still deny or delete them.
func ReviewQueue(posts []models.Post, reports []models.Report) []ReviewItem {
	out := make([]ReviewItem, 0)
	for _, p := range posts {
		if p.Status != models.StatusReported && p.Status != models.StatusHidden {
			continue
		}
		rs := ReportsForPost(reports, p.ID)
		out = append(out, ReviewItem{
			Post:        p,
			ReportCount: len(rs),
			Reasons:     DistinctReasons(rs),
			Reports:     rs,
		})
	}
	return out
}

// ConsolePost is a row of the console's all-posts list.
type ConsolePost struct {
	Post        models.Post `json:"post"`
	ReportCount int         `json:"report_count"`
}

// AllPosts lists every post whatever its status, in input order.
func AllPosts(posts []models.Post, reports []models.Report) []ConsolePost {
	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.PostID]++
	}
	out := make([]ConsolePost, 0, len(posts))
	for _, p := range posts {
		out = append(out, ConsolePost{Post: p, ReportCount: counts[p.ID]})
	}
	return out
}

// Dashboard is the moderation console payload.
type Dashboard struct {
	Stats       Stats         `json:"stats"`
	ReviewQueue []ReviewItem  `json:"review_queue"`
	AllPosts    []ConsolePost `json:"all_posts"`
	Leaderboard []FlaggedUser `json:"leaderboard"`
}

// BuildDashboard derives the console from post and report snapshots.
func BuildDashboard(posts []models.Post, reports []models.Report, userCount int64, now time.Time) Dashboard {
	return Dashboard{
		Stats:       ComputeStats(posts, userCount, now),
		ReviewQueue: ReviewQueue(posts, reports),
		AllPosts:    AllPosts(posts, reports),
		Leaderboard: Top(FlaggedUserLeaderboard(posts, reports), LeaderboardSize),
	}
}
