package feed

import (
	"sort"

	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// LeaderboardSize is how many flagged users the console shows and exports.
const LeaderboardSize = 10

// FlaggedUser is one leaderboard row.
type FlaggedUser struct {
	UserID      string `json:"user_id"`
	ReportCount int    `json:"report_count"`
	PostCount   int    `json:"post_count"`
}

// FlaggedUserLeaderboard counts reports against each author, along with the
// author's total posts.
// Reports whose post is not in posts are skipped. Rows are sorted by count
// descending; ties keep the order in which the author was first counted.
func FlaggedUserLeaderboard(posts []models.Post, reports []models.Report) []FlaggedUser {
	authorOf := make(map[string]string, len(posts))
	postCounts := PostsByAuthor(posts)
	for _, p := range posts {
		authorOf[p.ID] = p.AuthorID
	}

	index := make(map[string]int)
	board := make([]FlaggedUser, 0)
	for _, r := range reports {
		author, ok := authorOf[r.PostID]
		if !ok {
			continue
		}
		i, seen := index[author]
		if !seen {
			i = len(board)
			index[author] = i
			board = append(board, FlaggedUser{UserID: author, PostCount: postCounts[author]})
		}
		board[i].ReportCount++
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].ReportCount > board[j].ReportCount
	})
	return board
}

// PostsByAuthor counts posts per author uid.
func PostsByAuthor(posts []models.Post) map[string]int {
	counts := make(map[string]int)
	for _, p := range posts {
		counts[p.AuthorID]++
	}
	return counts
}

// Top returns at most n leading rows.
func Top(board []FlaggedUser, n int) []FlaggedUser {
	if len(board) > n {
		return board[:n]
	}
	return board
}

// MostFlagged is rank 1, if any.
func MostFlagged(board []FlaggedUser) (FlaggedUser, bool) {
	if len(board) == 0 {
		return FlaggedUser{}, false
	}
	return board[0], true
}
