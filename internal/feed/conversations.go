package feed

import (
	"sort"

	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// SortByActivity orders conversations by last message time, newest first.
// Conversations without messages sort last, newest created first.
func SortByActivity(convs []models.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		a, b := convs[i], convs[j]
		switch {
		case a.LastMessageTime != nil && b.LastMessageTime != nil:
			return a.LastMessageTime.After(*b.LastMessageTime)
		case a.LastMessageTime != nil:
			return true
		case b.LastMessageTime != nil:
			return false
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}
