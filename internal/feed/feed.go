// Package feed derives every list the portal shows from raw post and report snapshots.
// Functions here are pure and safe to call from any subscription callback.
package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/models"
)

// Page is a section of the portal.
type Page string

const (
	PageHome        Page = "home"
	PageQA          Page = "qa"
	PageMarketplace Page = "marketplace"
	PageLostFound   Page = "lostfound"
	PageTeamUp      Page = "teamup"
)

// FilterAll disables the per-category tab filter.
const FilterAll = "all"

var pageCategories = map[Page][]models.Category{
	PageQA:          {models.CategoryQA},
	PageMarketplace: {models.CategorySell, models.CategoryBuy, models.CategoryNeed},
	PageLostFound:   {models.CategoryLost, models.CategoryFound},
	PageTeamUp:      {models.CategoryTeamUp},
}

// CategoriesFor returns the categories a page shows, or nil when it shows everything.
func CategoriesFor(page Page) []models.Category {
	return pageCategories[page]
}

// PortalFor maps a category to the page whose switch gates it.
func PortalFor(c models.Category) Page {
	for page, cats := range pageCategories {
		for _, cat := range cats {
			if cat == c {
				return page
			}
		}
	}
	return PageHome
}

// PortalEnabled reports whether the switch for page is on. Home is always on.
func PortalEnabled(portals models.Portals, page Page) bool {
	switch page {
	case PageQA:
		return portals.QA
	case PageMarketplace:
		return portals.Marketplace
	case PageLostFound:
		return portals.LostFound
	case PageTeamUp:
		return portals.TeamUp
	default:
		return true
	}
}

// FilterForPage returns the posts a page shows, in input order.
// Reported and hidden posts never appear. Unknown pages apply no category
// restriction. The search term is matched case-insensitively against title,
// description and author name.
func FilterForPage(posts []models.Post, page Page, filterTab, search string) []models.Post {
	allowed := CategoriesFor(page)
	needle := strings.ToLower(strings.TrimSpace(search))
	tab := strings.TrimSpace(filterTab)

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if !Listed(p) {
			continue
		}
		if allowed != nil && !containsCategory(allowed, p.Category) {
			continue
		}
		if tab != "" && tab != FilterAll && string(p.Category) != tab {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) &&
			!strings.Contains(strings.ToLower(p.AuthorName), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Listed reports whether a post may appear in public lists.
func Listed(p models.Post) bool {
	return p.Status != models.StatusReported && p.Status != models.StatusHidden
}

// WithinPortals drops posts whose portal is switched off.
func WithinPortals(posts []models.Post, portals models.Portals) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if PortalEnabled(portals, PortalFor(p.Category)) {
			out = append(out, p)
		}
	}
	return out
}

// MyPosts returns every post by uid regardless of status, in input order.
func MyPosts(posts []models.Post, uid string) []models.Post {
	out := make([]models.Post, 0)
	for _, p := range posts {
		if p.AuthorID == uid {
			out = append(out, p)
		}
	}
	return out
}

// PostsCreatedSince returns posts whose creation day, in cutoff's location,
// is on or after cutoff's day.
func PostsCreatedSince(posts []models.Post, cutoff time.Time) []models.Post {
	day := StartOfDay(cutoff)
	out := make([]models.Post, 0)
	for _, p := range posts {
		if !StartOfDay(p.CreatedAt.In(cutoff.Location())).Before(day) {
			out = append(out, p)
		}
	}
	return out
}

// StartOfDay is local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ReportsForPost returns the reports referencing postID, in input order.
func ReportsForPost(reports []models.Report, postID string) []models.Report {
	out := make([]models.Report, 0)
	for _, r := range reports {
		if r.PostID == postID {
			out = append(out, r)
		}
	}
	return out
}

// DistinctReasons returns each reason once, in first-seen order.
func DistinctReasons(reports []models.Report) []models.ReportReason {
	seen := make(map[models.ReportReason]bool)
	out := make([]models.ReportReason, 0)
	for _, r := range reports {
		if seen[r.Reason] {
			continue
		}
		seen[r.Reason] = true
		out = append(out, r.Reason)
	}
	return out
}

func containsCategory(cats []models.Category, c models.Category) bool {
	for _, cat := range cats {
		if cat == c {
			return true
		}
	}
	return false
}

// NewestFirst sorts posts by creation time, newest first, keeping input order for ties.
func NewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
