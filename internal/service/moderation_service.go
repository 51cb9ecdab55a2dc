package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/export"
	"github.com/anonto42/campus-p2p/backend/internal/feed"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// MaxAnnouncementLength bounds announcement text.
const MaxAnnouncementLength = 500

// profileLookupLimit caps concurrent profile reads for the leaderboard.
const profileLookupLimit = 4

// FlaggedProfile is a leaderboard row with the author's public details.
type FlaggedProfile struct {
	Profile     models.PublicProfile `json:"profile"`
	ReportCount int                  `json:"report_count"`
	PostCount   int                  `json:"post_count"`
}

// FlaggedUsersView is the leaderboard panel of the console.
type FlaggedUsersView struct {
	Users       []FlaggedProfile `json:"users"`
	MostFlagged *FlaggedProfile  `json:"most_flagged,omitempty"`
}

// ModerationService implements the admin console.
type ModerationService struct {
	docs       repositories.DocumentStore
	settings   repositories.SettingsRepository
	users      repositories.UserRepository
	exporter   export.Exporter
	reconciler *Reconciler
	now        func() time.Time
}

// NewModerationService creates a new ModerationService
func NewModerationService(
	docs repositories.DocumentStore,
	settings repositories.SettingsRepository,
	users repositories.UserRepository,
	exporter export.Exporter,
	reconciler *Reconciler,
) *ModerationService {
	return &ModerationService{
		docs:       docs,
		settings:   settings,
		users:      users,
		exporter:   exporter,
		reconciler: reconciler,
		now:        time.Now,
	}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin {
		return models.NewPermissionDeniedError("Admin access required")
	}
	return nil
}

// DenyReport dismisses every report on a post and returns it to the feed.
func (s *ModerationService) DenyReport(ctx context.Context, actor models.Actor, postID string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	removed, err := s.docs.ReinstatePost(ctx, postID, func(p *models.Post) error { return p.CheckUnderReview() })
	if err != nil {
		return 0, s.fail(ctx, "DenyReport", err)
	}
	s.record(ctx, "deny", postID, map[string]interface{}{"reports_removed": removed})
	return removed, nil
}

// HidePost takes a post out of the feed and keeps its reports.
func (s *ModerationService) HidePost(ctx context.Context, actor models.Actor, postID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.docs.HidePost(ctx, postID, func(p *models.Post) error { return p.CheckHideable() }); err != nil {
		return s.fail(ctx, "HidePost", err)
	}
	s.record(ctx, "hide", postID, nil)
	return nil
}

// DeletePost removes any post with its answers and reports.
func (s *ModerationService) DeletePost(ctx context.Context, actor models.Actor, postID string) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	removed, err := s.docs.PurgePost(ctx, postID, nil)
	if err != nil {
		return 0, s.fail(ctx, "DeletePost", err)
	}
	s.record(ctx, "delete", postID, map[string]interface{}{"reports_removed": removed})
	return removed, nil
}

// DeleteAllPosts wipes every post, answer and report.
func (s *ModerationService) DeleteAllPosts(ctx context.Context, actor models.Actor) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	n, err := s.docs.PurgeAllPosts(ctx)
	if err != nil {
		return n, s.fail(ctx, "DeleteAllPosts", err)
	}
	s.record(ctx, "delete_all", "", map[string]interface{}{"posts_removed": n})
	return n, nil
}

// Dashboard loads posts, reports and the user count and derives the console.
func (s *ModerationService) Dashboard(ctx context.Context, actor models.Actor) (*feed.Dashboard, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	posts, reports, err := s.snapshot(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Dashboard", err)
	}
	userCount, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, "Dashboard", err)
	}
	d := feed.BuildDashboard(posts, reports, userCount, s.now())
	return &d, nil
}

func (s *ModerationService) snapshot(ctx context.Context) ([]models.Post, []models.Report, error) {
	var (
		posts   []models.Post
		reports []models.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = s.docs.ListPosts(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		reports, err = s.docs.ListReports(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return posts, reports, nil
}

// FlaggedUsers returns the top flagged authors with their public profiles.
func (s *ModerationService) FlaggedUsers(ctx context.Context, actor models.Actor) (*FlaggedUsersView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	posts, reports, err := s.snapshot(ctx)
	if err != nil {
		return nil, s.fail(ctx, "FlaggedUsers", err)
	}
	board := feed.Top(feed.FlaggedUserLeaderboard(posts, reports), feed.LeaderboardSize)
	rows, err := s.withProfiles(ctx, board)
	if err != nil {
		return nil, s.fail(ctx, "FlaggedUsers", err)
	}

	view := &FlaggedUsersView{Users: rows}
	if len(rows) > 0 {
		top := rows[0]
		view.MostFlagged = &top
	}
	return view, nil
}

// withProfiles resolves each row's profile concurrently and keeps board order.
// Authors without a profile are dropped.
func (s *ModerationService) withProfiles(ctx context.Context, board []feed.FlaggedUser) ([]FlaggedProfile, error) {
	found := make([]*FlaggedProfile, len(board))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileLookupLimit)
	for i, row := range board {
		i, row := i, row
		g.Go(func() error {
			user, err := s.users.GetUserByUID(gctx, row.UserID)
			if models.IsCode(err, models.CodeNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			found[i] = &FlaggedProfile{Profile: user.Public(), ReportCount: row.ReportCount, PostCount: row.PostCount}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]FlaggedProfile, 0, len(board))
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// ExportFlaggedUsers renders the leaderboard as a PDF or spreadsheet.
func (s *ModerationService) ExportFlaggedUsers(ctx context.Context, actor models.Actor, rawFormat string) (*export.Result, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, models.NewValidationError("Unsupported export format")
	}
	view, err := s.FlaggedUsers(ctx, actor)
	if err != nil {
		return nil, err
	}

	rows := make([]export.Row, 0, len(view.Users))
	for _, u := range view.Users {
		name := u.Profile.FullName
		if name == "" {
			name = models.UnnamedUser
		}
		rows = append(rows, export.Row{
			Name:           name,
			RegisterNumber: u.Profile.RegisterNumber,
			Email:          u.Profile.Email,
			Batch:          u.Profile.Batch,
			TotalReports:   u.ReportCount,
		})
	}

	result, err := s.exporter.Export(ctx, rows, format)
	switch {
	case errors.Is(err, export.ErrNoData):
		return nil, models.NewValidationError("No data to export")
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return nil, &models.AppError{Code: models.CodeStorage, Message: "PDF export is not available on this server", Err: err}
	case err != nil:
		observability.LogServiceError(ctx, "ModerationService", "ExportFlaggedUsers", err, map[string]interface{}{"format": format})
		return nil, &models.AppError{Code: models.CodeStorage, Message: "Export failed", Err: err}
	}
	s.record(ctx, "export", "", map[string]interface{}{"format": format, "rows": len(rows)})
	return result, nil
}

// UpdatePortals applies a partial update to the portal switches.
func (s *ModerationService) UpdatePortals(ctx context.Context, actor models.Actor, patch models.UpdatePortalsRequest) (models.Portals, error) {
	if err := requireAdmin(actor); err != nil {
		return models.Portals{}, err
	}
	current, err := s.settings.GetPortals(ctx)
	if err != nil {
		return current, s.fail(ctx, "UpdatePortals", err)
	}
	next := patch.Apply(current)
	if err := s.settings.SavePortals(ctx, next); err != nil {
		return current, s.fail(ctx, "UpdatePortals", err)
	}
	s.record(ctx, "portals", "", map[string]interface{}{
		"qa": next.QA, "marketplace": next.Marketplace, "lostfound": next.LostFound, "teamup": next.TeamUp,
	})
	return next, nil
}

// PostAnnouncement publishes a site-wide notice.
func (s *ModerationService) PostAnnouncement(ctx context.Context, actor models.Actor, text string) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Announcement cannot be empty")
	}
	if len([]rune(text)) > MaxAnnouncementLength {
		return nil, models.NewValidationError("Announcement is too long")
	}
	a := &models.Announcement{Text: text}
	if err := s.settings.CreateAnnouncement(ctx, a); err != nil {
		return nil, s.fail(ctx, "PostAnnouncement", err)
	}
	s.record(ctx, "announce", "", map[string]interface{}{"announcement_id": a.ID})
	return a, nil
}

// Reconcile runs one reconciler sweep now.
func (s *ModerationService) Reconcile(ctx context.Context, actor models.Actor) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if s.reconciler == nil {
		return 0, nil
	}
	n, err := s.reconciler.Sweep(ctx)
	if err != nil {
		return n, s.fail(ctx, "Reconcile", err)
	}
	return n, nil
}

func (s *ModerationService) record(ctx context.Context, action, postID string, fields map[string]interface{}) {
	observability.ModerationActions.WithLabelValues(action).Inc()
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if postID != "" {
		fields["post_id"] = postID
	}
	observability.LogServiceCall(ctx, "ModerationService", action, fields)
}

func (s *ModerationService) fail(ctx context.Context, method string, err error) error {
	return failed(ctx, "ModerationService", method, err)
}
