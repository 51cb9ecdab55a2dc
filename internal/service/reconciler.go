package service

import (
	"context"
	"time"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/internal/repositories"
)

const (
	DefaultReportGracePeriod = 5 * time.Minute
	DefaultReconcileInterval = 10 * time.Minute
)

// reconcileStore is the slice of the document store the sweep needs.
type reconcileStore interface {
	ListPosts(ctx context.Context, limit int) ([]models.Post, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	DeleteReports(ctx context.Context, ids []string) (int, error)
}

// Reconciler removes reports left behind by interrupted multi-step writes.
type Reconciler struct {
	store reconcileStore
	grace time.Duration
	now   func() time.Time
}

var _ reconcileStore = (repositories.DocumentStore)(nil)

// NewReconciler creates a Reconciler. grace <= 0 selects the default.
func NewReconciler(store repositories.DocumentStore, grace time.Duration) *Reconciler {
	if grace <= 0 {
		grace = DefaultReportGracePeriod
	}
	return &Reconciler{store: store, grace: grace, now: time.Now}
}

// Orphaned returns the reports that no longer belong to a post under review.
// A report is orphaned when its post is gone, or when the post is neither
// reported nor hidden and the report is older than grace.
func Orphaned(posts []models.Post, reports []models.Report, now time.Time, grace time.Duration) []models.Report {
	status := make(map[string]models.PostStatus, len(posts))
	for _, p := range posts {
		status[p.ID] = p.Status
	}
	cutoff := now.Add(-grace)

	out := make([]models.Report, 0)
	for _, r := range reports {
		st, ok := status[r.PostID]
		if !ok {
			out = append(out, r)
			continue
		}
		if st == models.StatusReported || st == models.StatusHidden {
			continue
		}
		if r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Sweep deletes orphaned reports once and returns how many were removed.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	// Reports first: a report written after this read cannot be judged against a stale post list.
	reports, err := r.store.ListReports(ctx)
	if err != nil {
		return 0, err
	}
	if len(reports) == 0 {
		return 0, nil
	}
	posts, err := r.store.ListPosts(ctx, 0)
	if err != nil {
		return 0, err
	}

	orphans := Orphaned(posts, reports, r.now(), r.grace)
	if len(orphans) == 0 {
		return 0, nil
	}
	ids := make([]string, len(orphans))
	for i, o := range orphans {
		ids[i] = o.ID
	}
	n, err := r.store.DeleteReports(ctx, ids)
	if err != nil {
		return n, err
	}
	observability.ReconciledReports.Add(float64(n))
	observability.LogServiceCall(ctx, "Reconciler", "Sweep", map[string]interface{}{"removed": n})
	return n, nil
}

// Run sweeps every interval until ctx is cancelled. interval <= 0 disables it.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				observability.LogAsyncOperationError(ctx, "reconcile_reports", err, nil)
			}
		}
	}
}
