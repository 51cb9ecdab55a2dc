package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PostsCreated counts new posts by category.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"category"})

	// ReportsSubmitted counts reports by reason.
	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_reports_submitted_total",
		Help: "Total number of reports submitted",
	}, []string{"reason"})

	// AnswersSubmitted counts answers.
	AnswersSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_answers_submitted_total",
		Help: "Total number of answers submitted",
	})

	// ModerationActions counts admin actions by type.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_moderation_actions_total",
		Help: "Total number of moderation actions",
	}, []string{"action"})

	// MessagesSent counts chat messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_messages_sent_total",
		Help: "Total number of chat messages sent",
	})

	// PartialFailures counts multi-step writes that stopped half way.
	PartialFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_partial_failures_total",
		Help: "Total number of partially applied operations",
	}, []string{"operation"})

	// ReconciledReports counts orphaned or stale reports swept by the reconciler.
	ReconciledReports = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_reconciled_reports_total",
		Help: "Total number of reports removed by reconciliation",
	})

	// LiveSessions is the gauge of open live sessions.
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_live_sessions",
		Help: "Number of open live sessions",
	})

	// CacheResults counts cache lookups by outcome.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_cache_results_total",
		Help: "Cache lookups by result",
	}, []string{"result"})
)

// ServeMetrics exposes /metrics on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
