// Package jobs implements background workers that run alongside the HTTP
// server. The rescore worker drains advisory rescoring requests fired by
// remediation closure: scoring here is best effort, so failures are retried
// with exponential backoff and eventually dropped with a log line rather than
// surfaced to any caller.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/safego"
	"github.com/vendorguard/vendorguard/internal/scoring"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

type rescoreJob struct {
	orgID        string
	assessmentID string
}

// RescoreWorker processes best-effort rescore requests on a background
// goroutine. Enqueue never blocks; when the queue is full the request is
// dropped with a warning, which is acceptable for advisory scoring.
type RescoreWorker struct {
	assessments   *repositories.AssessmentRepository
	scorer        scoring.Gateway
	queue         chan rescoreJob
	retryInterval time.Duration
	maxRetryTime  time.Duration
	stopOnce      sync.Once
	stopChan      chan struct{}
}

// NewRescoreWorker creates a rescore worker. retryInterval seeds the backoff;
// maxRetryTime caps total retry duration per job before giving up.
func NewRescoreWorker(assessments *repositories.AssessmentRepository, scorer scoring.Gateway, retryInterval, maxRetryTime time.Duration) *RescoreWorker {
	if retryInterval <= 0 {
		retryInterval = 5 * time.Second
	}
	if maxRetryTime <= 0 {
		maxRetryTime = 2 * time.Minute
	}
	return &RescoreWorker{
		assessments:   assessments,
		scorer:        scorer,
		queue:         make(chan rescoreJob, 256),
		retryInterval: retryInterval,
		maxRetryTime:  maxRetryTime,
		stopChan:      make(chan struct{}),
	}
}

// Enqueue submits an assessment for advisory rescoring. Never blocks.
func (w *RescoreWorker) Enqueue(orgID, assessmentID string) {
	select {
	case w.queue <- rescoreJob{orgID: orgID, assessmentID: assessmentID}:
		telemetry.RescoreQueueDepth.Set(float64(len(w.queue)))
	default:
		slog.Warn("rescore queue full, dropping advisory rescore", "assessment_id", assessmentID)
	}
}

// Start begins draining the queue. The loop exits when ctx is cancelled or
// Stop is called.
func (w *RescoreWorker) Start(ctx context.Context) {
	safego.Go(func() {
		slog.Info("rescore worker started",
			"retry_interval", w.retryInterval,
			"max_retry_time", w.maxRetryTime)
		for {
			select {
			case job := <-w.queue:
				telemetry.RescoreQueueDepth.Set(float64(len(w.queue)))
				w.process(ctx, job)
			case <-ctx.Done():
				slog.Info("rescore worker stopped", "reason", "context cancelled")
				return
			case <-w.stopChan:
				slog.Info("rescore worker stopped")
				return
			}
		}
	})
}

// Stop terminates the worker loop. Queued jobs are abandoned.
func (w *RescoreWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

// process runs one rescore with exponential backoff. A job that cannot
// complete within maxRetryTime is dropped with a log line.
func (w *RescoreWorker) process(ctx context.Context, job rescoreJob) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.retryInterval
	policy.MaxElapsedTime = w.maxRetryTime

	operation := func() error {
		result, err := w.scorer.Score(ctx, job.assessmentID)
		if err != nil {
			telemetry.RescoreAttemptsTotal.WithLabelValues("retry").Inc()
			slog.Warn("advisory rescore attempt failed",
				"assessment_id", job.assessmentID, "error", err)
			return err
		}
		if err := w.assessments.UpdateScore(ctx, job.orgID, job.assessmentID, result.Score, string(result.RiskLevel)); err != nil {
			telemetry.RescoreAttemptsTotal.WithLabelValues("retry").Inc()
			slog.Warn("failed to persist advisory rescore",
				"assessment_id", job.assessmentID, "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		telemetry.RescoreAttemptsTotal.WithLabelValues("gave_up").Inc()
		slog.Error("advisory rescore abandoned",
			"assessment_id", job.assessmentID,
			"max_retry_time", w.maxRetryTime,
			"error", err)
		return
	}

	telemetry.RescoreAttemptsTotal.WithLabelValues("success").Inc()
	slog.Info("advisory rescore completed", "assessment_id", job.assessmentID)
}
