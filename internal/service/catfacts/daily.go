package catfacts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/metrics"
)

// sendConcurrency bounds parallel deliveries during the daily send.
const sendConcurrency = 8

// DailyReport summarises one daily send.
type DailyReport struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	SentCount        int      `json:"sent_count"`
	FailedCount      int      `json:"failed_count"`
	TotalSubscribers int      `json:"total_subscribers"`
	ExecutionTime    string   `json:"execution_time"`
	Details          []string `json:"details,omitempty"`
}

// SendDaily emails a fact to every active subscriber. Individual delivery
// failures are counted in the report rather than returned.
func (s *Service) SendDaily(ctx context.Context) (DailyReport, error) {
	start := s.now()
	s.logger.Info("cat facts daily send started")

	subs, err := s.repo.ListActiveSubscriptions(ctx)
	if err != nil {
		return DailyReport{}, fmt.Errorf("list active subscriptions: %w", err)
	}

	details := make([]string, len(subs))
	var (
		mu     sync.Mutex
		sent   int
		failed int
	)
	var g errgroup.Group
	g.SetLimit(sendConcurrency)
	for i := range subs {
		sub := subs[i]
		g.Go(func() error {
			ok, msg := s.sendOne(ctx, sub)
			details[i] = fmt.Sprintf("User %d: %s", sub.UserID, msg)
			mu.Lock()
			if ok {
				sent++
			} else {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	elapsed := s.now().Sub(start)
	report := DailyReport{
		Success:          true,
		Message:          fmt.Sprintf("Daily cat facts sent! Success: %d, Failed: %d", sent, failed),
		SentCount:        sent,
		FailedCount:      failed,
		TotalSubscribers: len(subs),
		ExecutionTime:    elapsed.Round(time.Millisecond).String(),
	}
	if failed > 0 {
		report.Details = details
	}
	s.logger.Info("cat facts daily send completed",
		"total", len(subs),
		"success", sent,
		"failed", failed,
		"execution_time", report.ExecutionTime,
	)
	return report, nil
}

func (s *Service) sendOne(ctx context.Context, sub domain.CatFactSubscription) (bool, string) {
	user, err := s.users.GetUserByID(ctx, sub.UserID)
	if err != nil {
		metrics.CatFactSent("failed")
		return false, fmt.Sprintf("User %d not found", sub.UserID)
	}

	fact := s.Random(ctx)
	now := s.now()
	if err := s.notifier.SendCatFact(ctx, user.Email, user.DisplayName(), fact.Fact, now); err != nil {
		s.logger.Warn("cat fact send failed", "user_id", user.ID, "error", err)
		metrics.CatFactSent("failed")
		return false, "Failed to send to " + user.Email
	}
	if err := s.repo.RecordCatFactSent(ctx, sub.ID, now); err != nil {
		s.logger.Error("record cat fact delivery failed", "subscription_id", sub.ID, "error", err)
	}
	metrics.CatFactSent("success")
	s.logger.Info("cat fact sent", "user_id", user.ID)
	return true, "Sent to " + user.Email
}

// Scheduler runs the daily send on a fixed interval.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler constructs a Scheduler. A non-positive interval disables it.
func NewScheduler(svc *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{svc: svc, interval: interval, logger: logger}
}

// Run sends facts every interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("cat facts scheduler started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cat facts scheduler stopped")
			return
		case <-ticker.C:
			report, err := s.svc.SendDaily(ctx)
			if err != nil {
				s.logger.Error("scheduled cat facts send failed", "error", err)
				continue
			}
			s.logger.Info("scheduled cat facts send finished", "sent", report.SentCount, "failed", report.FailedCount)
		}
	}
}
