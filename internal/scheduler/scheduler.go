// Package scheduler turns due cron schedules into workflow activations.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/craftbase/flowkit/internal/logging"
	"github.com/craftbase/flowkit/internal/store"
	"github.com/craftbase/flowkit/pkg/trigger"
)

// Dispatcher receives activations for due schedules. Satisfied by whatever
// engine runs workflows (avoids import cycle).
type Dispatcher interface {
	Dispatch(ctx context.Context, act trigger.Activation) error
}

// Scheduler polls the store for due schedule workflows and dispatches
// activations for them.
type Scheduler struct {
	store      store.Store
	dispatcher Dispatcher
	parser     cron.Parser
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
	mu         sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{} // workflow IDs currently dispatching (dedup)
}

// New creates a Scheduler.
func New(s store.Store, dispatcher Dispatcher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:      s,
		dispatcher: dispatcher,
		parser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:     logger,
		inflight:   make(map[string]struct{}),
	}
}

// Start launches the background scheduling loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick dispatches every due schedule workflow once and advances its next run.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now().UTC()
	due, err := s.store.ListDueSchedules(ctx, now)
	if err != nil {
		s.logger.Error("failed to list due schedules", slog.String("error", err.Error()))
		return
	}

	for _, wf := range due {
		if !s.tryAcquire(wf.ID) {
			continue // already dispatching (dedup)
		}
		if err := s.fire(ctx, wf, now); err != nil {
			s.logger.Error("failed to fire schedule",
				slog.String("workflow_id", wf.ID),
				slog.String("error", err.Error()),
			)
		}
		s.release(wf.ID)
	}
}

// fire dispatches one activation and advances next_run_at. The next run is
// always advanced, even on dispatch failure, so a broken workflow cannot wedge
// the loop into retrying every tick.
func (s *Scheduler) fire(ctx context.Context, wf *store.Workflow, now time.Time) error {
	ctx = logging.WithWorkflowID(ctx, wf.ID)
	logging.LogWith(ctx, s.logger).Info("firing schedule",
		slog.String("cron", wf.CronExpression),
	)

	nextRun, err := s.CalculateNextRun(wf.CronExpression, now)
	if err != nil {
		// Unparseable cron: disable reporting would be noisy every minute;
		// push the next run a day out and surface the error.
		fallback := now.Add(24 * time.Hour)
		if setErr := s.store.SetNextRun(ctx, wf.ID, fallback); setErr != nil {
			return setErr
		}
		return err
	}
	if err := s.store.SetNextRun(ctx, wf.ID, nextRun); err != nil {
		return fmt.Errorf("set next run for workflow %q: %w", wf.ID, err)
	}

	act := trigger.FromSchedule(wf.ID, now)
	if err := s.dispatcher.Dispatch(ctx, act); err != nil {
		return fmt.Errorf("dispatch workflow %q: %w", wf.ID, err)
	}

	s.recordActivation(ctx, act)
	return nil
}

// recordActivation appends to the activation log. Log-only on failure; the
// dispatch already happened.
func (s *Scheduler) recordActivation(ctx context.Context, act trigger.Activation) {
	var payload json.RawMessage
	if len(act.Context) > 0 {
		payload, _ = json.Marshal(act.Context)
	}
	err := s.store.AppendActivation(ctx, &store.ActivationRecord{
		WorkflowID: act.WorkflowID,
		Type:       string(act.Type),
		Context:    payload,
		FiredAt:    act.FiredAt,
	})
	if err != nil {
		s.logger.Error("failed to record activation",
			slog.String("workflow_id", act.WorkflowID),
			slog.String("error", err.Error()),
		)
	}
}

// tryAcquire returns true and marks the workflow as in-flight if it is not
// already dispatching.
func (s *Scheduler) tryAcquire(id string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[id]; ok {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Scheduler) release(id string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, id)
}

// CalculateNextRun computes the next run time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}
