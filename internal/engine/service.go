// Package engine is the synchronization and state-projection core: it keeps
// the locally persisted queue mirror consistent with the download daemon,
// projects push events into per-item runtime status, and resolves the
// displayable state for each catalog item.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/stavren/modelsync/internal/daemon"
	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/notify"
)

// Service coordinates the local mirrors, the daemon client and the status
// projector. One instance is constructed at startup and threaded through
// every consumer; there is no package-level state.
type Service struct {
	store    domain.Store
	daemon   domain.Daemon
	proj     *Projector
	notifier notify.Notifier
	logger   *slog.Logger

	// At-most-one submission pass in flight; reset unconditionally by
	// Reconcile to recover from a stuck state left by a prior session.
	submitting atomic.Bool

	// Reconciliation has been attempted at least once (successful or not),
	// so startup may proceed with whatever local state exists.
	reconciled atomic.Bool

	mu       sync.Mutex
	models   map[string]domain.Model // catalog snapshot for manifest building
	status   domain.DaemonStatus
	onChange func()
}

// NewService creates the synchronization engine.
func NewService(store domain.Store, dmn domain.Daemon, notifier notify.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: logger}
	}
	return &Service{
		store:    store,
		daemon:   dmn,
		proj:     newProjector(store, notifier, logger),
		notifier: notifier,
		logger:   logger,
		models:   make(map[string]domain.Model),
	}
}

// Projector exposes the per-item status projection.
func (s *Service) Projector() *Projector { return s.proj }

// Store exposes the persisted local mirrors.
func (s *Service) Store() domain.Store { return s.store }

// SetOnChange registers a callback invoked after any state change. The UI
// uses it to repaint; it must be cheap and non-blocking.
func (s *Service) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Service) notifyChanged() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetCatalog merges fetched catalog entries into the lookup snapshot used
// for manifest building.
func (s *Service) SetCatalog(models []domain.Model) {
	s.mu.Lock()
	for _, m := range models {
		s.models[m.ID] = m
	}
	s.mu.Unlock()
}

// Model returns a catalog entry from the snapshot.
func (s *Service) Model(id string) (domain.Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	return m, ok
}

// DaemonStatus returns the last fetched daemon running/paused state.
func (s *Service) DaemonStatus() domain.DaemonStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) setStatus(status domain.DaemonStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Reconciled reports whether a reconciliation has been attempted.
func (s *Service) Reconciled() bool { return s.reconciled.Load() }

// GlobalProgress derives the aggregate completion percentage from the queue
// and downloaded-set sizes. Nothing is stored; it is recomputed on demand.
func (s *Service) GlobalProgress() int {
	queued := len(s.store.Queue())
	done := len(s.store.Downloaded())
	total := queued + done
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// HeadStatus returns the runtime status of the head-of-queue item, or a
// zero status when the queue is empty.
func (s *Service) HeadStatus() domain.RuntimeStatus {
	queue := s.store.Queue()
	if len(queue) == 0 {
		return domain.RuntimeStatus{}
	}
	return s.proj.Status(queue[0].ModelID)
}

// Run consumes the push channel until ctx is done. Poll pulses and
// event-triggered refreshes race freely; both funnel into the same
// idempotent re-read of authoritative state.
func (s *Service) Run(ctx context.Context, stream *daemon.StreamClient) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-stream.Events():
			s.handleEvent(ev)
		case <-stream.Refresh():
			s.refreshState(ctx)
		}
	}
}

func (s *Service) handleEvent(ev domain.Event) {
	if ev.Kind.IsLifecycle() {
		s.proj.Apply(ev)
	}
	s.notifyChanged()
}

// refreshState re-reads the daemon's authoritative queue, downloaded set
// and status. Failures leave the previous local view in place; the next
// poll tick or event retries naturally.
func (s *Service) refreshState(ctx context.Context) {
	if entries, err := s.daemon.QueueSnapshot(ctx); err == nil {
		if err := s.store.SetQueue(entries); err != nil {
			s.logger.Error("failed to persist queue", "error", err)
		}
		s.proj.prune(entries)
	} else {
		s.logger.Debug("queue refresh failed", "error", err)
	}

	if records, err := s.daemon.DownloadedIDs(ctx); err == nil {
		if err := s.store.SetDownloaded(records); err != nil {
			s.logger.Error("failed to persist downloaded set", "error", err)
		}
	} else {
		s.logger.Debug("downloaded refresh failed", "error", err)
	}

	if status, err := s.daemon.Status(ctx); err == nil {
		s.setStatus(status)
	}

	s.notifyChanged()
}

// Pause suspends the daemon and re-reads its status (fire-and-refresh).
func (s *Service) Pause(ctx context.Context) error {
	return s.adminCommand(ctx, s.daemon.Pause)
}

// Resume continues the daemon and re-reads its status.
func (s *Service) Resume(ctx context.Context) error {
	return s.adminCommand(ctx, s.daemon.Resume)
}

// Stop shuts the daemon down and re-reads its status.
func (s *Service) Stop(ctx context.Context) error {
	return s.adminCommand(ctx, s.daemon.Stop)
}

func (s *Service) adminCommand(ctx context.Context, cmd func(context.Context) error) error {
	if err := cmd(ctx); err != nil {
		return err
	}
	if status, err := s.daemon.Status(ctx); err == nil {
		s.setStatus(status)
	}
	s.notifyChanged()
	return nil
}
