package engine

import (
	"context"

	"github.com/stavren/modelsync/internal/notify"
)

// Reconcile overwrites the local mirrors with the daemon's authoritative
// state. It replaces, never merges: a successful fetch of an empty queue
// clears the local queue. On transport failure the previous local view is
// kept so offline browsing still works.
//
// It is re-invocable: regardless of outcome the in-flight submission flag
// and transient statuses are cleared, recovering from any stuck state a
// prior session left behind.
func (s *Service) Reconcile(ctx context.Context) error {
	defer func() {
		s.proj.ClearTransient()
		s.submitting.Store(false)
		s.reconciled.Store(true)
		s.notifyChanged()
	}()

	var firstErr error

	entries, err := s.daemon.QueueSnapshot(ctx)
	if err != nil {
		s.logger.Warn("queue reconciliation failed", "error", err)
		s.notifier.Notify(notify.Danger, "Failed to sync download queue with backend. Check your connection or backend status.")
		firstErr = err
	} else {
		if serr := s.store.SetQueue(entries); serr != nil {
			s.logger.Error("failed to persist reconciled queue", "error", serr)
			if firstErr == nil {
				firstErr = serr
			}
		}
		s.proj.prune(entries)
	}

	records, err := s.daemon.DownloadedIDs(ctx)
	if err != nil {
		s.logger.Warn("downloaded-set reconciliation failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	} else {
		if serr := s.store.SetDownloaded(records); serr != nil {
			s.logger.Error("failed to persist reconciled downloaded set", "error", serr)
			if firstErr == nil {
				firstErr = serr
			}
		}
	}

	if status, err := s.daemon.Status(ctx); err == nil {
		s.setStatus(status)
	}

	return firstErr
}
