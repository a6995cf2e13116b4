package engine

import (
	"log/slog"
	"sync"

	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/notify"
)

// Projector folds lifecycle events into per-item runtime status. It owns
// the status map exclusively; the only store writes it performs are the
// terminal effects of a verified download. Progress is last-value-wins
// with no monotonicity check, trusting the daemon's ordering.
type Projector struct {
	mu       sync.Mutex
	status   map[string]domain.RuntimeStatus
	paused   bool
	store    domain.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

func newProjector(store domain.Store, notifier notify.Notifier, logger *slog.Logger) *Projector {
	return &Projector{
		status:   make(map[string]domain.RuntimeStatus),
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Status returns the projected runtime status for a model. Unknown models
// get the zero value (PhaseIdle).
func (p *Projector) Status(modelID string) domain.RuntimeStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status[modelID]
}

// Paused reports the advisory paused flag from daemon_paused/resumed
// events. It never gates submissions; the daemon enforces pausing itself.
func (p *Projector) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Apply folds one lifecycle event into the projection. Unrecognized kinds
// are filtered upstream; anything reaching here mutates at most one item.
func (p *Projector) Apply(ev domain.Event) {
	id := ev.Data.ModelID
	label := ev.Data.Filename
	if label == "" {
		label = id
	}

	p.mu.Lock()
	switch ev.Kind {
	case domain.EventInQueue:
		p.status[id] = domain.RuntimeStatus{Phase: domain.PhaseQueued}

	case domain.EventDownloadStart:
		p.status[id] = domain.RuntimeStatus{Phase: domain.PhaseDownloading}

	case domain.EventDownloadProgress:
		st := p.status[id]
		st.Phase = domain.PhaseDownloading
		st.Progress = ev.Data.Progress
		st.Speed = ev.Data.Speed
		st.ETA = ev.Data.ETA
		p.status[id] = st

	case domain.EventDownloadFinished:
		// Bytes are on disk but the hash is still pending; the item is
		// not complete until hash_finished says so.
		p.status[id] = domain.RuntimeStatus{Phase: domain.PhaseHashing, Progress: 100}

	case domain.EventHashStart:
		p.status[id] = domain.RuntimeStatus{Phase: domain.PhaseHashing}

	case domain.EventHashProgress:
		st := p.status[id]
		st.Phase = domain.PhaseHashing
		st.Progress = ev.Data.Progress
		p.status[id] = st

	case domain.EventHashFinished:
		p.status[id] = domain.RuntimeStatus{Phase: domain.PhaseDone, Progress: 100}

	case domain.EventDownloadError:
		p.status[id] = domain.RuntimeStatus{Phase: domain.PhaseFailed, Error: ev.Data.Error}

	case domain.EventDownloadSkipped:
		// No phase change; the surrounding events carry the state.

	case domain.EventDaemonPaused:
		p.paused = true

	case domain.EventDaemonResumed:
		p.paused = false
	}
	p.mu.Unlock()

	switch ev.Kind {
	case domain.EventDownloadStart:
		p.notifier.Notify(notify.Info, "Download started: "+label)
	case domain.EventDownloadFinished:
		p.notifier.Notify(notify.Info, "Download finished, verifying: "+label)
	case domain.EventHashFinished:
		// The single terminal transition: only a verified hash removes
		// the queue entry and records the download.
		if err := p.store.RemoveQueueEntries(id, ev.Data.ModelVersionID); err != nil {
			p.logger.Error("failed to remove completed queue entry", "model_id", id, "error", err)
		}
		record := domain.DownloadedRecord{
			ModelID:        id,
			ModelVersionID: ev.Data.ModelVersionID,
			Filename:       ev.Data.Filename,
		}
		if err := p.store.AddDownloaded(record); err != nil {
			p.logger.Error("failed to record download", "model_id", id, "error", err)
		}
		p.notifier.Notify(notify.Success, "Download complete: "+label)
	case domain.EventDownloadError:
		p.notifier.Notify(notify.Danger, "Download failed: "+label)
	case domain.EventDownloadSkipped:
		msg := "Download skipped: " + label
		if ev.Data.Reason != "" {
			msg += " (" + ev.Data.Reason + ")"
		}
		p.notifier.Notify(notify.Warning, msg)
	case domain.EventDaemonPaused:
		p.notifier.Notify(notify.Warning, "Daemon paused")
	case domain.EventDaemonResumed:
		p.notifier.Notify(notify.Info, "Daemon resumed")
	}
}

// markQueued records an optimistic local enqueue before the daemon
// confirms it with an in_queue event.
func (p *Projector) markQueued(modelID string) {
	p.mu.Lock()
	p.status[modelID] = domain.RuntimeStatus{Phase: domain.PhaseQueued}
	p.mu.Unlock()
}

// prune drops projections for items no longer in the queue. Failed status
// survives so the error stays visible until the user acts on it.
func (p *Projector) prune(queue []domain.QueueEntry) {
	queued := make(map[string]struct{}, len(queue))
	for _, e := range queue {
		queued[e.ModelID] = struct{}{}
	}
	p.mu.Lock()
	for id, st := range p.status {
		if _, ok := queued[id]; ok {
			continue
		}
		if st.Phase == domain.PhaseFailed {
			continue
		}
		delete(p.status, id)
	}
	p.mu.Unlock()
}

// ClearTransient resets non-terminal statuses. Reconciliation calls it so
// a Downloading/Hashing state from a dead session cannot linger.
func (p *Projector) ClearTransient() {
	p.mu.Lock()
	for id, st := range p.status {
		switch st.Phase {
		case domain.PhaseQueued, domain.PhaseDownloading, domain.PhaseHashing:
			delete(p.status, id)
		}
	}
	p.mu.Unlock()
}
