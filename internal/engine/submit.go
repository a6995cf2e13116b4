package engine

import (
	"context"

	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/notify"
)

// SubmitAll posts a manifest for every queued entry, in queue order, one at
// a time. The queue is snapshotted once at the start; entries added during
// the pass wait for the next one. A call while a pass is already running is
// a no-op.
func (s *Service) SubmitAll(ctx context.Context) {
	if !s.submitting.CompareAndSwap(false, true) {
		return
	}
	defer s.submitting.Store(false)

	for _, entry := range s.store.Queue() {
		manifest, ok := s.manifestFor(entry.ModelID, entry.ModelVersionID)
		if !ok {
			s.logger.Warn("no catalog entry for queued item", "model_id", entry.ModelID)
			continue
		}
		if err := s.daemon.Submit(ctx, manifest); err != nil {
			// Failed posts are not retried within the pass; the next
			// reconciliation or user action resends.
			s.logger.Warn("manifest submission failed",
				"model_id", entry.ModelID, "error", err)
			continue
		}
		s.logger.Debug("manifest submitted", "model_id", entry.ModelID)
	}
}

// SubmitOne posts a single manifest. A model missing from the catalog
// snapshot yields nothing to submit and succeeds vacuously. On failure the
// local queue entry is left in place so the item remains visible as queued.
func (s *Service) SubmitOne(ctx context.Context, modelID, versionID string) error {
	manifest, ok := s.manifestFor(modelID, versionID)
	if !ok {
		s.logger.Warn("no catalog entry for model", "model_id", modelID)
		return nil
	}
	if err := s.daemon.Submit(ctx, manifest); err != nil {
		s.notifier.Notify(notify.Danger, "Failed to send download request to backend.")
		return err
	}
	return nil
}

// Enqueue appends one version of a model to the local queue optimistically
// and posts its manifest. An empty versionID means the model's first
// version. No dedup: asking twice queues twice, matching the daemon's own
// behavior.
func (s *Service) Enqueue(ctx context.Context, modelID, versionID string) error {
	model, ok := s.Model(modelID)
	if !ok {
		return domain.ErrModelNotFound
	}
	version := model.ResolveVersion(versionID)
	entry := domain.QueueEntry{ModelID: model.ID, ModelVersionID: version.ID}
	if err := s.store.AddQueueEntry(entry); err != nil {
		s.logger.Error("failed to persist queue entry", "error", err)
	}
	s.proj.markQueued(model.ID)
	s.notifyChanged()
	return s.SubmitOne(ctx, model.ID, version.ID)
}

// SubmitBatch posts manifests for the given models in a single request and
// returns the daemon's queued/skipped counts.
func (s *Service) SubmitBatch(ctx context.Context, modelIDs []string) (queued, skipped int, err error) {
	manifests := make([]domain.Manifest, 0, len(modelIDs))
	for _, id := range modelIDs {
		if manifest, ok := s.manifestFor(id, ""); ok {
			manifests = append(manifests, manifest)
		}
	}
	if len(manifests) == 0 {
		return 0, 0, nil
	}
	queued, skipped, err = s.daemon.SubmitBatch(ctx, manifests)
	if err != nil {
		s.notifier.Notify(notify.Danger, "Batch download request failed.")
		return 0, 0, err
	}
	s.notifyChanged()
	return queued, skipped, nil
}
