package engine

import (
	"context"
	"testing"

	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/notify"
)

func lifecycle(kind domain.EventKind, data domain.EventData) domain.Event {
	return domain.Event{Kind: kind, Data: data}
}

func TestProjectorLifecycleSequence(t *testing.T) {
	dmn := &fakeDaemon{}
	svc, _ := newTestService(t, dmn)
	proj := svc.Projector()

	proj.Apply(lifecycle(domain.EventInQueue, domain.EventData{ModelID: "1"}))
	if got := proj.Status("1"); got.Phase != domain.PhaseQueued {
		t.Fatalf("after in_queue: %+v", got)
	}

	proj.Apply(lifecycle(domain.EventDownloadStart, domain.EventData{ModelID: "1"}))
	proj.Apply(lifecycle(domain.EventDownloadProgress, domain.EventData{ModelID: "1", Progress: 42, Speed: "3.1 MB/s", ETA: "12s"}))
	got := proj.Status("1")
	if got.Phase != domain.PhaseDownloading || got.Progress != 42 || got.Speed != "3.1 MB/s" || got.ETA != "12s" {
		t.Fatalf("after download_progress: %+v", got)
	}

	// Out-of-order progress: last value wins, no monotonicity check.
	proj.Apply(lifecycle(domain.EventDownloadProgress, domain.EventData{ModelID: "1", Progress: 17}))
	if got := proj.Status("1"); got.Progress != 17 {
		t.Fatalf("progress should take the last value, got %d", got.Progress)
	}

	proj.Apply(lifecycle(domain.EventHashStart, domain.EventData{ModelID: "1"}))
	proj.Apply(lifecycle(domain.EventHashProgress, domain.EventData{ModelID: "1", Progress: 80}))
	got = proj.Status("1")
	if got.Phase != domain.PhaseHashing || got.Progress != 80 {
		t.Fatalf("after hash_progress: %+v", got)
	}
}

func TestDownloadFinishedIsNotTerminal(t *testing.T) {
	svc, _ := newTestService(t, &fakeDaemon{})
	svc.Store().SetQueue([]domain.QueueEntry{{ModelID: "1", ModelVersionID: "10"}})

	svc.Projector().Apply(lifecycle(domain.EventDownloadFinished, domain.EventData{ModelID: "1", ModelVersionID: "10"}))

	got := svc.Projector().Status("1")
	if got.Phase != domain.PhaseHashing || got.Progress != 100 {
		t.Fatalf("download_finished should mean hashing at 100%%, got %+v", got)
	}
	if len(svc.Store().Queue()) != 1 {
		t.Fatal("download_finished must not remove the queue entry")
	}
	if len(svc.Store().Downloaded()) != 0 {
		t.Fatal("download_finished must not record a download")
	}
}

func TestHashFinishedIsTheOnlyTerminalEvent(t *testing.T) {
	svc, rec := newTestService(t, &fakeDaemon{})
	svc.Store().SetQueue([]domain.QueueEntry{
		{ModelID: "1", ModelVersionID: "10"},
		{ModelID: "2", ModelVersionID: "20"},
	})

	svc.Projector().Apply(lifecycle(domain.EventHashFinished, domain.EventData{
		ModelID: "1", ModelVersionID: "10", Filename: "a.safetensors",
	}))

	if got := svc.Projector().Status("1"); got.Phase != domain.PhaseDone || got.Progress != 100 {
		t.Fatalf("after hash_finished: %+v", got)
	}
	queue := svc.Store().Queue()
	if len(queue) != 1 || queue[0].ModelID != "2" {
		t.Fatalf("hash_finished should remove exactly its queue entry, got %+v", queue)
	}
	downloaded := svc.Store().Downloaded()
	if len(downloaded) != 1 || downloaded[0].ModelID != "1" || downloaded[0].Filename != "a.safetensors" {
		t.Fatalf("hash_finished should record the download, got %+v", downloaded)
	}
	if !rec.has(notify.Success) {
		t.Fatal("expected a success notice")
	}
}

func TestDownloadErrorKeepsQueueEntry(t *testing.T) {
	svc, rec := newTestService(t, &fakeDaemon{})
	svc.Store().SetQueue([]domain.QueueEntry{{ModelID: "1", ModelVersionID: "10"}})

	svc.Projector().Apply(lifecycle(domain.EventDownloadError, domain.EventData{
		ModelID: "1", Error: "connection reset",
	}))

	got := svc.Projector().Status("1")
	if got.Phase != domain.PhaseFailed || got.Error != "connection reset" {
		t.Fatalf("after download_error: %+v", got)
	}
	if len(svc.Store().Queue()) != 1 {
		t.Fatal("a failed item stays in the queue until the daemon or the user removes it")
	}
	if !rec.has(notify.Danger) {
		t.Fatal("expected a danger notice")
	}
}

func TestDownloadSkippedChangesNoPhase(t *testing.T) {
	svc, rec := newTestService(t, &fakeDaemon{})
	proj := svc.Projector()
	proj.Apply(lifecycle(domain.EventDownloadStart, domain.EventData{ModelID: "1"}))

	proj.Apply(lifecycle(domain.EventDownloadSkipped, domain.EventData{ModelID: "1", Reason: "already on disk"}))

	if got := proj.Status("1"); got.Phase != domain.PhaseDownloading {
		t.Fatalf("download_skipped must not change the phase, got %+v", got)
	}
	if !rec.has(notify.Warning) {
		t.Fatal("expected a warning notice with the skip reason")
	}
}

func TestPausedFlagIsAdvisory(t *testing.T) {
	dmn := &fakeDaemon{}
	svc, _ := newTestService(t, dmn)
	proj := svc.Projector()

	proj.Apply(lifecycle(domain.EventDaemonPaused, domain.EventData{}))
	if !proj.Paused() {
		t.Fatal("daemon_paused should set the flag")
	}

	// Submissions are not gated by the flag.
	svc.SetCatalog([]domain.Model{testModel("1", "10")})
	if err := svc.Enqueue(context.Background(), "1", ""); err != nil {
		t.Fatalf("Enqueue while paused: %v", err)
	}
	if len(dmn.submittedIDs()) != 1 {
		t.Fatal("paused flag must not block submission")
	}

	proj.Apply(lifecycle(domain.EventDaemonResumed, domain.EventData{}))
	if proj.Paused() {
		t.Fatal("daemon_resumed should clear the flag")
	}
}

func TestPruneKeepsFailedStatus(t *testing.T) {
	svc, _ := newTestService(t, &fakeDaemon{})
	proj := svc.Projector()
	proj.Apply(lifecycle(domain.EventDownloadStart, domain.EventData{ModelID: "1"}))
	proj.Apply(lifecycle(domain.EventDownloadError, domain.EventData{ModelID: "2", Error: "boom"}))

	proj.prune(nil)

	if got := proj.Status("1"); got.Phase != domain.PhaseIdle {
		t.Fatalf("dequeued transient item should reset to idle, got %+v", got)
	}
	if got := proj.Status("2"); got.Phase != domain.PhaseFailed {
		t.Fatalf("failed status should survive a prune, got %+v", got)
	}
}

func TestReconcileClearsTransientStatus(t *testing.T) {
	dmn := &fakeDaemon{}
	svc, _ := newTestService(t, dmn)
	proj := svc.Projector()
	proj.Apply(lifecycle(domain.EventDownloadProgress, domain.EventData{ModelID: "1", Progress: 50}))

	if err := svc.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := proj.Status("1"); got.Phase != domain.PhaseIdle {
		t.Fatalf("stale downloading state should not survive reconciliation, got %+v", got)
	}
}
