package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/log"
	"github.com/stavren/modelsync/internal/notify"
	"github.com/stavren/modelsync/internal/store"
)

type fakeDaemon struct {
	mu        sync.Mutex
	queue     []domain.QueueEntry
	records   []domain.DownloadedRecord
	status    domain.DaemonStatus
	queueErr  error
	submitErr map[string]error
	submitted []domain.Manifest
	block     chan struct{}
	paused    bool
}

func (f *fakeDaemon) QueueSnapshot(context.Context) ([]domain.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queueErr != nil {
		return nil, f.queueErr
	}
	return append([]domain.QueueEntry(nil), f.queue...), nil
}

func (f *fakeDaemon) DownloadedIDs(context.Context) ([]domain.DownloadedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.DownloadedRecord(nil), f.records...), nil
}

func (f *fakeDaemon) Submit(_ context.Context, m domain.Manifest) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.submitErr[m.ModelID]; err != nil {
		return err
	}
	f.submitted = append(f.submitted, m)
	return nil
}

func (f *fakeDaemon) SubmitBatch(_ context.Context, ms []domain.Manifest) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, ms...)
	return len(ms), 0, nil
}

func (f *fakeDaemon) Status(context.Context) (domain.DaemonStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeDaemon) Metrics(context.Context) (domain.Metrics, error) {
	return domain.Metrics{}, nil
}

func (f *fakeDaemon) Pause(context.Context) error {
	f.mu.Lock()
	f.paused = true
	f.status.Paused = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDaemon) Resume(context.Context) error {
	f.mu.Lock()
	f.paused = false
	f.status.Paused = false
	f.mu.Unlock()
	return nil
}

func (f *fakeDaemon) Stop(context.Context) error { return nil }

func (f *fakeDaemon) Login(context.Context, string, string) (string, error) {
	return "test-token", nil
}

func (f *fakeDaemon) submittedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.submitted))
	for i, m := range f.submitted {
		ids[i] = m.ModelID
	}
	return ids
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *noticeRecorder) Notify(level notify.Level, message string) {
	r.mu.Lock()
	r.notices = append(r.notices, notify.Notice{Level: level, Message: message})
	r.mu.Unlock()
}

func (r *noticeRecorder) has(level notify.Level) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notices {
		if n.Level == level {
			return true
		}
	}
	return false
}

func testModel(id, versionID string) domain.Model {
	return domain.Model{
		ID:   id,
		Name: "model " + id,
		Type: "Checkpoint",
		Versions: []domain.ModelVersion{{
			ID:        versionID,
			BaseModel: "SDXL",
			Files: []domain.ModelFile{{
				Name:        "model-" + id + ".safetensors",
				SHA256:      "abc123",
				DownloadURL: "https://cdn.example/" + id,
			}},
		}},
	}
}

func newTestService(t *testing.T, dmn *fakeDaemon) (*Service, *noticeRecorder) {
	t.Helper()
	st, err := store.NewClientStore("")
	if err != nil {
		t.Fatalf("NewClientStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	rec := &noticeRecorder{}
	return NewService(st, dmn, rec, log.NullLogger()), rec
}

func TestReconcileReplacesLocalQueue(t *testing.T) {
	dmn := &fakeDaemon{
		queue:   []domain.QueueEntry{{ModelID: "10", ModelVersionID: "100"}},
		records: []domain.DownloadedRecord{{ModelID: "5"}},
	}
	svc, _ := newTestService(t, dmn)

	// Stale local state from a previous session.
	svc.Store().SetQueue([]domain.QueueEntry{{ModelID: "1"}, {ModelID: "2"}})
	svc.Store().SetDownloaded([]domain.DownloadedRecord{{ModelID: "9"}})

	if err := svc.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	queue := svc.Store().Queue()
	if len(queue) != 1 || queue[0].ModelID != "10" {
		t.Fatalf("queue not replaced: %+v", queue)
	}
	downloaded := svc.Store().Downloaded()
	if len(downloaded) != 1 || downloaded[0].ModelID != "5" {
		t.Fatalf("downloaded set not replaced: %+v", downloaded)
	}
	if !svc.Reconciled() {
		t.Fatal("Reconciled() = false after successful reconcile")
	}
}

func TestReconcileEmptyQueueClearsLocal(t *testing.T) {
	dmn := &fakeDaemon{}
	svc, _ := newTestService(t, dmn)
	svc.Store().SetQueue([]domain.QueueEntry{{ModelID: "1"}})

	if err := svc.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := svc.Store().Queue(); len(got) != 0 {
		t.Fatalf("expected empty queue, got %+v", got)
	}
}

func TestReconcileKeepsLocalOnFailure(t *testing.T) {
	dmn := &fakeDaemon{queueErr: domain.ErrDaemonOffline}
	svc, rec := newTestService(t, dmn)
	svc.Store().SetQueue([]domain.QueueEntry{{ModelID: "1"}})

	err := svc.Reconcile(context.Background())
	if !errors.Is(err, domain.ErrDaemonOffline) {
		t.Fatalf("expected ErrDaemonOffline, got %v", err)
	}
	if got := svc.Store().Queue(); len(got) != 1 || got[0].ModelID != "1" {
		t.Fatalf("local queue should survive a failed fetch, got %+v", got)
	}
	if !rec.has(notify.Danger) {
		t.Fatal("expected a danger notice on reconcile failure")
	}
	if !svc.Reconciled() {
		t.Fatal("a failed attempt still counts as attempted")
	}
}

func TestSubmitAllInOrderAndContinuesOnError(t *testing.T) {
	dmn := &fakeDaemon{
		queue:     []domain.QueueEntry{{ModelID: "1", ModelVersionID: "10"}, {ModelID: "2", ModelVersionID: "20"}, {ModelID: "3", ModelVersionID: "30"}},
		submitErr: map[string]error{"2": errors.New("boom")},
	}
	svc, _ := newTestService(t, dmn)
	svc.SetCatalog([]domain.Model{testModel("1", "10"), testModel("2", "20"), testModel("3", "30")})
	if err := svc.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	svc.SubmitAll(context.Background())

	ids := dmn.submittedIDs()
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "3" {
		t.Fatalf("expected ordered pass skipping the failure, got %v", ids)
	}
}

func TestSubmitAllSkipsUnknownModels(t *testing.T) {
	dmn := &fakeDaemon{queue: []domain.QueueEntry{{ModelID: "1"}, {ModelID: "404"}}}
	svc, _ := newTestService(t, dmn)
	svc.SetCatalog([]domain.Model{testModel("1", "10")})
	svc.Reconcile(context.Background())

	svc.SubmitAll(context.Background())

	if ids := dmn.submittedIDs(); len(ids) != 1 || ids[0] != "1" {
		t.Fatalf("expected only the known model, got %v", ids)
	}
}

func TestSubmitAllSingleFlight(t *testing.T) {
	block := make(chan struct{})
	dmn := &fakeDaemon{
		queue: []domain.QueueEntry{{ModelID: "1", ModelVersionID: "10"}},
		block: block,
	}
	svc, _ := newTestService(t, dmn)
	svc.SetCatalog([]domain.Model{testModel("1", "10")})
	svc.Reconcile(context.Background())

	done := make(chan struct{})
	go func() {
		svc.SubmitAll(context.Background())
		close(done)
	}()

	// Wait for the first pass to hold the flag, then try again.
	deadline := time.Now().Add(time.Second)
	for !svc.submitting.Load() {
		if time.Now().After(deadline) {
			t.Fatal("submission pass never started")
		}
		time.Sleep(time.Millisecond)
	}
	svc.SubmitAll(context.Background())

	close(block)
	<-done
	if ids := dmn.submittedIDs(); len(ids) != 1 {
		t.Fatalf("concurrent call must be a no-op, got %v submissions", ids)
	}
}

func TestEnqueueAppendsWithoutDedup(t *testing.T) {
	dmn := &fakeDaemon{}
	svc, _ := newTestService(t, dmn)
	svc.SetCatalog([]domain.Model{testModel("7", "70")})

	if err := svc.Enqueue(context.Background(), "7", ""); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := svc.Enqueue(context.Background(), "7", ""); err != nil {
		t.Fatalf("Enqueue again: %v", err)
	}

	queue := svc.Store().Queue()
	if len(queue) != 2 {
		t.Fatalf("expected 2 entries (no dedup), got %d", len(queue))
	}
	if queue[0].ModelVersionID != "70" {
		t.Fatalf("expected first-version id, got %q", queue[0].ModelVersionID)
	}
	if got := svc.Projector().Status("7").Phase; got != domain.PhaseQueued {
		t.Fatalf("expected optimistic queued phase, got %v", got)
	}
	if len(dmn.submittedIDs()) != 2 {
		t.Fatalf("expected 2 submissions, got %v", dmn.submittedIDs())
	}
}

func TestEnqueueSpecificVersion(t *testing.T) {
	dmn := &fakeDaemon{}
	svc, _ := newTestService(t, dmn)
	svc.SetCatalog([]domain.Model{{
		ID:   "7",
		Type: "Checkpoint",
		Versions: []domain.ModelVersion{
			{ID: "70", Files: []domain.ModelFile{{Name: "new.safetensors", SHA256: "aa"}}},
			{ID: "71", Files: []domain.ModelFile{{Name: "old.safetensors", SHA256: "bb"}}},
		},
	}})

	if err := svc.Enqueue(context.Background(), "7", "71"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	queue := svc.Store().Queue()
	if len(queue) != 1 || queue[0].ModelVersionID != "71" {
		t.Fatalf("expected the chosen older version, got %+v", queue)
	}
	dmn.mu.Lock()
	defer dmn.mu.Unlock()
	if len(dmn.submitted) != 1 || dmn.submitted[0].ModelVersionID != "71" || dmn.submitted[0].Filename != "old.safetensors" {
		t.Fatalf("manifest should target the chosen version, got %+v", dmn.submitted)
	}
}

func TestEnqueueUnknownModel(t *testing.T) {
	svc, _ := newTestService(t, &fakeDaemon{})
	if err := svc.Enqueue(context.Background(), "404", ""); !errors.Is(err, domain.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestSubmitOneFailureKeepsQueueEntry(t *testing.T) {
	dmn := &fakeDaemon{submitErr: map[string]error{"7": errors.New("boom")}}
	svc, rec := newTestService(t, dmn)
	svc.SetCatalog([]domain.Model{testModel("7", "70")})

	err := svc.Enqueue(context.Background(), "7", "")
	if err == nil {
		t.Fatal("expected submission error")
	}
	if got := svc.Store().Queue(); len(got) != 1 {
		t.Fatalf("optimistic entry must survive the failed post, got %+v", got)
	}
	if !rec.has(notify.Danger) {
		t.Fatal("expected a danger notice")
	}
}

func TestBuildManifest(t *testing.T) {
	model := domain.Model{
		ID:        "42",
		Type:      "LORA",
		BaseModel: "SD 1.5",
		Versions: []domain.ModelVersion{
			{ID: "1", BaseModel: "SDXL", DownloadURL: "https://dl/1", Files: []domain.ModelFile{
				{Name: "a.safetensors", SHA256: "aa", DownloadURL: "https://cdn/a"},
				{Name: "b.safetensors", SHA256: "bb"},
			}},
			{ID: "2", DownloadURL: "https://dl/2"},
		},
	}

	m := BuildManifest(model, "")
	if m.ModelVersionID != "1" || m.Filename != "a.safetensors" || m.SHA256 != "aa" || m.URL != "https://cdn/a" {
		t.Fatalf("first-version manifest wrong: %+v", m)
	}
	if m.BaseModel != "SDXL" {
		t.Fatalf("version baseModel should win, got %q", m.BaseModel)
	}

	m = BuildManifest(model, "2")
	if m.ModelVersionID != "2" {
		t.Fatalf("explicit version not honored: %+v", m)
	}
	if m.URL != "https://dl/2" {
		t.Fatalf("expected version download url fallback, got %q", m.URL)
	}
	if m.Filename != "" || m.SHA256 != "" {
		t.Fatalf("no files means empty file fields, got %+v", m)
	}
	if m.BaseModel != "SD 1.5" {
		t.Fatalf("expected model baseModel fallback, got %q", m.BaseModel)
	}

	m = BuildManifest(model, "404")
	if m.ModelVersionID != "1" {
		t.Fatalf("unknown version id should fall back to first, got %+v", m)
	}
}

func TestGlobalProgress(t *testing.T) {
	svc, _ := newTestService(t, &fakeDaemon{})
	if got := svc.GlobalProgress(); got != 0 {
		t.Fatalf("empty state should report 0, got %d", got)
	}

	svc.Store().SetQueue([]domain.QueueEntry{{ModelID: "1"}, {ModelID: "2"}})
	svc.Store().SetDownloaded([]domain.DownloadedRecord{{ModelID: "3"}})
	if got := svc.GlobalProgress(); got != 33 {
		t.Fatalf("1 of 3 should round to 33, got %d", got)
	}

	svc.Store().SetQueue(nil)
	if got := svc.GlobalProgress(); got != 100 {
		t.Fatalf("all done should report 100, got %d", got)
	}
}

func TestAdminCommandsRefreshStatus(t *testing.T) {
	dmn := &fakeDaemon{status: domain.DaemonStatus{Running: true}}
	svc, _ := newTestService(t, dmn)

	if err := svc.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !svc.DaemonStatus().Paused {
		t.Fatal("status not refreshed after pause")
	}
	if err := svc.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if svc.DaemonStatus().Paused {
		t.Fatal("status not refreshed after resume")
	}
}
