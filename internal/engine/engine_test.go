package engine

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kodewerx/steevesync/internal/backup"
	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
	"github.com/kodewerx/steevesync/internal/watcher"
)

// fakeSource feeds synthetic debounced events to the engine.
type fakeSource struct {
	events  chan watcher.Event
	errs    chan error
	mu      sync.Mutex
	watched []saves.Edition
	stopped bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events: make(chan watcher.Event, 8),
		errs:   make(chan error, 2),
	}
}

func (f *fakeSource) Watch(slot *saves.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, slot.Edition)
	return nil
}

func (f *fakeSource) Events() <-chan watcher.Event { return f.events }
func (f *fakeSource) Errors() <-chan error         { return f.errs }
func (f *fakeSource) Start()                       {}

func (f *fakeSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.events)
	}
	return nil
}

// recordingNotifier captures signals and verifies sync operations never
// overlap.
type recordingNotifier struct {
	mu        sync.Mutex
	started   []saves.Edition
	succeeded [][2]saves.Edition
	failed    []ErrorKind

	inFlight int32
	overlap  atomic.Bool
}

func (n *recordingNotifier) SyncStarted(source saves.Edition) {
	if atomic.AddInt32(&n.inFlight, 1) > 1 {
		n.overlap.Store(true)
	}
	n.mu.Lock()
	n.started = append(n.started, source)
	n.mu.Unlock()
}

func (n *recordingNotifier) SyncSucceeded(source, dest saves.Edition) {
	atomic.AddInt32(&n.inFlight, -1)
	n.mu.Lock()
	n.succeeded = append(n.succeeded, [2]saves.Edition{source, dest})
	n.mu.Unlock()
}

func (n *recordingNotifier) SyncFailed(source saves.Edition, kind ErrorKind, err error) {
	// A failure after SyncStarted also ends the in-flight operation.
	if atomic.LoadInt32(&n.inFlight) > 0 {
		atomic.AddInt32(&n.inFlight, -1)
	}
	n.mu.Lock()
	n.failed = append(n.failed, kind)
	n.mu.Unlock()
}

type testRig struct {
	engine   *Engine
	source   *fakeSource
	notifier *recordingNotifier
	catalog  *store.Store
	backups  *backup.Store

	steamDir, xboxDir   string
	steamPath, xboxPath string
}

// newTestRig builds an engine over two temp save slots. Pass empty content to
// leave an edition's save file uncreated; pass a nil-edition list via
// editions to restrict the active slots.
func newTestRig(t *testing.T, steamContent, xboxContent string, editions ...saves.Edition) *testRig {
	t.Helper()

	if len(editions) == 0 {
		editions = saves.Editions
	}

	catalog, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	if err := catalog.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	backups, err := backup.New(filepath.Join(t.TempDir(), "Backups"), catalog, nil)
	if err != nil {
		t.Fatalf("failed to create backup store: %v", err)
	}

	rig := &testRig{
		source:   newFakeSource(),
		notifier: &recordingNotifier{},
		catalog:  catalog,
		backups:  backups,
		steamDir: t.TempDir(),
		xboxDir:  t.TempDir(),
	}
	rig.steamPath = filepath.Join(rig.steamDir, "76561198000000000_Player.sav")
	rig.xboxPath = filepath.Join(rig.xboxDir, "a94b62f833a54eb9be6201dc4a85e2e4")

	if steamContent != "" {
		if err := os.WriteFile(rig.steamPath, []byte(steamContent), 0644); err != nil {
			t.Fatalf("failed to write steam save: %v", err)
		}
	}
	if xboxContent != "" {
		if err := os.WriteFile(rig.xboxPath, []byte(xboxContent), 0644); err != nil {
			t.Fatalf("failed to write xbox save: %v", err)
		}
	}

	var slots []*saves.Slot
	for _, e := range editions {
		switch e {
		case saves.Steam:
			slots = append(slots, &saves.Slot{Edition: saves.Steam, Dir: rig.steamDir})
		case saves.Xbox:
			slots = append(slots, &saves.Slot{Edition: saves.Xbox, Dir: rig.xboxDir})
		}
	}

	rig.engine, err = New(Config{
		Slots:    slots,
		Watcher:  rig.source,
		Backups:  backups,
		Catalog:  catalog,
		Notifier: rig.notifier,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return rig
}

func (r *testRig) event(e saves.Edition) watcher.Event {
	return watcher.Event{Edition: e, ObservedAt: time.Now()}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestSyncPropagatesAndBacksUp(t *testing.T) {
	rig := newTestRig(t, "save-v2", "save-v1")

	rig.engine.handleEvent(rig.event(saves.Steam))

	if got := readFile(t, rig.xboxPath); got != "save-v2" {
		t.Errorf("xbox save = %q, want save-v2", got)
	}
	if got := readFile(t, rig.steamPath); got != "save-v2" {
		t.Errorf("steam save = %q, want save-v2 (source untouched)", got)
	}

	// The overwritten Xbox content was backed up first.
	records, err := rig.catalog.ListBackups(saves.Xbox)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Xbox has %d backups, want 1", len(records))
	}
	if got := readFile(t, records[0].StoredPath); got != "save-v1" {
		t.Errorf("backup content = %q, want save-v1", got)
	}
	if records[0].StoredAt.After(time.Now()) {
		t.Error("backup StoredAt is in the future")
	}

	if len(rig.notifier.started) != 1 || rig.notifier.started[0] != saves.Steam {
		t.Errorf("started signals = %v, want [Steam]", rig.notifier.started)
	}
	if len(rig.notifier.succeeded) != 1 {
		t.Fatalf("succeeded signals = %v, want 1", rig.notifier.succeeded)
	}
	if rig.notifier.succeeded[0] != [2]saves.Edition{saves.Steam, saves.Xbox} {
		t.Errorf("succeeded = %v, want Steam->Xbox", rig.notifier.succeeded[0])
	}

	events, err := rig.catalog.RecentSyncEvents(10)
	if err != nil {
		t.Fatalf("RecentSyncEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Status != store.StatusSynced {
		t.Errorf("sync events = %+v, want one synced row", events)
	}
}

func TestNoLoop_SelfTriggerSuppressed(t *testing.T) {
	rig := newTestRig(t, "save-v2", "save-v1")

	rig.engine.handleEvent(rig.event(saves.Steam))

	// The copy into the Xbox path re-triggers the Xbox watcher. That event
	// must not propagate back.
	rig.engine.handleEvent(rig.event(saves.Xbox))

	if got := readFile(t, rig.steamPath); got != "save-v2" {
		t.Errorf("steam save = %q after echo event, want save-v2", got)
	}
	if len(rig.notifier.succeeded) != 1 {
		t.Errorf("succeeded signals = %d, want exactly 1 (no echo copy)", len(rig.notifier.succeeded))
	}

	// No backup of Steam was taken for the suppressed event.
	records, err := rig.catalog.ListBackups(saves.Steam)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Steam has %d backups, want 0", len(records))
	}

	events, _ := rig.catalog.RecentSyncEvents(10)
	if len(events) != 2 || events[0].Status != store.StatusSuppressed {
		t.Errorf("latest event = %+v, want suppressed", events)
	}
}

func TestAlternatingChangesEachPropagateOnce(t *testing.T) {
	rig := newTestRig(t, "steam-1", "xbox-0")

	// Steam change -> Xbox, echo suppressed.
	rig.engine.handleEvent(rig.event(saves.Steam))
	rig.engine.handleEvent(rig.event(saves.Xbox))

	// Genuine Xbox change -> Steam, echo suppressed.
	if err := os.WriteFile(rig.xboxPath, []byte("xbox-2"), 0644); err != nil {
		t.Fatalf("failed to write xbox save: %v", err)
	}
	rig.engine.handleEvent(rig.event(saves.Xbox))
	rig.engine.handleEvent(rig.event(saves.Steam))

	if got := readFile(t, rig.steamPath); got != "xbox-2" {
		t.Errorf("steam save = %q, want xbox-2", got)
	}
	if got := readFile(t, rig.xboxPath); got != "xbox-2" {
		t.Errorf("xbox save = %q, want xbox-2", got)
	}
	if len(rig.notifier.succeeded) != 2 {
		t.Errorf("succeeded = %d copies, want exactly 2", len(rig.notifier.succeeded))
	}
}

func TestLastWriterPropagates(t *testing.T) {
	rig := newTestRig(t, "steam-t1", "xbox-t2")

	// Both sides changed inside one settling window; events arrive Steam
	// then Xbox. The later event wins.
	rig.engine.handleEvent(rig.event(saves.Steam))

	if err := os.WriteFile(rig.xboxPath, []byte("xbox-t2"), 0644); err != nil {
		t.Fatalf("failed to write xbox save: %v", err)
	}
	rig.engine.handleEvent(rig.event(saves.Xbox))

	if got := readFile(t, rig.steamPath); got != "xbox-t2" {
		t.Errorf("steam save = %q, want xbox-t2", got)
	}
	if got := readFile(t, rig.xboxPath); got != "xbox-t2" {
		t.Errorf("xbox save = %q, want xbox-t2", got)
	}
}

func TestFirstSyncCreatesMissingDestination(t *testing.T) {
	rig := newTestRig(t, "save-v1", "")

	rig.engine.handleEvent(rig.event(saves.Steam))

	// No Xbox file existed, so there is nothing to back up but the copy
	// still happens.
	records, err := rig.catalog.ListBackups(saves.Xbox)
	if err != nil {
		t.Fatalf("ListBackups() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Xbox has %d backups, want 0", len(records))
	}

	created := filepath.Join(rig.xboxDir, filepath.Base(rig.steamPath))
	if got := readFile(t, created); got != "save-v1" {
		t.Errorf("created xbox save = %q, want save-v1", got)
	}
	if len(rig.notifier.succeeded) != 1 {
		t.Errorf("succeeded = %d, want 1", len(rig.notifier.succeeded))
	}
}

func TestSingleEditionDegradedMode(t *testing.T) {
	rig := newTestRig(t, "save-v2", "", saves.Steam)

	rig.engine.handleEvent(rig.event(saves.Steam))

	if len(rig.notifier.failed) != 1 || rig.notifier.failed[0] != KindDiscovery {
		t.Errorf("failed signals = %v, want [discovery]", rig.notifier.failed)
	}
	if len(rig.notifier.succeeded) != 0 {
		t.Errorf("succeeded = %v, want none", rig.notifier.succeeded)
	}

	events, _ := rig.catalog.RecentSyncEvents(10)
	if len(events) != 1 || events[0].Status != store.StatusSkipped {
		t.Errorf("events = %+v, want one skipped row", events)
	}
	if events[0].ErrorKind != string(KindDiscovery) {
		t.Errorf("ErrorKind = %q, want discovery", events[0].ErrorKind)
	}
}

func TestBackupFailureAbortsBeforeOverwrite(t *testing.T) {
	rig := newTestRig(t, "save-v2", "save-v1")

	// Sabotage the Xbox backup directory: replace it with a regular file so
	// the backup write fails regardless of permissions.
	xboxBackupDir := rig.backups.Dir(saves.Xbox)
	if err := os.RemoveAll(xboxBackupDir); err != nil {
		t.Fatalf("failed to remove backup dir: %v", err)
	}
	if err := os.WriteFile(xboxBackupDir, []byte("in the way"), 0644); err != nil {
		t.Fatalf("failed to plant blocking file: %v", err)
	}

	rig.engine.handleEvent(rig.event(saves.Steam))

	// Never overwrite without a successful backup.
	if got := readFile(t, rig.xboxPath); got != "save-v1" {
		t.Errorf("xbox save = %q after failed backup, want save-v1 untouched", got)
	}
	if len(rig.notifier.failed) != 1 || rig.notifier.failed[0] != KindIO {
		t.Errorf("failed signals = %v, want [io]", rig.notifier.failed)
	}

	events, _ := rig.catalog.RecentSyncEvents(10)
	if len(events) != 1 || events[0].Status != store.StatusFailed {
		t.Errorf("events = %+v, want one failed row", events)
	}
}

func TestFailureDoesNotStarveNextEvent(t *testing.T) {
	rig := newTestRig(t, "", "")

	// Source save vanished: the event fails with a discovery error.
	rig.engine.handleEvent(rig.event(saves.Steam))
	if len(rig.notifier.failed) != 1 {
		t.Fatalf("failed signals = %v, want 1", rig.notifier.failed)
	}

	// The engine acts normally on the next detected change.
	if err := os.WriteFile(rig.steamPath, []byte("save-v1"), 0644); err != nil {
		t.Fatalf("failed to write steam save: %v", err)
	}
	rig.engine.handleEvent(rig.event(saves.Steam))

	created := filepath.Join(rig.xboxDir, filepath.Base(rig.steamPath))
	if got := readFile(t, created); got != "save-v1" {
		t.Errorf("xbox save = %q, want save-v1", got)
	}
}

func TestConcurrentEventsSerialized(t *testing.T) {
	rig := newTestRig(t, "steam-content", "xbox-content")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, e := range saves.Editions {
			wg.Add(1)
			go func(e saves.Edition) {
				defer wg.Done()
				rig.engine.handleEvent(rig.event(e))
			}(e)
		}
	}
	wg.Wait()

	if rig.notifier.overlap.Load() {
		t.Error("observed overlapping sync operations")
	}

	// Fully converged: both files hold identical content.
	if steam, xbox := readFile(t, rig.steamPath), readFile(t, rig.xboxPath); steam != xbox {
		t.Errorf("files diverged after concurrent events: steam=%q xbox=%q", steam, xbox)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	rig := newTestRig(t, "save-v2", "save-v1")

	if err := rig.engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(rig.source.watched) != 2 {
		t.Errorf("watched editions = %v, want both", rig.source.watched)
	}

	rig.source.events <- rig.event(saves.Steam)

	// Wait for the event to be serviced.
	deadline := time.After(5 * time.Second)
	for readFile(t, rig.xboxPath) != "save-v2" {
		select {
		case <-deadline:
			t.Fatal("event not serviced before deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if err := rig.engine.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	// A second Stop is a no-op, not a panic.
	if err := rig.engine.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}

func TestWatchErrorReported(t *testing.T) {
	rig := newTestRig(t, "save-v2", "save-v1")

	rig.engine.handleWatchError(&watcher.WatchError{Edition: saves.Xbox, Err: os.ErrClosed})

	if len(rig.notifier.failed) != 1 || rig.notifier.failed[0] != KindWatch {
		t.Errorf("failed signals = %v, want [watch]", rig.notifier.failed)
	}

	events, _ := rig.catalog.RecentSyncEvents(10)
	if len(events) != 1 || events[0].Status != store.StatusFailed {
		t.Errorf("events = %+v, want one failed row", events)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with no slots expected error, got nil")
	}

	slot := &saves.Slot{Edition: saves.Steam, Dir: "/tmp"}
	if _, err := New(Config{Slots: []*saves.Slot{slot}}); err == nil {
		t.Error("New() without watcher expected error, got nil")
	}
	if _, err := New(Config{Slots: []*saves.Slot{slot, slot}, Watcher: newFakeSource()}); err == nil {
		t.Error("New() with duplicate slots expected error, got nil")
	}
}
