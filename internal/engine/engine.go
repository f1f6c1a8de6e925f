package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/kodewerx/steevesync/internal/backup"
	"github.com/kodewerx/steevesync/internal/saves"
	"github.com/kodewerx/steevesync/internal/store"
	"github.com/kodewerx/steevesync/internal/watcher"
)

// Notifier receives the presentation signals the engine emits. Implementations
// must not block: signals fire inside the sync critical section.
type Notifier interface {
	SyncStarted(source saves.Edition)
	SyncSucceeded(source, dest saves.Edition)
	SyncFailed(source saves.Edition, kind ErrorKind, err error)
}

// ChangeSource is the watcher surface the engine consumes. *watcher.Watcher
// satisfies it; tests substitute a fake feeding synthetic events.
type ChangeSource interface {
	Watch(*saves.Slot) error
	Events() <-chan watcher.Event
	Errors() <-chan error
	Start()
	Stop() error
}

// Config assembles an Engine.
type Config struct {
	// Slots are the resolved save locations; one or two entries. With a
	// single slot the engine stays in degraded mode: it watches but has
	// nothing to sync against.
	Slots []*saves.Slot

	Watcher  ChangeSource
	Backups  *backup.Store
	Catalog  *store.Store // optional; nil disables event history
	Notifier Notifier     // optional
	Clock    clockwork.Clock
}

// slotState is the engine's mutable view of one save slot. The fields are
// only touched inside the engine mutex.
type slotState struct {
	slot *saves.Slot

	// lastKnownModified is the modification time last observed or caused by
	// this process, used as a secondary self-trigger guard.
	lastKnownModified time.Time

	// lastWrittenHash is the content hash of the engine's own last write to
	// this slot. An event whose content matches is a self-trigger.
	lastWrittenHash string
}

// Engine owns the watch subscriptions for both save paths and serializes all
// change handling through a single lock.
type Engine struct {
	mu    sync.Mutex
	slots map[saves.Edition]*slotState

	watcher  ChangeSource
	backups  *backup.Store
	catalog  *store.Store
	notifier Notifier
	clock    clockwork.Clock

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an Engine. It does not arm any watchers; call Start.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Slots) == 0 {
		return nil, fmt.Errorf("no save slots resolved, nothing to watch")
	}
	if cfg.Watcher == nil {
		return nil, fmt.Errorf("watcher cannot be nil")
	}
	if cfg.Backups == nil {
		return nil, fmt.Errorf("backup store cannot be nil")
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	e := &Engine{
		slots:    make(map[saves.Edition]*slotState, len(cfg.Slots)),
		watcher:  cfg.Watcher,
		backups:  cfg.Backups,
		catalog:  cfg.Catalog,
		notifier: notifier,
		clock:    clock,
		stopCh:   make(chan struct{}),
	}
	for _, slot := range cfg.Slots {
		if _, dup := e.slots[slot.Edition]; dup {
			return nil, fmt.Errorf("duplicate slot for %s edition", slot.Edition)
		}
		e.slots[slot.Edition] = &slotState{slot: slot}
	}
	return e, nil
}

// Start arms the watchers and launches the event loop.
func (e *Engine) Start() error {
	for _, st := range e.slots {
		if err := e.watcher.Watch(st.slot); err != nil {
			return err
		}
	}
	e.watcher.Start()

	e.wg.Add(1)
	go e.run()
	return nil
}

// Stop deregisters the watchers and drains the event loop. Calling it more
// than once is safe; later calls return nil without doing anything.
func (e *Engine) Stop() error {
	var err error
	e.stopOnce.Do(func() {
		close(e.stopCh)
		err = e.watcher.Stop()
		e.wg.Wait()
	})
	return err
}

func (e *Engine) run() {
	defer e.wg.Done()

	for {
		select {
		case ev, ok := <-e.watcher.Events():
			if !ok {
				return
			}
			e.handleEvent(ev)
		case err, ok := <-e.watcher.Errors():
			if !ok {
				return
			}
			e.handleWatchError(err)
		case <-e.stopCh:
			return
		}
	}
}

// handleEvent services one debounced change notification. The mutex makes
// backup+copy operations totally ordered: no two copies run concurrently,
// even for different editions.
func (e *Engine) handleEvent(ev watcher.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	src, ok := e.slots[ev.Edition]
	if !ok {
		return
	}

	logger := log.WithField("edition", ev.Edition.String())

	srcPath, err := saves.LocateSave(src.slot.Dir, ev.Edition)
	if err != nil {
		e.fail(ev, "", classify(err), err)
		return
	}
	src.slot.Path = srcPath

	data, err := os.ReadFile(srcPath)
	if err != nil {
		e.fail(ev, "", KindIO, fmt.Errorf("failed to read source save: %w", err))
		return
	}
	fi, err := os.Stat(srcPath)
	if err != nil {
		e.fail(ev, "", KindIO, fmt.Errorf("failed to stat source save: %w", err))
		return
	}

	hash := backup.HashBytes(data)
	if hash == src.lastWrittenHash && src.lastWrittenHash != "" {
		logger.Debug("self-triggered event suppressed")
		src.lastKnownModified = fi.ModTime()
		e.record(ev, "", store.StatusSuppressed, "", "content matches engine's own write")
		return
	}
	if !src.lastKnownModified.IsZero() && fi.ModTime().Equal(src.lastKnownModified) {
		logger.Debug("already-observed modification suppressed")
		e.record(ev, "", store.StatusSuppressed, "", "modification time already observed")
		return
	}

	// A genuine external change from here on.
	src.lastKnownModified = fi.ModTime()

	dst, ok := e.slots[ev.Edition.Other()]
	if !ok {
		// Degraded single-side mode: nothing to sync against.
		err := &saves.DiscoveryError{Edition: ev.Edition.Other(), Reason: "edition not present, nothing to sync against"}
		logger.WithError(err).Info("change observed, no sync destination")
		e.notifier.SyncFailed(ev.Edition, KindDiscovery, err)
		e.record(ev, "", store.StatusSkipped, string(KindDiscovery), err.Error())
		return
	}

	e.notifier.SyncStarted(ev.Edition)
	logger.Infof("syncing save to %s", dst.slot.Edition)

	dstPath, dstExists := e.destTarget(dst, srcPath)
	if dstExists {
		// Never overwrite without a successful backup.
		if _, _, err := e.backups.Backup(dst.slot.Edition, dstPath); err != nil {
			e.fail(ev, dst.slot.Edition.String(), KindIO, fmt.Errorf("backup before overwrite: %w", err))
			return
		}
	}

	if err := backup.WriteFileAtomic(dstPath, data, 0644); err != nil {
		e.fail(ev, dst.slot.Edition.String(), KindIO, err)
		return
	}

	// Read back the OS-assigned timestamp so the destination watcher's
	// upcoming event is recognized as self-caused.
	dst.lastWrittenHash = hash
	dst.slot.Path = dstPath
	if fi, err := os.Stat(dstPath); err == nil {
		dst.lastKnownModified = fi.ModTime()
	}

	e.notifier.SyncSucceeded(ev.Edition, dst.slot.Edition)
	e.record(ev, dst.slot.Edition.String(), store.StatusSynced, "", filepath.Base(srcPath))
	logger.Infof("synced %s -> %s", filepath.Base(srcPath), dstPath)
}

// destTarget picks the destination file path. Preference order: the current
// save file in the destination directory, the file seen at resolve time, and
// finally the source's filename placed in the destination directory (first
// sync into a slot that has never had a save).
func (e *Engine) destTarget(dst *slotState, srcPath string) (path string, exists bool) {
	if p, err := saves.LocateSave(dst.slot.Dir, dst.slot.Edition); err == nil {
		return p, true
	}
	if dst.slot.Path != "" {
		if _, err := os.Stat(dst.slot.Path); err == nil {
			return dst.slot.Path, true
		}
		return dst.slot.Path, false
	}
	return filepath.Join(dst.slot.Dir, filepath.Base(srcPath)), false
}

func (e *Engine) handleWatchError(err error) {
	var werr *watcher.WatchError
	if errors.As(err, &werr) {
		log.WithError(werr.Err).Errorf("%s watcher failed, edition inert until restart", werr.Edition)
		e.notifier.SyncFailed(werr.Edition, KindWatch, werr)
		e.mu.Lock()
		e.record(watcher.Event{Edition: werr.Edition, ObservedAt: e.clock.Now()},
			"", store.StatusFailed, string(KindWatch), werr.Error())
		e.mu.Unlock()
		return
	}
	log.WithError(err).Error("watch subsystem error")
}

// fail reports one failed sync attempt exactly once: notifier signal, catalog
// row, log line. The engine returns to idle; the next detected change is
// handled normally.
func (e *Engine) fail(ev watcher.Event, dest string, kind ErrorKind, err error) {
	serr := &SyncError{Edition: ev.Edition, Kind: kind, Err: err}
	log.WithError(err).Errorf("%s sync failed (%s)", ev.Edition, kind)
	e.notifier.SyncFailed(ev.Edition, kind, serr)
	e.record(ev, dest, store.StatusFailed, string(kind), err.Error())
}

func (e *Engine) record(ev watcher.Event, dest, status, kind, detail string) {
	if e.catalog == nil {
		return
	}
	rec := &store.SyncEventRecord{
		SourceEdition: ev.Edition,
		DestEdition:   dest,
		Status:        status,
		ErrorKind:     kind,
		Detail:        detail,
		OccurredAt:    ev.ObservedAt,
	}
	if err := e.catalog.InsertSyncEvent(rec); err != nil {
		log.WithError(err).Warn("failed to record sync event")
	}
}

func classify(err error) ErrorKind {
	var derr *saves.DiscoveryError
	if errors.As(err, &derr) {
		return KindDiscovery
	}
	return KindIO
}

type nopNotifier struct{}

func (nopNotifier) SyncStarted(saves.Edition)                  {}
func (nopNotifier) SyncSucceeded(saves.Edition, saves.Edition) {}
func (nopNotifier) SyncFailed(saves.Edition, ErrorKind, error) {}
