package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/kodewerx/steevesync/internal/saves"
)

// DefaultDebounce is the settling window used when no override is configured.
const DefaultDebounce = 500 * time.Millisecond

// Event is a debounced notification that an edition's save file changed.
type Event struct {
	Edition    saves.Edition
	ObservedAt time.Time
}

// WatchError reports a failure of the OS notification subsystem for one
// edition. The affected edition becomes inert until restart.
type WatchError struct {
	Edition saves.Edition
	Err     error
}

func (err *WatchError) Error() string {
	return fmt.Sprintf("%s watch: %v", err.Edition, err.Err)
}

func (err *WatchError) Unwrap() error { return err.Err }

// Watcher owns the fsnotify subscriptions for the active save slots and
// delivers debounced events. Create with New, register slots with Watch,
// then Start; Stop tears the subscriptions down.
type Watcher struct {
	fsw      *fsnotify.Watcher
	clock    clockwork.Clock
	debounce time.Duration

	// raw is the channel the run loop consumes. It aliases fsw.Events in
	// production; tests inject their own channel.
	raw     <-chan fsnotify.Event
	rawErrs <-chan error

	dirs map[string]saves.Edition

	events chan Event
	errs   chan error
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Watcher. A nil clock means the system clock; debounce <= 0
// means DefaultDebounce.
func New(clock clockwork.Clock, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsw:      fsw,
		clock:    clock,
		debounce: debounce,
		raw:      fsw.Events,
		rawErrs:  fsw.Errors,
		dirs:     make(map[string]saves.Edition),
		events:   make(chan Event, 4),
		errs:     make(chan error, 2),
		stopCh:   make(chan struct{}),
	}, nil
}

// Watch subscribes to a slot's save directory.
func (w *Watcher) Watch(slot *saves.Slot) error {
	if err := w.fsw.Add(slot.Dir); err != nil {
		return &WatchError{Edition: slot.Edition, Err: err}
	}
	w.dirs[filepath.Clean(slot.Dir)] = slot.Edition
	log.WithField("edition", slot.Edition.String()).Debugf("watching %s", slot.Dir)
	return nil
}

// Events returns the debounced event stream.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the stream of watch subsystem failures.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Start launches the event loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop closes the fsnotify subscriptions and waits for the loop to drain.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// run filters raw notifications and coalesces them per edition. Each edition
// has one debounce timer, rearmed on every raw event; the SyncEvent fires
// only when the timer expires with no further writes. There are exactly two
// editions, so the timers live directly in the select loop.
func (w *Watcher) run() {
	defer w.wg.Done()

	timers := make(map[saves.Edition]clockwork.Timer)
	// A nil channel blocks forever in select, disarming the case.
	pending := map[saves.Edition]<-chan time.Time{saves.Steam: nil, saves.Xbox: nil}

	arm := func(e saves.Edition) {
		if t, ok := timers[e]; ok {
			rearmTimer(t, w.debounce)
		} else {
			timers[e] = w.clock.NewTimer(w.debounce)
		}
		pending[e] = timers[e].Chan()
	}

	fire := func(e saves.Edition) {
		pending[e] = nil
		ev := Event{Edition: e, ObservedAt: w.clock.Now()}
		select {
		case w.events <- ev:
		case <-w.stopCh:
		}
	}

	for {
		select {
		case raw, ok := <-w.raw:
			if !ok {
				return
			}
			if e, match := w.match(raw); match {
				log.WithField("edition", e.String()).Debugf("fs event: %s %s", raw.Op, raw.Name)
				arm(e)
			}
		case err, ok := <-w.rawErrs:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				log.WithError(err).Warn("dropping watch error, channel full")
			}
		case <-pending[saves.Steam]:
			fire(saves.Steam)
		case <-pending[saves.Xbox]:
			fire(saves.Xbox)
		case <-w.stopCh:
			return
		}
	}
}

// rearmTimer resets t to d. If t already expired with its tick unconsumed,
// the stale tick is discarded first; otherwise it would fire the rearmed
// timer immediately instead of after the settling window.
func rearmTimer(t clockwork.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
	t.Reset(d)
}

// match maps a raw notification to the edition whose save it touches. Chmod
// events carry no content change and are ignored.
func (w *Watcher) match(raw fsnotify.Event) (saves.Edition, bool) {
	if raw.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return 0, false
	}

	e, ok := w.dirs[filepath.Clean(filepath.Dir(raw.Name))]
	if !ok {
		// Xbox containers nest one level deeper on some profiles; fall back
		// to a prefix match against the registered directories.
		for dir, edition := range w.dirs {
			if isUnder(dir, raw.Name) {
				e, ok = edition, true
				break
			}
		}
	}
	if !ok {
		return 0, false
	}

	if !e.MatchSaveName(filepath.Base(raw.Name)) {
		return 0, false
	}
	return e, true
}

func isUnder(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
