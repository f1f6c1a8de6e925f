// Package watcher turns raw filesystem notifications on the save directories
// into debounced per-edition change events.
//
// One fsnotify subscription is added per active save slot, on the slot's
// directory rather than the file itself: both game editions replace their
// save by writing a new file, which makes file-level watches go stale. Raw
// events are filtered through the edition's save-file name matcher and then
// coalesced over a settling window, so a game engine's multi-write save
// routine produces a single SyncEvent instead of a burst.
//
// The debounce window is a best-effort hint. Consumers must still defend
// against burst delivery; the engine's self-trigger suppression handles that.
package watcher
