// Package engine is the synchronization core: it owns the two save slots,
// serializes every backup+copy through a single lock, and suppresses the
// events its own writes trigger.
//
// The engine is purely event-driven and directionless. Whichever edition
// changes last wins; its content is copied to the other edition after the
// destination's current file has been backed up. There is no cross-edition
// "newest save wins" timestamp comparison. When both sides change inside one
// settling window the events are serviced in arrival order and the final
// state is whichever event the watcher delivered last. There are no merge
// semantics.
//
// Self-triggered events (the copy into a slot is itself a filesystem write)
// are recognized by content hash: after each copy the engine remembers the
// hash it wrote, and an event whose current content matches that hash is
// suppressed. Hashing is robust against burst delivery and against
// filesystems with coarse modification timestamps.
package engine
