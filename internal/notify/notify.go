// Package notify bridges the engine's presentation signals to whatever
// surface is listening. The process ships with a log-backed notifier; a tray
// frontend would provide its own implementation of engine.Notifier.
package notify

import (
	log "github.com/sirupsen/logrus"

	"github.com/kodewerx/steevesync/internal/engine"
	"github.com/kodewerx/steevesync/internal/saves"
)

// LogNotifier reports sync status through logrus.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier writing to logger; nil means the standard
// logrus logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

var _ engine.Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) SyncStarted(source saves.Edition) {
	n.logger.WithField("edition", source.String()).Debug("sync started")
}

func (n *LogNotifier) SyncSucceeded(source, dest saves.Edition) {
	n.logger.WithFields(log.Fields{
		"from": source.String(),
		"to":   dest.String(),
	}).Info("save synced")
}

func (n *LogNotifier) SyncFailed(source saves.Edition, kind engine.ErrorKind, err error) {
	n.logger.WithError(err).WithFields(log.Fields{
		"edition": source.String(),
		"kind":    string(kind),
	}).Warn("sync failed")
}
