package local

import (
	"github.com/treeverse/gitvfs/pkg/logging"
)

// BadgerLogger adapts a logging.Logger to the badger logger.  Badger is chatty: its info and
// debug messages are logged at trace level.
type BadgerLogger struct {
	logging.Logger
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.Logger.Errorf(format, args...)
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.Logger.Warnf(format, args...)
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.Logger.Tracef(format, args...)
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.Logger.Tracef(format, args...)
}
