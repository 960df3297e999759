package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DummyLogger discards everything. Used where logging is disabled.
type DummyLogger struct{}

func Dummy() Logger {
	return DummyLogger{}
}

func (d DummyLogger) WithContext(context.Context) Logger      { return d }
func (d DummyLogger) WithField(string, interface{}) Logger    { return d }
func (d DummyLogger) WithFields(Fields) Logger                { return d }
func (d DummyLogger) WithError(error) Logger                  { return d }
func (DummyLogger) Trace(...interface{})                      {}
func (DummyLogger) Debug(...interface{})                      {}
func (DummyLogger) Info(...interface{})                       {}
func (DummyLogger) Warn(...interface{})                       {}
func (DummyLogger) Warning(...interface{})                    {}
func (DummyLogger) Error(...interface{})                      {}
func (DummyLogger) Fatal(...interface{})                      {}
func (DummyLogger) Panic(...interface{})                      {}
func (DummyLogger) Log(logrus.Level, ...interface{})          {}
func (DummyLogger) Tracef(string, ...interface{})             {}
func (DummyLogger) Debugf(string, ...interface{})             {}
func (DummyLogger) Infof(string, ...interface{})              {}
func (DummyLogger) Warnf(string, ...interface{})              {}
func (DummyLogger) Warningf(string, ...interface{})           {}
func (DummyLogger) Errorf(string, ...interface{})             {}
func (DummyLogger) Fatalf(string, ...interface{})             {}
func (DummyLogger) Panicf(string, ...interface{})             {}
func (DummyLogger) Logf(logrus.Level, string, ...interface{}) {}
func (DummyLogger) IsTracing() bool                           { return false }
func (DummyLogger) IsDebugging() bool                         { return false }
func (DummyLogger) IsInfo() bool                              { return false }
func (DummyLogger) IsError() bool                             { return false }
func (DummyLogger) IsWarn() bool                              { return false }
