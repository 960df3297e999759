package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const (
	LogFieldsContextKey = contextKey("log_fields")

	ProjectDirectoryName = "gitvfs"
	ModuleName           = "github.com/treeverse/gitvfs"
)

// log_fields keys
const (
	// RootFieldKey storage root name (string)
	RootFieldKey = "root"
	// BranchFieldKey branch scope (string)
	BranchFieldKey = "branch"
	// RefFieldKey reference as given by the caller (string)
	RefFieldKey = "ref"
	// PathFieldKey repository relative path (string)
	PathFieldKey = "path"
	// SegmentFieldKey storage segment (string)
	SegmentFieldKey = "segment"
	// ProviderFieldKey git hosting provider (string, ex: github)
	ProviderFieldKey = "provider"
	// CommitFieldKey commit sha (string)
	CommitFieldKey = "commit"
	// ServiceNameFieldKey service name (string, ex: kvstore)
	ServiceNameFieldKey = "service_name"
	// MethodFieldKey HTTP method (string)
	MethodFieldKey = "method"
	// HostFieldKey remote host (string)
	HostFieldKey = "host"
	// RequestIDFieldKey outgoing request id (string)
	RequestIDFieldKey = "request_id"
)

var (
	formatterInitOnce sync.Once
	defaultLogger     = logrus.New()
	openWriters       []io.Closer
	openWritersMu     sync.Mutex
)

func Level() string {
	return defaultLogger.GetLevel().String()
}

type Fields map[string]interface{}

// logCallerTrimmer is used to trim the caller paths to be relative to the project root
func logCallerTrimmer(frame *runtime.Frame) (function string, file string) {
	file = trimAfterProjectDir(frame.File, string(os.PathSeparator))
	file = fmt.Sprintf("%s:%d", strings.TrimPrefix(file, string(os.PathSeparator)), frame.Line)
	function = trimAfterProjectDir(frame.Function, "/")
	return
}

// trimAfterProjectDir drops everything up to and including the first separator that follows
// the project directory name.  s is returned as is when the project name is not found.
func trimAfterProjectDir(s, sep string) string {
	idx := strings.Index(strings.ToLower(s), ProjectDirectoryName)
	if idx == -1 {
		return s
	}
	rest := s[idx:]
	sepIdx := strings.Index(rest, sep)
	if sepIdx == -1 {
		return s
	}
	return rest[sepIdx+len(sep):]
}

func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		defaultLogger.SetLevel(logrus.TraceLevel)
	case "debug":
		defaultLogger.SetLevel(logrus.DebugLevel)
	case "info":
		defaultLogger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		defaultLogger.SetLevel(logrus.WarnLevel)
	case "error":
		defaultLogger.SetLevel(logrus.ErrorLevel)
	case "panic":
		defaultLogger.SetLevel(logrus.PanicLevel)
	case "null", "none":
		defaultLogger.SetLevel(logrus.PanicLevel)
		defaultLogger.SetOutput(io.Discard)
	}
}

// SetOutputs sets the log outputs: "-" for stdout, "=" for stderr, anything else is a file
// rotated by size. Previously opened files are closed.
func SetOutputs(outputs []string, fileMaxSizeMB, filesKeep int) error {
	var (
		writers []io.Writer
		closers []io.Closer
	)
	for _, output := range outputs {
		switch output {
		case "":
			continue
		case "-":
			writers = append(writers, os.Stdout)
		case "=":
			writers = append(writers, os.Stderr)
		default:
			w := &lumberjack.Logger{
				Filename:   output,
				MaxSize:    fileMaxSizeMB,
				MaxBackups: filesKeep,
			}
			writers = append(writers, w)
			closers = append(closers, w)
		}
	}
	if len(writers) == 0 {
		return nil
	}
	if err := CloseWriters(); err != nil {
		return err
	}
	if len(writers) == 1 {
		defaultLogger.SetOutput(writers[0])
	} else {
		defaultLogger.SetOutput(io.MultiWriter(writers...))
	}
	openWritersMu.Lock()
	openWriters = closers
	openWritersMu.Unlock()
	return nil
}

// CloseWriters closes file outputs opened by SetOutputs.
func CloseWriters() error {
	openWritersMu.Lock()
	defer openWritersMu.Unlock()
	var errs []error
	for _, c := range openWriters {
		errs = append(errs, c.Close())
	}
	openWriters = nil
	return errors.Join(errs...)
}

func SetOutputFormat(format string) {
	var formatter logrus.Formatter
	switch strings.ToLower(format) {
	case "text":
		formatter = &logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
			QuoteEmptyFields:       true,
			CallerPrettyfier:       logCallerTrimmer,
		}
	case "json":
		formatter = &logrus.JSONFormatter{
			CallerPrettyfier: logCallerTrimmer,
			PrettyPrint:      false,
		}
	default:
		return // no known formatter found
	}

	// wrap it with our caller formatter
	defaultLogger.SetFormatter(logrusCallerFormatter{formatter})
}

type Logger interface {
	WithContext(ctx context.Context) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger
	Trace(args ...interface{})
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Warning(args ...interface{})
	Error(args ...interface{})
	Fatal(args ...interface{})
	Panic(args ...interface{})
	Log(level logrus.Level, args ...interface{})
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Panicf(format string, args ...interface{})
	Logf(level logrus.Level, format string, args ...interface{})
	IsTracing() bool
	IsDebugging() bool
	IsInfo() bool
	IsError() bool
	IsWarn() bool
}

type logrusEntryWrapper struct {
	e *logrus.Entry
}

func (l *logrusEntryWrapper) WithContext(ctx context.Context) Logger {
	return addFromContext(
		&logrusEntryWrapper{l.e.WithContext(ctx)},
		ctx,
	)
}

func (l *logrusEntryWrapper) WithField(key string, value interface{}) Logger {
	return &logrusEntryWrapper{l.e.WithField(key, value)}
}

func (l *logrusEntryWrapper) WithFields(fields Fields) Logger {
	return &logrusEntryWrapper{l.e.WithFields(logrus.Fields(fields))}
}

func (l *logrusEntryWrapper) WithError(err error) Logger {
	return &logrusEntryWrapper{l.e.WithError(err)}
}

func (l logrusEntryWrapper) Trace(args ...interface{}) {
	l.e.Trace(args...)
}

func (l logrusEntryWrapper) Debug(args ...interface{}) {
	l.e.Debug(args...)
}

func (l logrusEntryWrapper) Info(args ...interface{}) {
	l.e.Info(args...)
}

func (l logrusEntryWrapper) Warn(args ...interface{}) {
	l.e.Warn(args...)
}

func (l logrusEntryWrapper) Warning(args ...interface{}) {
	l.e.Warning(args...)
}

func (l logrusEntryWrapper) Error(args ...interface{}) {
	l.e.Error(args...)
}

func (l logrusEntryWrapper) Fatal(args ...interface{}) {
	l.e.Fatal(args...)
}

func (l logrusEntryWrapper) Panic(args ...interface{}) {
	l.e.Panic(args...)
}

func (l logrusEntryWrapper) Log(level logrus.Level, args ...interface{}) {
	l.e.Log(level, args...)
}

func (l *logrusEntryWrapper) Tracef(format string, args ...interface{}) {
	l.e.Tracef(format, args...)
}

func (l *logrusEntryWrapper) Debugf(format string, args ...interface{}) {
	l.e.Debugf(format, args...)
}

func (l *logrusEntryWrapper) Infof(format string, args ...interface{}) {
	l.e.Infof(format, args...)
}

func (l *logrusEntryWrapper) Warnf(format string, args ...interface{}) {
	l.e.Warnf(format, args...)
}

func (l *logrusEntryWrapper) Warningf(format string, args ...interface{}) {
	l.e.Warningf(format, args...)
}

func (l *logrusEntryWrapper) Errorf(format string, args ...interface{}) {
	l.e.Errorf(format, args...)
}

func (l *logrusEntryWrapper) Fatalf(format string, args ...interface{}) {
	l.e.Fatalf(format, args...)
}

func (l *logrusEntryWrapper) Panicf(format string, args ...interface{}) {
	l.e.Panicf(format, args...)
}

func (l logrusEntryWrapper) Logf(level logrus.Level, format string, args ...interface{}) {
	l.e.Logf(level, format, args...)
}

func (*logrusEntryWrapper) IsTracing() bool {
	return defaultLogger.IsLevelEnabled(logrus.TraceLevel)
}

func (*logrusEntryWrapper) IsDebugging() bool {
	return defaultLogger.IsLevelEnabled(logrus.DebugLevel)
}

func (*logrusEntryWrapper) IsInfo() bool {
	return defaultLogger.IsLevelEnabled(logrus.InfoLevel)
}

func (*logrusEntryWrapper) IsError() bool {
	return defaultLogger.IsLevelEnabled(logrus.ErrorLevel)
}

func (*logrusEntryWrapper) IsWarn() bool {
	return defaultLogger.IsLevelEnabled(logrus.WarnLevel)
}

type logrusCallerFormatter struct {
	f logrus.Formatter
}

func (lf logrusCallerFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Caller = getCaller()
	return lf.f.Format(e)
}

const maximumCallerDepth = 25

// getCaller returns the first frame outside of logrus and this package.
func getCaller() *runtime.Frame {
	pcs := make([]uintptr, maximumCallerDepth)
	depth := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:depth])
	for f, more := frames.Next(); more; f, more = frames.Next() {
		if strings.Contains(f.Function, "sirupsen/logrus") ||
			strings.HasPrefix(f.Function, ModuleName+"/pkg/logging.") {
			continue
		}
		frame := f
		return &frame
	}
	return nil
}

func ContextUnavailable() Logger {
	// wrap formatter with our own formatter that overrides caller
	formatterInitOnce.Do(func() {
		defaultLogger.SetReportCaller(true)
		defaultLogger.Formatter = logrusCallerFormatter{defaultLogger.Formatter}
	})
	return &logrusEntryWrapper{
		e: logrus.NewEntry(defaultLogger),
	}
}

func addFromContext(log Logger, ctx context.Context) Logger {
	fields := ctx.Value(LogFieldsContextKey)
	if fields == nil {
		return log
	}
	loggerFields := fields.(Fields)
	return log.WithFields(loggerFields)
}

func FromContext(ctx context.Context) Logger {
	return addFromContext(ContextUnavailable(), ctx)
}

// AddFields returns a context carrying fields, merged with any fields already on ctx.  The
// fields of the parent context are copied, never modified.
func AddFields(ctx context.Context, fields Fields) context.Context {
	loggerFields := Fields{}
	if ctxFields, ok := ctx.Value(LogFieldsContextKey).(Fields); ok {
		for k, v := range ctxFields {
			loggerFields[k] = v
		}
	}
	for k, v := range fields {
		loggerFields[k] = v
	}
	return context.WithValue(ctx, LogFieldsContextKey, loggerFields)
}
