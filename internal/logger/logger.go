package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes two independent sinks: the console and a rotating file.
// A level of "off" disables the sink.
type Config struct {
	ConsoleLevel string
	Level        string
	Format       string
	Output       string
	MaxSize      int
	MaxBackups   int
	MaxAge       int
	Compress     bool

	// Console overrides stdout.
	Console io.Writer
}

type Logger struct {
	log    *logrus.Logger
	closer io.Closer
}

type sinkHook struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter logrus.Formatter
	level     logrus.Level
}

func (h *sinkHook) Levels() []logrus.Level {
	return logrus.AllLevels[:h.level+1]
}

func (h *sinkHook) Fire(entry *logrus.Entry) error {
	data, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(data)
	return err
}

func New(cfg Config) *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)

	l := &Logger{log: log}

	if level, ok := parseLevel(cfg.ConsoleLevel); ok {
		console := cfg.Console
		if console == nil {
			console = os.Stdout
		}
		l.addSink(console, &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05Z07:00",
		}, level)
	}

	if level, ok := parseLevel(cfg.Level); ok && cfg.Output != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		l.closer = file

		var formatter logrus.Formatter
		switch strings.ToLower(cfg.Format) {
		case "json":
			formatter = &logrus.JSONFormatter{}
		default:
			formatter = &logrus.TextFormatter{
				FullTimestamp:   true,
				TimestampFormat: "2006-01-02T15:04:05Z07:00",
				DisableColors:   true,
			}
		}
		l.addSink(file, formatter, level)
	}

	return l
}

func (l *Logger) addSink(w io.Writer, formatter logrus.Formatter, level logrus.Level) {
	l.log.AddHook(&sinkHook{writer: w, formatter: formatter, level: level})
	if level > l.log.GetLevel() {
		l.log.SetLevel(level)
	}
}

func parseLevel(level string) (logrus.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off", "none", "":
		return 0, false
	case "debug":
		return logrus.DebugLevel, true
	case "info":
		return logrus.InfoLevel, true
	case "warn", "warning":
		return logrus.WarnLevel, true
	case "error":
		return logrus.ErrorLevel, true
	case "fatal":
		return logrus.FatalLevel, true
	case "panic":
		return logrus.PanicLevel, true
	default:
		return logrus.InfoLevel, true
	}
}

// ValidLevel reports whether level is understood by New.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "off", "none", "", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return true
	}
	return false
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *Logger) Info(msg string) {
	l.log.Info(msg)
}

func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

func (l *Logger) WithError(err error) *logrus.Entry {
	return l.log.WithError(err)
}

func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.log.WithField("component", component)
}
