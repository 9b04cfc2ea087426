package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Level controls which messages a Logger writes.
type Level int32

const (
	// LevelQuiet writes warnings and errors only.
	LevelQuiet Level = iota
	// LevelNormal adds informational messages (default).
	LevelNormal
	// LevelVerbose is LevelNormal plus per-step progress.
	LevelVerbose
	// LevelDebug writes everything.
	LevelDebug
)

// ParseLevel maps a verbosity name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "quiet":
		return LevelQuiet, nil
	case "", "normal":
		return LevelNormal, nil
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelNormal, fmt.Errorf("invalid verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", name)
	}
}

// Logger provides structured logging for sitecheck components.
// All loggers of one process write to a single run-specific file in
// ~/.sitecheck/logs/ unless SetLogDirectory picked another location.
type Logger struct {
	runID     string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	runID     string
	runIDOnce sync.Once

	logDir      string
	logDirFixed bool
	initOnce    sync.Once
	initErr     error

	level atomic.Int32
)

func init() {
	level.Store(int32(LevelNormal))
}

// SetLevel sets the process-wide log level.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// CurrentLevel returns the process-wide log level.
func CurrentLevel() Level {
	return Level(level.Load())
}

// SetLogDirectory overrides the default log directory. It has no effect once
// the first logger has been created.
func SetLogDirectory(dir string) {
	if dir == "" {
		return
	}
	logDir = dir
	logDirFixed = true
}

func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

func initLogDirectory() error {
	initOnce.Do(func() {
		if !logDirFixed {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".sitecheck", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a logger for a component writing to
// <log-dir>/<run-id>-sitecheck.log.
//
// If the log file cannot be used, a stderr logger is returned together with
// the error so callers can warn about the fallback.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	id := getRunID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-sitecheck.log", id))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}

	return &Logger{
		runID:     id,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

// NewWriterLogger creates a logger that writes to w instead of a file.
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		runID:     getRunID(),
		component: component,
		logger:    log.New(w, "", 0),
	}
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		runID:     getRunID(),
		component: component,
		logger:    logger,
	}
	l.write("WARN", fmt.Sprintf("failed to initialize file logging, falling back to stderr: %v", err))
	return l
}

// Component returns a logger for another component sharing the same output.
func (l *Logger) Component(component string) *Logger {
	return &Logger{
		runID:     l.runID,
		component: component,
		logger:    l.logger,
		logPath:   l.logPath,
	}
}

func (l *Logger) formatLogEntry(lvl, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, lvl, message)
}

func (l *Logger) write(lvl, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Println(l.formatLogEntry(lvl, message))
}

// Debugf logs a debug-level message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if CurrentLevel() < LevelDebug {
		return
	}
	l.write("DEBUG", fmt.Sprintf(format, v...))
}

// Verbosef logs a progress message shown at verbose level and above.
func (l *Logger) Verbosef(format string, v ...interface{}) {
	if CurrentLevel() < LevelVerbose {
		return
	}
	l.write("INFO", fmt.Sprintf(format, v...))
}

// Infof logs an info-level message.
func (l *Logger) Infof(format string, v ...interface{}) {
	if CurrentLevel() < LevelNormal {
		return
	}
	l.write("INFO", fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write("WARN", fmt.Sprintf(format, v...))
}

// Errorf logs an error-level message.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write("ERROR", fmt.Sprintf(format, v...))
}

// RunID returns the id shared by all loggers of this process.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, or "" for writer loggers.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
