package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = -1
	INFO  LogLevel = 0
	WARN  LogLevel = 1
	ERROR LogLevel = 2
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var (
	mu      sync.Mutex
	logger  = zap.NewNop()
	logFile *os.File
	logPath string
)

// InitLogger opens (or creates) the log file under the XDG state home
// (~/.local/state/<appName>/<appName>.log), installs a zap core writing to it
// and returns the resolved absolute path so the UI can display it in error
// messages.
func InitLogger(appName string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	rel := filepath.Join(appName, appName+".log")
	p, err := xdg.StateFile(rel)
	if err != nil {
		return "", fmt.Errorf("logging: resolve state path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("logging: create log dir: %w", err)
	}

	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("logging: open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	if logFile != nil {
		_ = logger.Sync()
		_ = logFile.Close()
	}
	logger = zap.New(core).Named(appName)
	logFile = f
	logPath = p
	return p, nil
}

// Log writes a structured line to the log file. Safe to call from any goroutine.
// If the logger has not been initialised, the entry is silently dropped.
func Log(level LogLevel, component, message string) {
	l := L()
	if ce := l.Check(level.zapLevel(), message); ce != nil {
		ce.Write(zap.String("component", component))
	}
}

// L returns the structured logger. Before InitLogger it is a no-op logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Sync flushes buffered entries to the log file.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	return logger.Sync()
}

// Path returns the resolved log file path (empty string if not initialised).
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}
