package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupParams configures the process-wide logrus logger.
type SetupParams struct {
	// FileName is the log file path. Empty means stderr only.
	FileName string
	Level    string
	JSON     bool
	// AlsoStderr duplicates file output to stderr. Leave off while the TUI
	// owns the terminal.
	AlsoStderr bool
}

// Setup configures logrus and returns a closer for the rotating file, if any.
func Setup(params SetupParams) (io.Closer, error) {
	if params.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	log.SetLevel(GetLevel(params.Level))

	if params.FileName == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	if !strings.HasSuffix(params.FileName, ".log") {
		params.FileName += ".log"
	}
	if err := os.MkdirAll(filepath.Dir(params.FileName), 0755); err != nil {
		return nil, err
	}

	rotating := &lumberjack.Logger{
		Filename:   params.FileName,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		Compress:   true,
	}

	if params.AlsoStderr {
		log.SetOutput(io.MultiWriter(os.Stderr, rotating))
	} else {
		log.SetOutput(rotating)
	}

	return rotating, nil
}

// GetLevel maps a config string to a logrus level, defaulting to info.
func GetLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
