// Package logging provides the shared logrus setup and Gin middleware for
// HTTP request logging and panic recovery.
package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupBaseLogger configures the process-wide logrus defaults.
func SetupBaseLogger() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// SetLogLevel maps a configured level string onto a logrus level.
// Unknown values fall back to Info.
func SetLogLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "verbose":
		log.SetLevel(log.DebugLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "quiet", "silent":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// ConfigureLogOutput mirrors log output into a rotated file under dir when
// toFile is set, keeping stdout attached.
func ConfigureLogOutput(toFile bool, dir string) error {
	if !toFile {
		log.SetOutput(os.Stdout)
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "gateway.log"),
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	return nil
}

// SafeJSON renders v for diagnostics. A value that cannot be marshaled never
// blocks a response; it is reported with a fixed marker instead.
func SafeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[unserializable]"
	}
	return string(b)
}
