// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cookiedeck/cookiedeck/internal/config"
)

// Setup applies the log configuration to the global logrus logger.
func Setup(cfg config.LogConfig) {
	level, errParse := log.ParseLevel(strings.TrimSpace(cfg.Level))
	if errParse != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(output(cfg))
}

// output picks the writer for the configured sink. A configured file gets
// rotation; the file is also mirrored to stderr so container logs stay useful.
func output(cfg config.LogConfig) io.Writer {
	if strings.TrimSpace(cfg.File) == "" {
		return os.Stderr
	}
	rotating := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	return io.MultiWriter(os.Stderr, rotating)
}
