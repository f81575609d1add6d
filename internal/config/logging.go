package config

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger from the log settings. When
// a log file is configured, output goes to both stderr and a rotating
// file; otherwise to stderr alone.
func NewLogger(cfg LogConfig, prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	}
	return log.New(w, prefix, log.LstdFlags)
}
