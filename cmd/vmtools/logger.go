package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nirarg/vmtools/internal/config"
	"github.com/sirupsen/logrus"
)

func setupLogger(cfg config.LoggingConfig, stdout, stderr io.Writer) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch cfg.Output {
	case "stdout":
		log.SetOutput(stdout)
	case "file":
		if cfg.FilePath != "" {
			file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if err != nil {
				fmt.Fprintf(stderr, "Failed to open log file %s: %v\n", cfg.FilePath, err)
				log.SetOutput(stderr)
			} else {
				log.SetOutput(file)
			}
		}
	default:
		log.SetOutput(stderr)
	}

	return log
}
