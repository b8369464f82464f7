package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogger switches logrus to JSON output at LOG_LEVEL (default info).
func InitLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", os.Getenv("LOG_LEVEL"))
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
