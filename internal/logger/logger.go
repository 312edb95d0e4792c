package logger

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Init configures the global logrus logger.
func Init(level, format string) {
	log.SetOutput(os.Stdout)
	if strings.EqualFold(format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
