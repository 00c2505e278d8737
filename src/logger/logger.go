package logger

import (
	log "github.com/sirupsen/logrus"
)

// Init configures the global logrus logger. An empty or unknown level
// falls back to info.
func Init(level string) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if level == "" {
		log.SetLevel(log.InfoLevel)
		return
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Init: unknown log level %q, using info", level)
		log.SetLevel(log.InfoLevel)
		return
	}

	log.SetLevel(parsed)
}
