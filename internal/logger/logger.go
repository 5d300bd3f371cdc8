package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds a JSON logrus logger tagged with the service name. An empty
// level falls back to LOG_LEVEL and then to info.
func New(service, level string) *logrus.Entry {
	return NewWithOutput(service, level, os.Stdout)
}

// NewWithOutput is New writing to out.
func NewWithOutput(service, level string, out io.Writer) *logrus.Entry {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(out)

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	log.SetLevel(parseLevel(level))

	return log.WithField("service", service)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// parseLevel accepts every logrus level name and falls back to info.
func parseLevel(raw string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
