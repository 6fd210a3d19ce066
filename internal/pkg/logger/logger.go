package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

// Init configures the global logger.
// Production uses the JSON formatter, everything else the text formatter.
func Init(level, format string, prod bool) {
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if prod || strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
}

// WithGate returns an entry tagged with gate id and GIE code.
func WithGate(gateID, gieCode string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"gate_id":  gateID,
		"gie_code": gieCode,
	})
}
