package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Init applies a level name (debug, info, warn, error) and a format (json or text).
// Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects the logger, mostly for tests.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// With returns a logger tagged with a component name.
func With(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

// Println logs at info level.
func Println(v ...interface{}) {
	Log.Infoln(v...)
}

// Printf logs at info level.
func Printf(format string, v ...interface{}) {
	Log.Infof(format, v...)
}

// Warnf logs at warn level.
func Warnf(format string, v ...interface{}) {
	Log.Warnf(format, v...)
}

// Errorf logs at error level.
func Errorf(format string, v ...interface{}) {
	Log.Errorf(format, v...)
}

// Fatalf logs and exits the process.
func Fatalf(format string, v ...interface{}) {
	Log.Fatalf(format, v...)
}
