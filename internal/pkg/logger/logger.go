package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: JSON lines on stdout at the given level,
// info when the level is empty or unknown.
func New(appName, level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if appName != "" {
		l.AddHook(appNameHook(appName))
	}
	return l
}

// Discard is used wherever a component is built without a logger.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type appNameHook string

func (h appNameHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h appNameHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["app"]; !ok {
		e.Data["app"] = string(h)
	}
	return nil
}
