package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Unknown levels fall back to info.
func New(level string, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = Discard()
	}
	return logger.WithField("component", name)
}

func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
