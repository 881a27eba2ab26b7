package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It writes to stderr until Init is called.
var Logger = logrus.New()

// Init configures Logger. An unknown level falls back to info. When file is set,
// output goes to a rotating log file in addition to stderr.
func Init(level, file string) {
	InitTo(os.Stderr, level, file)
}

// InitTo is Init writing to w instead of stderr.
func InitTo(w io.Writer, level, file string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if file == "" {
		Logger.SetOutput(w)
		return
	}
	Logger.SetOutput(io.MultiWriter(w, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}))
}

// Discard silences Logger, for CLI runs and tests that own stdout/stderr.
func Discard() {
	Logger.SetOutput(io.Discard)
}
