package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

func NewLogger(verbosity string, structured bool, out io.Writer) (*logrus.Logger, error) {
	logLevel, err := logrus.ParseLevel(verbosity)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %s", verbosity)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(logLevel)
	logger.SetFormatter(&logrus.TextFormatter{})
	if structured {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

func LogFileName(now time.Time) string {
	return now.Format("20060102") + ".log"
}

// NewFileLogger writes JSON lines to <folder>/<YYYYMMDD>.log. The returned
// closer must be called once the run is over.
func NewFileLogger(folder string, now time.Time, verbosity string) (*logrus.Logger, io.Closer, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log folder %s: %w", folder, err)
	}

	logFilePath := filepath.Join(folder, LogFileName(now))
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", logFilePath, err)
	}

	logger, err := NewLogger(verbosity, true, logFile)
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}
	return logger, logFile, nil
}
