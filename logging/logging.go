/*
logging.go - Process-wide logrus setup

PURPOSE:
  Builds the logger every component derives from. Output goes to the
  console, to a size-rotated file (lumberjack), or both. Components tag
  their entries with WithComponent so one file can be filtered per part
  of the system.

SEE ALSO:
  - config/config.go: Log section feeding Options
  - cmd/peopledear: calls Setup once at startup
*/
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
	fileName          = "peopledear.log"
)

// Options configures Setup. The zero value logs info and above as text to
// stdout.
type Options struct {
	Level      string `koanf:"level" json:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format     string `koanf:"format" json:"format" validate:"omitempty,oneof=text json"`
	Dir        string `koanf:"dir" json:"dir"`
	MaxSizeMB  int    `koanf:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" json:"max_age_days" validate:"gte=0"`
	Console    bool   `koanf:"console" json:"console"`
}

// Setup returns a configured logger and the closer of its file, if any.
// With no Dir the logger always writes to stdout.
func Setup(opts Options) (*log.Logger, io.Closer, error) {
	logger := log.New()

	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, errors.Wrap(err, "log level")
		}
		level = parsed
	}
	logger.SetLevel(level)

	if opts.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	}

	if opts.Dir == "" {
		logger.SetOutput(os.Stdout)
		return logger, nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "create log directory %s", opts.Dir)
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, fileName),
		MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(opts.MaxBackups, defaultMaxBackups),
		MaxAge:     opts.MaxAgeDays,
		LocalTime:  true,
	}
	var out io.Writer = file
	if opts.Console {
		out = io.MultiWriter(os.Stdout, file)
	}
	logger.SetOutput(out)
	return logger, file, nil
}

// WithComponent tags every entry of l with the component name.
func WithComponent(l log.FieldLogger, component string) *log.Entry {
	return l.WithField("component", component)
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
