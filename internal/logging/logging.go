// Package logging builds the slog logger of n5ls.
package logging

import (
	"io"
	"log/slog"

	"github.com/natefinch/lumberjack"

	"github.com/TuSKan/n5-multiscale/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a text logger at the configured level. With a log file set,
// records go to a size-rotated file instead of fallback. The returned closer
// releases the file.
func New(c config.LogConfig, fallback io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, nil, err
	}

	var (
		w      = fallback
		closer io.Closer = nopCloser{}
	)
	if c.File != "" {
		l := &lumberjack.Logger{
			Filename: c.File,
			MaxSize:  c.MaxSize, // megabytes
			MaxAge:   c.MaxAge,  // days
		}
		w, closer = l, l
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}
