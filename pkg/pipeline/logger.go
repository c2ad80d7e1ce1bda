package pipeline

import (
	"log/slog"

	"github.com/taigrr/scanline/internal/logging"
)

// SetLogger configures the logger used by the pipeline, the loaders and
// the rest of the scanline packages. By default nothing is logged.
// Pass nil to restore the default silent behavior.
//
// Face drops are logged at [slog.LevelWarn] and per-frame statistics at
// [slog.LevelDebug].
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logging.Logger()
}
