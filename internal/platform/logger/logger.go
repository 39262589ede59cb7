package logger

import (
	"log/slog"
	"os"
)

// New returns the service-wide structured logger. JSON output keeps log
// aggregation uniform across environments.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
