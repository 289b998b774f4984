package protocol

import "log/slog"

var defLogger *slog.Logger

// SetDefaultLogger sets the logger used inside the protocol package.
// Must be called before any parsing happens if the default is unsuitable.
func SetDefaultLogger(l *slog.Logger) {
	defLogger = l
}

func DefaultLogger() *slog.Logger {
	if defLogger != nil {
		return defLogger
	}
	return slog.Default()
}
