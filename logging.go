package tl

import (
	"sync"

	"go.uber.org/zap"
)

var (
	pkgLogger *zap.Logger
	loggerOnce sync.Once
)

// logger returns the package's logger instance. It uses a no-op logger by
// default, the same pattern wasm-runtime's linker package uses for its
// package-scoped logger.
func logger() *zap.Logger {
	loggerOnce.Do(func() {
		if pkgLogger == nil {
			pkgLogger = zap.NewNop()
		}
	})
	return pkgLogger
}

// SetLogger configures this package's logger. Call it before using any
// Encoder/Decoder/stream if you want diagnostics; the default is silent.
func SetLogger(l *zap.Logger) {
	pkgLogger = l
}

func loggerField(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}
