package utils

import (
	"io"

	"github.com/MrSnakeDoc/dispenser/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup in defer where error handling is not critical.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs a failure under name.
func CloseLogged(c io.Closer, log logger.Logger, name string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close",
			logger.String("resource", name),
			logger.Error(err))
	}
}
