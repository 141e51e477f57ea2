package sdk

import (
	"go.uber.org/zap"

	"github.com/coinbase/cloudsession/internal/utils/log"
)

// SetLogger routes the library's log entries, named "cloudsession", to logger.
// The library is silent until SetLogger is called; a nil logger silences it again.
func SetLogger(logger *zap.Logger) {
	log.SetLibraryLogger(logger)
}

// Logger returns the library logger.
func Logger() *zap.Logger {
	return log.Library()
}
