package app

import (
	"os"

	"go.uber.org/zap"
)

// exitFunc terminates the process; tests replace it
var exitFunc = os.Exit

// Close logs and terminates the process with code
func Close(logger *zap.Logger, code int) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Closing application.", zap.Int("code", code))
	_ = logger.Sync()
	exitFunc(code)
}
