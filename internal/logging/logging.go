// Package logging builds the application logger.
//
// Logs go to a file under the XDG state directory so that nothing is
// written to the terminal while the TUI owns it.
package logging

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
)

const appName = "resona"

// New creates a file-backed logger. debug enables development encoding
// and the debug level.
func New(debug bool) (*zap.Logger, error) {
	logPath, err := xdg.StateFile(filepath.Join(appName, appName+".log"))
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}

	return cfg.Build()
}

// Nop returns a logger that discards everything. Used in tests and as a
// default before the real logger is built.
func Nop() *zap.Logger {
	return zap.NewNop()
}
