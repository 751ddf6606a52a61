//go:build windows

// Package stderr is a no-op on Windows. The audio backends there do
// not produce the ALSA-style stderr noise this package exists for.
package stderr

import "go.uber.org/zap"

// Capture is a no-op on Windows.
func Capture(_ *zap.Logger) error {
	return nil
}

// Restore is a no-op on Windows.
func Restore() {}
