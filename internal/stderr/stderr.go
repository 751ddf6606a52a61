//go:build !windows

// Package stderr captures output that C libraries (ALSA, minimp3)
// write directly to file descriptor 2, bypassing Go's os.Stderr. Raw
// writes there would corrupt the TUI layout, so captured lines go to
// the application log instead.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

var (
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
)

// Capture redirects fd 2 into the given logger. Must run before the
// audio backend initializes. The program keeps working without capture
// when setup fails; the noise just reaches the terminal.
func Capture(log *zap.Logger) error {
	if started {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	origStderr, err = syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true

	go func() {
		scanner := bufio.NewScanner(pipeRead)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				log.Warn("audio backend stderr", zap.String("line", line))
			}
		}
	}()

	return nil
}

// Restore puts fd 2 back on the original stderr. Safe to call when
// capture never started.
func Restore() {
	if !started {
		return
	}
	_ = syscall.Dup2(origStderr, int(os.Stderr.Fd()))
	syscall.Close(origStderr)
	pipeWrite.Close()
	pipeRead.Close()
	started = false
}
