// Package lock provides the single-flight guard around the promotion
// critical section. Exactly one lifecycle invocation may hold the guard
// for a given artifact path; a second invocation fails immediately
// instead of blocking, because a missed cycle is safe and a corrupted
// artifact is not.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrLockHeld is returned when another invocation holds the guard.
var ErrLockHeld = errors.New("another lifecycle run is in progress")

// Guard is a held advisory lock. Release it exactly once.
type Guard struct {
	f    *os.File
	path string
}

// Acquire takes the guard non-blocking. The PID of the holder is written
// into the lock file for operator diagnostics.
func Acquire(path string) (*Guard, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	return &Guard{f: f, path: path}, nil
}

// Release unlocks and closes the guard.
func (g *Guard) Release() error {
	if g == nil || g.f == nil {
		return nil
	}
	err := unlockFile(g.f)
	closeErr := g.f.Close()
	g.f = nil
	if err != nil {
		return err
	}
	return closeErr
}
