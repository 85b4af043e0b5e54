//go:build !unix

package lock

import (
	"os"
)

// Non-unix platforms get a best-effort in-process guard. The production
// deployment target is linux; cross-platform advisory locking is not a
// requirement of this job.
var held = make(map[string]bool)

func lockFile(f *os.File) error {
	if held[f.Name()] {
		return ErrLockHeld
	}
	held[f.Name()] = true
	return nil
}

func unlockFile(f *os.File) error {
	delete(held, f.Name())
	return nil
}
