//go:build unix

package lock

import (
	"os"
	"syscall"
)

// lockFile acquires an exclusive advisory lock via flock(2). LOCK_NB
// makes the attempt non-blocking; the lock is released automatically if
// the process dies, so a crashed run never wedges the pipeline.
func lockFile(f *os.File) error {
	err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		if err == syscall.EWOULDBLOCK {
			return ErrLockHeld
		}
		return err
	}
	return nil
}

func unlockFile(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
