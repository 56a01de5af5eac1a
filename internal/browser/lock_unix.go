//go:build !windows

package browser

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// acquireProfileLock takes an exclusive, non-blocking lock on lockPath.
func acquireProfileLock(lockPath string) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrProfileLocked, lockPath)
	}

	writeLockOwner(file)
	return file, nil
}

func releaseProfileLock(file *os.File) error {
	if file == nil {
		return nil
	}
	_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
	return file.Close()
}
