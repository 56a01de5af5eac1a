//go:build windows

package browser

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// acquireProfileLock takes an exclusive, non-blocking lock on lockPath.
func acquireProfileLock(lockPath string) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	handle := windows.Handle(file.Fd())
	overlapped := &windows.Overlapped{}
	err = windows.LockFileEx(handle, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, overlapped)
	if err != nil {
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
	handle := windows.Handle(file.Fd())
	overlapped := &windows.Overlapped{}
	_ = windows.UnlockFileEx(handle, 0, 1, 0, overlapped)
	return file.Close()
}
