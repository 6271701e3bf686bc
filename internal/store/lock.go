package store

import (
	"fmt"
	"os"
	"syscall"
)

// fileLock is an exclusive advisory lock held on a sidecar file.
type fileLock struct {
	f *os.File
}

// acquireLock blocks until it holds an exclusive lock on path, creating the
// file if needed.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open file for locking: %w", ErrStorageUnavailable, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: acquire lock: %w", ErrStorageUnavailable, err)
	}

	return &fileLock{f: f}, nil
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	defer func() { l.f = nil }()

	if err := syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("release lock: %w", err)
	}
	return l.f.Close()
}
