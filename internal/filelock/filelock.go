// Package filelock serializes read-modify-write cycles on a plan directory
// across processes with an advisory lock file.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	lockFileMode = 0o600

	// FileName is the lock file created inside a plan directory.
	FileName = ".backplan.lock"
)

// Lock acquires an exclusive advisory lock on the file at path, creating it
// if needed. Other callers block until unlock is called.
func Lock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted plan dir
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

// LockDir locks the plan directory dir.
func LockDir(dir string) (unlock func() error, err error) {
	return Lock(filepath.Join(dir, FileName))
}

// WithDir runs fn while holding the lock on dir. The unlock error is
// reported only when fn succeeded.
func WithDir(dir string, fn func() error) (err error) {
	unlock, err := LockDir(dir)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn()
}
