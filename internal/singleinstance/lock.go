// Package singleinstance prevents two daemons from watching the same
// folder by taking an advisory lock on a well-known file.
package singleinstance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock holds the instance lock for the lifetime of the process.
type Lock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes the instance lock, failing immediately if another
// process holds it. The lock file carries our PID for diagnostics.
func Acquire(name string) (*Lock, error) {
	path := filepath.Join(os.TempDir(), name+".lock")
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another instance is already running (lock held on %s)", path)
	}

	// Best effort; the flock is what actually guards us.
	_ = os.WriteFile(path, fmt.Appendf(nil, "%d\n", os.Getpid()), 0o644)

	return &Lock{fl: fl, path: path}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	_ = l.fl.Unlock()
	_ = os.Remove(l.path)
	l.fl = nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }
