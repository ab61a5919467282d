// Package pid guards against a second laserlog instance writing to the
// same log with a PID file.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/laserlog/internal/errors"
)

const (
	pidFile = "laserlog.pid"
)

// File is a held PID file.
type File struct {
	path string
}

// DefaultDir is where the daemon keeps its PID file.
func DefaultDir() string {
	return os.TempDir()
}

// Acquire writes the current process ID to dir/laserlog.pid. A file left by
// a process that is no longer running is replaced.
func Acquire(dir string) (*File, error) {
	errFactory := errors.New()
	path := filepath.Join(dir, pidFile)

	if running, err := ownerRunning(path); err != nil {
		return nil, err
	} else if running {
		return nil, errFactory.WithData(errors.ErrAlreadyRunning, path)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return nil, errFactory.Wrap(errors.ErrInternal, err)
	}

	return &File{path: path}, nil
}

func ownerRunning(path string) (bool, error) {
	errFactory := errors.New()

	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil || pid <= 0 {
		// Unreadable content is treated as stale.
		return false, nil
	}
	if pid == os.Getpid() {
		return false, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}

	return process.Signal(syscall.Signal(0)) == nil, nil
}

func (f *File) Path() string {
	return f.path
}

// Release removes the PID file.
func (f *File) Release() error {
	errFactory := errors.New()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}
