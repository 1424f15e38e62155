// Package lock guards an output artifact with a pid file next to it.
package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/cpapflow/internal/errors"
)

const suffix = ".lock"

// Lock is a held artifact lock.
type Lock struct {
	path string
}

// Acquire creates <target>.lock holding the current process ID. A lock whose
// process is no longer running is taken over. A lock file that cannot be read
// as a pid is treated as held.
func Acquire(target string) (*Lock, error) {
	errFactory := errors.New()
	path := target + suffix

	for attempt := 0; attempt < 2; attempt++ {
		err := create(path)
		if err == nil {
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, errFactory.Wrap(errors.ErrArtifactWrite, err)
		}

		if holderRunning(path) {
			return nil, errFactory.WithData(errors.ErrArtifactBusy, target)
		}

		// Stale
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errFactory.Wrap(errors.ErrInternal, err)
		}
	}

	return nil, errFactory.WithData(errors.ErrArtifactBusy, target)
}

// create writes the pid to a temporary file and links it into place, so the
// lock file never exists without its pid.
func create(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Link(tmp.Name(), path)
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

func holderRunning(path string) bool {
	bytes, err := os.ReadFile(path)
	if err != nil {
		// Released between create and read, let the caller retry.
		return !os.IsNotExist(err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
	if err != nil || pid <= 0 {
		return true
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
