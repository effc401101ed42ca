// Package instance keeps a single copy of the application running per lock
// file, using an OS advisory lock that the kernel drops when the owning
// process dies.
package instance

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	lockFileName = "fortipass.lock"
	lockFilePerm = 0o600

	// maxOpenAttempts bounds how often Acquire reopens a lock file that was
	// unlinked by a releasing instance between our open and our lock.
	maxOpenAttempts = 3
)

// probeLock is the lock attempt Probe makes; tests count calls through it.
var probeLock = lockFile

var (
	ErrAlreadyRunning = errors.New("the program is already running")
	ErrUnlock         = errors.New("failed to release instance lock")
)

// DefaultPath returns the well-known lock file path under the temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), lockFileName)
}

// Lock is a held instance lock. The zero value is not usable; obtain one with Acquire.
type Lock struct {
	path string
	file *os.File
	pid  int
}

// Acquire takes the exclusive instance lock at path and records the current
// pid in it. A lock file left behind by a crashed process is reused. If
// another live process holds the lock, the error wraps ErrAlreadyRunning.
func Acquire(path string) (*Lock, error) {
	for attempt := 0; attempt < maxOpenAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePerm)
		if err != nil {
			return nil, fmt.Errorf("opening lock file %s: %w", path, err)
		}

		if err := lockFile(f); err != nil {
			f.Close()
			if isLockHeld(err) {
				return nil, alreadyRunning(path)
			}
			return nil, fmt.Errorf("locking %s: %w", path, err)
		}

		same, err := stillAtPath(f, path)
		if err != nil || !same {
			unlockFile(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("checking lock file %s: %w", path, err)
			}
			slog.Debug("lock file replaced while locking, reopening", "path", path)
			continue
		}

		pid := os.Getpid()
		if err := writePID(f, pid); err != nil {
			unlockFile(f)
			f.Close()
			return nil, fmt.Errorf("writing pid to %s: %w", path, err)
		}

		slog.Info("instance lock acquired", "path", path, "pid", pid)
		return &Lock{path: path, file: f, pid: pid}, nil
	}

	return nil, fmt.Errorf("lock file %s kept changing while locking", path)
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// PID returns the process id recorded in the lock file.
func (l *Lock) PID() int {
	return l.pid
}

// Release drops the lock, closes the file and deletes it. Every failure is
// reported wrapped in ErrUnlock and nothing is retried. Calling Release on
// an already released lock does nothing.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	var errs []error

	if removeWhileLocked {
		if err := os.Remove(l.path); err != nil {
			errs = append(errs, fmt.Errorf("%w: removing %s: %w", ErrUnlock, l.path, err))
		}
	}

	if err := unlockFile(l.file); err != nil {
		errs = append(errs, fmt.Errorf("%w: unlocking %s: %w", ErrUnlock, l.path, err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: closing %s: %w", ErrUnlock, l.path, err))
	}
	l.file = nil

	if !removeWhileLocked {
		if err := os.Remove(l.path); err != nil {
			errs = append(errs, fmt.Errorf("%w: removing %s: %w", ErrUnlock, l.path, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("instance lock released", "path", l.path, "pid", l.pid)
	return nil
}

// ReadPID returns the process id recorded in the lock file at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("lock file %s does not hold a pid: %q", path, data)
	}
	return pid, nil
}

// Probe reports whether some process currently holds the lock at path and,
// when it does, which pid it recorded. A missing file, or one whose
// recorded pid is no longer alive, means not held; those cases are answered
// without touching the lock. Otherwise Probe briefly takes the lock to test
// it, and an Acquire racing that moment fails with ErrAlreadyRunning.
func Probe(path string) (held bool, pid int, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer f.Close()

	if recorded, err := ReadPID(path); err == nil && !processAlive(recorded) {
		return false, 0, nil
	}

	if err := probeLock(f); err != nil {
		if !isLockHeld(err) {
			return false, 0, fmt.Errorf("locking %s: %w", path, err)
		}
		pid, _ = ReadPID(path)
		return true, pid, nil
	}

	unlockFile(f)
	return false, 0, nil
}

func alreadyRunning(path string) error {
	if pid, err := ReadPID(path); err == nil {
		return fmt.Errorf("%w: pid %d holds %s", ErrAlreadyRunning, pid, path)
	}
	return fmt.Errorf("%w: %s is locked", ErrAlreadyRunning, path)
}

func stillAtPath(f *os.File, path string) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, err
	}
	current, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return os.SameFile(held, current), nil
}

func writePID(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(pid)), 0); err != nil {
		return err
	}
	return f.Sync()
}
