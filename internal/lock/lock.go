// Package lock guards a profile against two counseld processes.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Holder describes the process recorded in a lock file.
type Holder struct {
	PID      int
	Listen   string
	Acquired time.Time
}

// LockHeldError is returned when another process holds the profile lock.
type LockHeldError struct {
	Holder Holder
	Path   string
}

func (e *LockHeldError) Error() string {
	if e.Holder.Listen != "" {
		return fmt.Sprintf("profile lock held by PID %d listening on %s (%s)", e.Holder.PID, e.Holder.Listen, e.Path)
	}
	return fmt.Sprintf("profile lock held by PID %d (%s)", e.Holder.PID, e.Path)
}

// Lock represents an acquired lock file.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive lock on the file at path and records the
// current PID and listen address in it. Returns *LockHeldError if another
// process already holds it.
func Acquire(path, listen string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		h, _ := Inspect(path)
		return nil, &LockHeldError{Holder: h, Path: path}
	}

	content := fmt.Sprintf("pid=%d\nlisten=%s\ntime=%s\n",
		os.Getpid(), listen, time.Now().UTC().Format(time.RFC3339))
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.WriteAt([]byte(content), 0); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Lock{file: f, path: path}, nil
}

// Release releases the lock. Safe to call on nil receiver.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// Inspect reads the holder recorded at path. It does not check whether the
// lock is still held.
func Inspect(path string) (Holder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Holder{}, err
	}
	var h Holder
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			h.PID, _ = strconv.Atoi(value)
		case "listen":
			h.Listen = value
		case "time":
			h.Acquired, _ = time.Parse(time.RFC3339, value)
		}
	}
	if h.PID == 0 {
		return h, errors.New("lock file has no pid")
	}
	return h, nil
}
