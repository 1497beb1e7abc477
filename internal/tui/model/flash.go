package model

import (
	"sync"
	"time"
)

// Level is the severity of a flash message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Flash holds one transient notification.
type Flash struct {
	mu      sync.RWMutex
	message string
	level   Level
	expires time.Time
	now     func() time.Time
}

// Set stores a flash message that expires after the given duration.
func (f *Flash) Set(msg string, level Level, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.level = level
	f.expires = f.clock().Add(d)
}

func (f *Flash) Info(msg string) { f.Set(msg, LevelInfo, flashDuration(LevelInfo)) }

func (f *Flash) Warn(msg string) { f.Set(msg, LevelWarn, flashDuration(LevelWarn)) }

func (f *Flash) Error(err error) { f.Set(err.Error(), LevelError, flashDuration(LevelError)) }

// Get returns the current flash message, or empty if expired.
func (f *Flash) Get() (string, Level) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.clock().After(f.expires) {
		return "", LevelInfo
	}
	return f.message, f.level
}

func (f *Flash) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}
