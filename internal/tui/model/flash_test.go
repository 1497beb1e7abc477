package model

import (
	"errors"
	"testing"
	"time"
)

func TestFlashExpires(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := &Flash{now: func() time.Time { return now }}

	if msg, _ := f.Get(); msg != "" {
		t.Fatalf("zero flash = %q, want empty", msg)
	}

	f.Warn("careful")
	if msg, level := f.Get(); msg != "careful" || level != LevelWarn {
		t.Errorf("Get() = %q, %v", msg, level)
	}

	now = now.Add(9 * time.Second)
	if msg, _ := f.Get(); msg != "" {
		t.Errorf("expired flash = %q, want empty", msg)
	}
}

func TestFlashError(t *testing.T) {
	f := &Flash{}
	f.Error(errors.New("boom"))
	if msg, level := f.Get(); msg != "boom" || level != LevelError {
		t.Errorf("Get() = %q, %v", msg, level)
	}
}
