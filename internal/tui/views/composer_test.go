package views

import (
	"testing"

	"github.com/matheus3301/counsel/internal/tui/ui"
)

func TestComposerRows(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"hello", 1},
		{"a\nb", 2},
		{"a\nb\nc\n", 4},
		{"1\n2\n3\n4\n5\n6\n7\n8", maxComposerRows},
	}
	for _, tt := range tests {
		if got := composerRows(tt.text); got != tt.want {
			t.Errorf("composerRows(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestComposerResizeAndReset(t *testing.T) {
	c := NewComposer(ui.DefaultTheme())
	var heights []int
	c.SetOnResize(func(h int) { heights = append(heights, h) })

	c.Reset("one\ntwo\nthree")
	if c.GetText() != "one\ntwo\nthree" {
		t.Fatalf("text = %q", c.GetText())
	}
	if c.Height() != 5 {
		t.Errorf("Height() = %d, want 5", c.Height())
	}
	c.Reset("")
	if c.Height() != 3 {
		t.Errorf("Height() after clear = %d, want 3", c.Height())
	}
	if len(heights) != 2 || heights[0] != 5 || heights[1] != 3 {
		t.Errorf("resize callbacks = %v, want [5 3]", heights)
	}
}
