package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/tui/model"
	"github.com/matheus3301/counsel/internal/tui/ui"
)

func TestStatusBarLine(t *testing.T) {
	theme := ui.DefaultTheme()
	sb := NewStatusBar(theme)
	sb.now = func() time.Time { return time.Date(2026, 1, 1, 14, 30, 0, 0, time.UTC) }

	sb.SetIdentity("main", "ana")
	sb.SetState(chat.Open)
	line := sb.line()
	for _, want := range []string{"main", "ana", "[green]OPEN[-]", "14:30"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}

	sb.SetFlash("Message not sent: offline", model.LevelError)
	line = sb.line()
	if !strings.Contains(line, "["+ui.Tag(theme.FlashErrColor)+"]Message not sent: offline") {
		t.Errorf("error flash not colored: %q", line)
	}

	sb.SetFlash("", model.LevelInfo)
	if strings.Contains(sb.line(), "Message not sent") {
		t.Error("cleared flash still shown")
	}
}
