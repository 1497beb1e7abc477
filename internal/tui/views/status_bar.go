package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/tui/model"
	"github.com/matheus3301/counsel/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the profile, the signed-in user, the session state and
// the current flash message.
type StatusBar struct {
	*tview.TextView
	theme      *ui.Theme
	profile    string
	user       string
	state      chat.State
	flash      string
	flashLevel model.Level
	now        func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme, state: chat.Closed, now: time.Now}
}

// SetIdentity sets the profile and user shown on the left.
func (sb *StatusBar) SetIdentity(profile, user string) {
	sb.profile = profile
	sb.user = user
	sb.render()
}

// SetState updates the session state display.
func (sb *StatusBar) SetState(state chat.State) {
	sb.state = state
	sb.render()
}

// SetFlash sets the flash message; an empty msg clears it.
func (sb *StatusBar) SetFlash(msg string, level model.Level) {
	sb.flash = msg
	sb.flashLevel = level
	sb.render()
}

func (sb *StatusBar) render() {
	sb.SetText(sb.line())
}

func (sb *StatusBar) line() string {
	state := string(sb.state)
	switch sb.state {
	case chat.Open:
		state = "[green]" + state + "[-]"
	case chat.Opening:
		state = "[yellow]" + state + "[-]"
	}

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s | %s",
		sb.profile, sanitizeForTerminal(sb.user), state, sb.now().Format("15:04"))
	if sb.flash != "" {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.Tag(sb.flashColor()), sanitizeForTerminal(sb.flash))
	}
	return line
}

func (sb *StatusBar) flashColor() tcell.Color {
	switch sb.flashLevel {
	case model.LevelError:
		return sb.theme.FlashErrColor
	case model.LevelWarn:
		return sb.theme.FlashWarnColor
	}
	return sb.theme.FlashInfoColor
}
