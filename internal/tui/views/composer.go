package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/counsel/internal/tui/keys"
	"github.com/matheus3301/counsel/internal/tui/ui"
	"github.com/rivo/tview"
)

const maxComposerRows = 6

// Composer is the multi-line text input for sending messages. Enter sends,
// Alt+Enter or Shift+Enter breaks the line.
type Composer struct {
	*tview.TextArea
	onSend   func(text string)
	onChange func(text string)
	onResize func(height int)
	rows     int
}

// NewComposer creates a new message composer.
func NewComposer(theme *ui.Theme) *Composer {
	ta := tview.NewTextArea().
		SetPlaceholder("Type a message")
	ta.SetBorder(true)
	ta.SetBorderColor(theme.BorderColor)

	c := &Composer{TextArea: ta, rows: 1}

	ta.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch keys.ComposerAction(ev.Key(), ev.Modifiers()) {
		case keys.ComposerSubmit:
			if c.onSend != nil {
				c.onSend(c.GetText())
			}
			return nil
		case keys.ComposerNewline:
			_, start, end := c.GetSelection()
			c.Replace(start, end, "\n")
			return nil
		}
		return ev
	})
	ta.SetChangedFunc(func() {
		c.resize()
		if c.onChange != nil {
			c.onChange(c.GetText())
		}
	})

	return c
}

// SetOnSend sets the callback receiving the input when Enter is pressed.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnChange sets the callback receiving the input after every edit.
func (c *Composer) SetOnChange(fn func(text string)) {
	c.onChange = fn
}

// SetOnResize sets the callback told the composer's height, borders included,
// whenever the number of visible rows changes.
func (c *Composer) SetOnResize(fn func(height int)) {
	c.onResize = fn
}

// Height returns the composer's current height including borders.
func (c *Composer) Height() int {
	return c.rows + 2
}

// Reset replaces the input with text, placing the cursor at the end.
func (c *Composer) Reset(text string) {
	if text == c.GetText() {
		return
	}
	c.SetText(text, true)
	c.resize()
}

func (c *Composer) resize() {
	rows := composerRows(c.GetText())
	if rows == c.rows {
		return
	}
	c.rows = rows
	if c.onResize != nil {
		c.onResize(c.Height())
	}
}

// composerRows is the number of text rows to show for text: one per line,
// between 1 and maxComposerRows.
func composerRows(text string) int {
	n := strings.Count(text, "\n") + 1
	return min(n, maxComposerRows)
}
