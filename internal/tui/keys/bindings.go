// Package keys holds the TUI key bindings.
package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the key matches this action.
func (a *Action) Matches(key tcell.Key, r rune) bool {
	if a.Key != tcell.KeyRune {
		return key == a.Key
	}
	return key == tcell.KeyRune && r == a.Rune
}

// Registry holds keybindings by page, in registration order. Page bindings
// take precedence over global ones.
type Registry struct {
	global []*Action
	pages  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]*Action)}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(action *Action) {
	r.global = append(r.global, action)
}

// AddPage registers a binding active on one page.
func (r *Registry) AddPage(page string, action *Action) {
	r.pages[page] = append(r.pages[page], action)
}

// Hints returns the visible descriptions for page, page bindings first.
func (r *Registry) Hints(page string) []string {
	var hints []string
	for _, a := range r.pages[page] {
		if a.Visible {
			hints = append(hints, a.Description)
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.Description)
		}
	}
	return hints
}

// Handle runs the first binding of page matching the key. Returns true if a
// handler ran.
func (r *Registry) Handle(page string, key tcell.Key, ch rune) bool {
	for _, set := range [][]*Action{r.pages[page], r.global} {
		for _, a := range set {
			if a.Matches(key, ch) {
				a.Handler()
				return true
			}
		}
	}
	return false
}

// HandleEvent is Handle for a tcell key event.
func (r *Registry) HandleEvent(page string, ev *tcell.EventKey) bool {
	return r.Handle(page, ev.Key(), ev.Rune())
}

// ComposerKey is what a key press does inside the composer.
type ComposerKey int

const (
	// ComposerPass lets the text area handle the key.
	ComposerPass ComposerKey = iota
	// ComposerSubmit sends the text.
	ComposerSubmit
	// ComposerNewline inserts a line break.
	ComposerNewline
)

// ComposerAction classifies a composer key press: Enter submits, Enter with
// Alt or Shift inserts a newline.
func ComposerAction(key tcell.Key, mod tcell.ModMask) ComposerKey {
	if key != tcell.KeyEnter {
		return ComposerPass
	}
	if mod&(tcell.ModAlt|tcell.ModShift) != 0 {
		return ComposerNewline
	}
	return ComposerSubmit
}
