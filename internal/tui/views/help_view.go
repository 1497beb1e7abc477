package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/counsel/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpSection is a titled group of key hints, each formatted "key:description".
type HelpSection struct {
	Title string
	Hints []string
}

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	return &HelpView{TextView: tv, theme: theme}
}

// Update renders sections.
func (hv *HelpView) Update(sections []HelpSection) {
	hv.SetText(renderHelp(ui.Tag(hv.theme.KeyColor), sections))
	hv.ScrollToBeginning()
}

func renderHelp(keyTag string, sections []HelpSection) string {
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.Title)
		for _, h := range s.Hints {
			key, desc, ok := strings.Cut(h, ":")
			if !ok {
				fmt.Fprintf(&b, "  %s\n", tview.Escape(h))
				continue
			}
			fmt.Fprintf(&b, "  [%s]%-12s[-:-:-] %s\n", keyTag, tview.Escape(key), desc)
		}
	}
	return b.String()
}
