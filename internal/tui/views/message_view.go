package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageView displays the active conversation, grouped by day.
type MessageView struct {
	*tview.TextView
	theme    *ui.Theme
	lastText string
}

// NewMessageView creates a new message view.
func NewMessageView(theme *ui.Theme) *MessageView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")
	tv.SetBorderColor(theme.BorderColor)
	tv.SetTitleColor(theme.TitleColor)

	return &MessageView{TextView: tv, theme: theme}
}

// SetPeer updates the title with the peer's name.
func (mv *MessageView) SetPeer(name string) {
	mv.SetTitle(fmt.Sprintf(" %s ", sanitizeForTerminal(name)))
}

// Update redraws the thread. The view only jumps to the newest message when
// the content actually changed, so scrolling back survives idle polls.
func (mv *MessageView) Update(groups []chat.DayGroup, selfID, peerName string) {
	text := renderThread(mv.theme, groups, selfID, peerName)
	if text == mv.lastText {
		return
	}
	mv.lastText = text
	mv.SetText(text)
	mv.ScrollToEnd()
}

// Reset empties the view.
func (mv *MessageView) Reset() {
	mv.lastText = ""
	mv.Clear()
}

func renderThread(theme *ui.Theme, groups []chat.DayGroup, selfID, peerName string) string {
	if len(groups) == 0 {
		return "\n  [::d]No messages yet. Say hello.[-:-:-]\n"
	}
	selfTag, peerTag, dateTag := ui.Tag(theme.SelfColor), ui.Tag(theme.PeerColor), ui.Tag(theme.DateColor)
	peer := sanitizeForTerminal(peerName)

	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "\n[%s::b]── %s ──[-:-:-]\n\n", dateTag, g.Label)
		for _, m := range g.Messages {
			sender, tag := peer, peerTag
			if m.SenderID == selfID {
				sender, tag = "You", selfTag
			}
			status := ""
			if m.Status == chat.Pending {
				status = " [::d]sending…[-:-:-]"
			}
			fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n\n",
				tag, sender, m.Timestamp.Format("15:04"), status, sanitizeForTerminal(m.Text))
		}
	}
	return b.String()
}
