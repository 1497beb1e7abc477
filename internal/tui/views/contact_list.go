package views

import (
	"github.com/matheus3301/counsel/internal/chat"
	"github.com/matheus3301/counsel/internal/tui/ui"
	"github.com/rivo/tview"
)

// ContactList is the contact table (K9s-inspired).
type ContactList struct {
	*tview.Table
	theme    *ui.Theme
	contacts []chat.Contact
}

// NewContactList creates a new contact table.
func NewContactList(theme *ui.Theme) *ContactList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true).SetTitle(" Contacts ")
	table.SetBorderColor(theme.BorderColor)
	table.SetTitleColor(theme.TitleColor)

	return &ContactList{Table: table, theme: theme}
}

// Update refreshes the table, keeping the selected contact selected when it
// is still listed.
func (cl *ContactList) Update(contacts []chat.Contact, isOnline func(id string) bool) {
	selected := cl.SelectedContact()
	cl.contacts = contacts
	cl.Clear()

	header := func(col int, text string) {
		cl.SetCell(0, col, tview.NewTableCell(text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg))
	}
	header(0, "  ")
	header(1, " Name")
	header(2, " Handle")

	row := 1
	for i, c := range contacts {
		marker := " "
		if isOnline != nil && isOnline(c.ID) {
			marker = "●"
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		cl.SetCell(i+1, 0, tview.NewTableCell(" "+marker).SetTextColor(cl.theme.OnlineColor))
		cl.SetCell(i+1, 1, tview.NewTableCell(" "+sanitizeForTerminal(name)).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(i+1, 2, tview.NewTableCell(" @"+sanitizeForTerminal(c.Handle)).SetMaxWidth(30).SetExpansion(1))
		if c.ID == selected {
			row = i + 1
		}
	}
	if len(contacts) > 0 {
		cl.Select(row, 0)
	}
}

// SelectedContact returns the ID of the selected contact, or "".
func (cl *ContactList) SelectedContact() string {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.contacts) {
		return cl.contacts[idx].ID
	}
	return ""
}
