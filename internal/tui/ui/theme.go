// Package ui holds look and feel shared by the TUI views.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TableHeaderFg    tcell.Color
	TitleColor       tcell.Color
	KeyColor         tcell.Color
	SelfColor        tcell.Color
	PeerColor        tcell.Color
	DateColor        tcell.Color
	OnlineColor      tcell.Color
	FlashInfoColor   tcell.Color
	FlashWarnColor   tcell.Color
	FlashErrColor    tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorCadetBlue,
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TableHeaderFg:    tcell.ColorWhite,
		TitleColor:       tcell.ColorFuchsia,
		KeyColor:         tcell.ColorDodgerBlue,
		SelfColor:        tcell.ColorAqua,
		PeerColor:        tcell.ColorOrange,
		DateColor:        tcell.ColorPapayaWhip,
		OnlineColor:      tcell.ColorLimeGreen,
		FlashInfoColor:   tcell.ColorNavajoWhite,
		FlashWarnColor:   tcell.ColorOrange,
		FlashErrColor:    tcell.ColorOrangeRed,
	}
}

// Tag returns c as a tview color tag value, e.g. "#ff4500".
func Tag(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}
