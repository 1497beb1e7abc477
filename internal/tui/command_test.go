package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"open ana", Command{Name: "open", Args: "ana"}},
		{":open  Ana Souza ", Command{Name: "open", Args: "Ana Souza"}},
		{"o rui", Command{Name: "open", Args: "rui"}},
		{"QUIT", Command{Name: "quit"}},
		{"q", Command{Name: "quit"}},
		{"  refresh", Command{Name: "refresh"}},
		{"", Command{}},
		{"bogus x", Command{Name: "bogus", Args: "x"}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
