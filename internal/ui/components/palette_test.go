package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

var testCommands = []Command{
	{Name: "start", Help: "begin the calibration"},
	{Name: "answer", Args: "<label>", Help: "answer the current question"},
	{Name: "runs", Help: "list archived runs"},
	{Name: "reset", Help: "back to the start screen"},
}

func TestSuggestMatchesFirstWord(t *testing.T) {
	t.Parallel()
	p := NewPalette(testCommands)
	got := p.Suggest("r")
	if len(got) != 2 || got[0].Name != "runs" || got[1].Name != "reset" {
		t.Fatalf("unexpected suggestions %+v", got)
	}
	if got := p.Suggest("answer faster"); len(got) != 1 || got[0].Name != "answer" {
		t.Fatalf("arguments must not affect matching: %+v", got)
	}
	if got := p.Suggest(""); len(got) != len(testCommands) {
		t.Fatalf("empty input lists everything, got %d", len(got))
	}
}

func TestTabCompletesAndEnterSubmits(t *testing.T) {
	t.Parallel()
	p := NewPalette(testCommands)
	_ = p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("an")})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("stay")})
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() {
		t.Fatalf("enter must close the palette")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "answer stay" {
		t.Fatalf("unexpected submit %#v", cmd())
	}
}

func TestEscCancels(t *testing.T) {
	t.Parallel()
	p := NewPalette(testCommands)
	_ = p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("esc must close the palette")
	}
	if _, ok := cmd().(PaletteCancelMsg); !ok {
		t.Fatalf("expected cancel message")
	}
}
