package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/cpgwalk/pkg/profile"
)

func pickerConfig(t *testing.T) *profile.Config {
	t.Helper()
	cfg, err := profile.Decode(`
default = "local"

[profiles.exit]
graph = "eog"

[profiles.local]
scope = "intraprocedural"
description = "stay in one function"

[profiles.taint]
max_call_depth = 3
`)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func press(m tea.Model, keys ...tea.KeyMsg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

var (
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
)

func TestProfilePicker(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want string
	}{
		{"default", []tea.KeyMsg{keyEnter}, "local"},
		{"down", []tea.KeyMsg{keyDown, keyEnter}, "taint"},
		{"clamped at end", []tea.KeyMsg{keyDown, keyDown, keyDown, keyEnter}, "taint"},
		{"clamped at start", []tea.KeyMsg{keyUp, keyUp, keyUp, keyEnter}, "exit"},
		{"quit", []tea.KeyMsg{keyQuit}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(newProfilePicker(pickerConfig(t)), tt.keys...).(profilePicker)
			got := ""
			if m.selected != nil {
				got = m.selected.Name
			}
			if got != tt.want {
				t.Errorf("selected = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfilePickerView(t *testing.T) {
	view := newProfilePicker(pickerConfig(t)).View()
	for _, want := range []string{"Select Profile", "local *", "stay in one function", "eog", "[2/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}
