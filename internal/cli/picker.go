package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	cerrors "github.com/matzehuels/cpgwalk/pkg/errors"
	"github.com/matzehuels/cpgwalk/pkg/profile"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// profilePicker - Interactive profile selection
// =============================================================================

// profilePicker is the bubbletea model behind query --pick. The cursor
// starts on the file's default profile.
type profilePicker struct {
	profiles []*profile.Profile
	defName  string
	cursor   int
	selected *profile.Profile
}

func newProfilePicker(cfg *profile.Config) profilePicker {
	m := profilePicker{defName: cfg.Default}
	for i, name := range cfg.Names() {
		m.profiles = append(m.profiles, cfg.Profiles[name])
		if name == cfg.Default {
			m.cursor = i
		}
	}
	return m
}

func (m profilePicker) Init() tea.Cmd {
	return nil
}

func (m profilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.profiles)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.profiles) > 0 {
			m.selected = m.profiles[m.cursor]
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m profilePicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Profile"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.profiles))
	for i, p := range m.profiles {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		name := p.Name
		if name == m.defName {
			name += " *"
		}
		rows[i] = []string{cursor, name, p.Graph, p.Direction, p.Scope, p.Description}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Profile", "Graph", "Direction", "Scope", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == m.cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.profiles))))
	return b.String()
}

// pickProfile lets the user choose a profile of cfg on the terminal and
// returns its name.
func pickProfile(ctx context.Context, cfg *profile.Config) (string, error) {
	final, err := tea.NewProgram(newProfilePicker(cfg), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", err
	}
	m, _ := final.(profilePicker)
	if m.selected == nil {
		return "", cerrors.New(cerrors.ErrCodeInvalidInput, "no profile selected")
	}
	return m.selected.Name, nil
}
