package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tldr-it-stepankutaj/releasekit/internal/manifest"
)

// ErrCancelled is returned when the user quits without choosing.
var ErrCancelled = errors.New("no version type selected")

var docStyle = lipgloss.NewStyle().Margin(1, 2)

// partItem wraps a bump part for the list display.
type partItem struct {
	part manifest.Part
	desc string
}

func (i partItem) Title() string       { return string(i.part) }
func (i partItem) Description() string { return i.desc }
func (i partItem) FilterValue() string { return string(i.part) }

type model struct {
	parts    list.Model
	selected manifest.Part
	done     bool
}

func newModel() model {
	items := []list.Item{
		partItem{part: manifest.Patch, desc: "Small bug fixes"},
		partItem{part: manifest.Minor, desc: "New features, but backward compatible"},
		partItem{part: manifest.Major, desc: "Breaking changes"},
	}

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	parts := list.New(items, delegate, 0, 0)
	parts.Title = "Select Version Type"
	parts.SetShowStatusBar(false)
	parts.SetFilteringEnabled(false)

	return model{parts: parts}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.parts.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item, ok := m.parts.SelectedItem().(partItem); ok {
				m.selected = item.part
				m.done = true
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.parts, cmd = m.parts.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return docStyle.Render(m.parts.View())
}

// PickBumpPart shows an interactive picker for the version component to
// bump. Quitting without a choice returns ErrCancelled.
func PickBumpPart() (manifest.Part, error) {
	final, err := tea.NewProgram(newModel()).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(model)
	if !ok || !m.done {
		return "", ErrCancelled
	}
	return m.selected, nil
}
