package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Kind   workspace.Kind
}

// kindItem implements list.Item for environment kind display
type kindItem struct {
	kind      workspace.Kind
	supported bool
}

func (i kindItem) Title() string {
	return i.kind.String()
}

func (i kindItem) Description() string {
	return fmt.Sprintf("%s %s", statusIcon(i.supported), i.kind.Description())
}

func (i kindItem) FilterValue() string {
	return i.kind.String()
}

func statusIcon(supported bool) string {
	if supported {
		return "✓"
	}
	return "○"
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the environment kind picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a picker over kinds. supported marks the kinds the
// factory can build; the others are listed but cannot be selected.
func NewPicker(kinds []workspace.Kind, supported func(workspace.Kind) bool) Model {
	items := make([]list.Item, len(kinds))
	for i, k := range kinds {
		items[i] = kindItem{kind: k, supported: supported != nil && supported(k)}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "Forage - Select Workspace Environment"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			item, ok := m.list.SelectedItem().(kindItem)
			if !ok {
				return m, nil
			}
			if !item.supported {
				return m, m.list.NewStatusMessage(fmt.Sprintf("%s is not available here", item.kind))
			}
			m.result = PickerResult{Action: ActionSelect, Kind: item.kind}
			m.quitting = true
			return m, tea.Quit

		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Select  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive kind picker. A single supported kind is
// returned without starting the program.
func RunPicker(kinds []workspace.Kind, supported func(workspace.Kind) bool) (PickerResult, error) {
	var only []workspace.Kind
	for _, k := range kinds {
		if supported != nil && supported(k) {
			only = append(only, k)
		}
	}
	switch len(only) {
	case 0:
		return PickerResult{Action: ActionQuit}, nil
	case 1:
		return PickerResult{Action: ActionSelect, Kind: only[0]}, nil
	}

	m := NewPicker(kinds, supported)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive rendering of the kind list
func SimplePicker(kinds []workspace.Kind, supported func(workspace.Kind) bool) string {
	var sb strings.Builder

	sb.WriteString("Forage - Workspace Environments\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(kinds) == 0 {
		sb.WriteString("No environments known.\n")
		return sb.String()
	}

	for i, k := range kinds {
		ok := supported != nil && supported(k)
		sb.WriteString(fmt.Sprintf("%d. %s %-8s %s\n", i+1, statusIcon(ok), k, k.Description()))
	}

	sb.WriteString("\nSelect one with: forage-ws run --kind <name> -- <command>\n")
	return sb.String()
}
