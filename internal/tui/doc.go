// Package tui provides terminal user interface components for forage-ws.
//
// The only component is the environment picker shown by "forage-ws run"
// when no --kind is given on an interactive terminal:
//
//	result, err := tui.RunPicker(workspace.AllKinds(), factory.IsSupported)
//	switch result.Action {
//	case tui.ActionSelect:
//	    // Create a workspace of result.Kind
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// Kinds the factory cannot build are listed with a hollow marker and
// refuse selection. SimplePicker renders the same list as plain text for
// non-interactive output.
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
