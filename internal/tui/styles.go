package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by the dashboard
type Styles struct {
	AppTitle    lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	ListSelected lipgloss.Style
	ListNormal   lipgloss.Style
	ListDim      lipgloss.Style

	StatusInfo  lipgloss.Style
	StatusError lipgloss.Style
	StatusBar   lipgloss.Style

	Modal      lipgloss.Style
	ModalTitle lipgloss.Style

	WizardStep     lipgloss.Style
	WizardStepDone lipgloss.Style
	WizardStepSkip lipgloss.Style

	LogLine lipgloss.Style
	Help    lipgloss.Style
}

// DefaultStyles returns the standard dashboard styling
func DefaultStyles() Styles {
	return Styles{
		AppTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true).
			Padding(0, 1),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1),

		ListSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		ListNormal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		ListDim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		StatusInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		StatusError: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),

		WizardStep: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		WizardStepDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		WizardStepSkip: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),

		LogLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}
