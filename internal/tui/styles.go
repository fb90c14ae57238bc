package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
)

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleFilter = lipgloss.NewStyle().
			Foreground(colorHighlight)

	styleSelected = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	styleSnippet = lipgloss.NewStyle().
			Foreground(colorDim)

	styleListPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	stylePreviewPanel = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleEmpty = lipgloss.NewStyle().
			Foreground(colorDim).
			Align(lipgloss.Center, lipgloss.Center)
)

// providerTags are the short list labels for each provider.
var providerTags = map[string]struct {
	tag   string
	color lipgloss.Color
}{
	model.ProviderChatGPT:    {"gpt", colorSecondary},
	model.ProviderClaudeWeb:  {"web", lipgloss.Color("208")},
	model.ProviderClaudeCode: {"code", colorPrimary},
	model.ProviderCowork:     {"cowrk", lipgloss.Color("13")},
}
