package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-session-import/internal/model"
)

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorError     = lipgloss.Color("9")   // bright red

	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleLabel = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(16)

	styleOK = lipgloss.NewStyle().
		Foreground(colorSecondary)

	styleWarn = lipgloss.NewStyle().
			Foreground(colorHighlight)

	styleFail = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	styleDim = lipgloss.NewStyle().
			Foreground(colorDim)

	providerStyles = map[string]lipgloss.Style{
		model.ProviderChatGPT:    lipgloss.NewStyle().Foreground(colorSecondary),
		model.ProviderClaudeWeb:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		model.ProviderClaudeCode: lipgloss.NewStyle().Foreground(colorPrimary),
		model.ProviderCowork:     lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of stdout, or 0 when it is not a terminal.
func termWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

func colorizeProvider(provider string) string {
	if s, ok := providerStyles[provider]; ok {
		return s.Render(provider)
	}
	return provider
}

// row renders one "label value" line of a report.
func row(label string, value any) string {
	return styleLabel.Render(label) + " " + fmt.Sprint(value)
}
