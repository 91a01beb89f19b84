// This file contains the terminal styling for agent command output.
package main

import (
	"github.com/charmbracelet/lipgloss"
)

// Semantic colors shared across subcommands
var (
	successColor = lipgloss.Color("#8BC34A") // Lime Green
	warnColor    = lipgloss.Color("#FFC107") // Yellow
	errorColor   = lipgloss.Color("#e53935") // Red
	mutedColor   = lipgloss.Color("#6b7280") // Gray
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
)
