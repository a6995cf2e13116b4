package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	// Notice levels, matching the engine's classification.
	noticeInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	noticeSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	noticeDangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// Button states.
	btnPrimaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	btnDangerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	btnWarningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	btnSuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	btnDisabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(false)

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Aggregate bar fills, keyed by engine.BarColor semantics.
const (
	barBlueFill  = "#3b82f6"
	barRedFill   = "#ef4444"
	barGreenFill = "#22c55e"
	barAmberFill = "#f59e0b"
)
