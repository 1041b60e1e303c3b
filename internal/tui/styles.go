package tui

import "github.com/charmbracelet/lipgloss"

var (
	white  = lipgloss.Color("#FAFAFA")
	green  = lipgloss.Color("#96CEB4")
	gold   = lipgloss.Color("#FFD700")
	red    = lipgloss.Color("#FF6B6B")
	yellow = lipgloss.Color("#FFEAA7")
	grey   = lipgloss.Color("#626262")
	purple = lipgloss.Color("#7D56F4")
	accent = lipgloss.Color("#04B575")
)

// Styles for table content
var (
	TitleStyle     = lipgloss.NewStyle().Foreground(white).Background(purple).Bold(true)
	SeatStyle      = lipgloss.NewStyle().Foreground(green).Bold(true)
	PromptStyle    = lipgloss.NewStyle().Foreground(gold).Bold(true)
	RedCardStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)
	BlackCardStyle = lipgloss.NewStyle().Foreground(white).Bold(true)
	HoleCardStyle  = lipgloss.NewStyle().Foreground(grey)
	ErrorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	WarningStyle   = lipgloss.NewStyle().Foreground(yellow).Bold(true)
	InfoStyle      = lipgloss.NewStyle().Foreground(grey)

	inputPromptStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	inputTextStyle   = lipgloss.NewStyle().Foreground(white)
	paneStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(grey)
)
