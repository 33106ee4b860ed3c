package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

	// Classification colors
	Matched = lipgloss.Color("#10B981") // Green
	Renamed = lipgloss.Color("#F59E0B") // Amber
	Added   = lipgloss.Color("#60A5FA") // Blue
	Removed = lipgloss.Color("#6B7280") // Gray

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// List rows
	Row = lipgloss.NewStyle()

	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	RowMuted = lipgloss.NewStyle().
			Foreground(Muted)

	// Classification tags
	TagMatched = lipgloss.NewStyle().Foreground(Matched)
	TagRenamed = lipgloss.NewStyle().Foreground(Renamed).Bold(true)
	TagAdded   = lipgloss.NewStyle().Foreground(Added)
	TagRemoved = lipgloss.NewStyle().Foreground(Removed)

	// Status and messages
	StatusBar = lipgloss.NewStyle().
			Foreground(Muted).
			MarginTop(1)

	MessageInfo = lipgloss.NewStyle().
			Foreground(Secondary)

	MessageError = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString("  ")

	Spinner = lipgloss.NewStyle().
		Foreground(Primary)
)
