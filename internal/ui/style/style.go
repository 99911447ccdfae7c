// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	White  = lipgloss.Color("#FFFFFF")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Arrow   = "→"
)

// Styles are the text styles of the resolve summary.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Success lipgloss.Style
	Caution lipgloss.Style
	Failure lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles creates the summary styles bound to r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(Iris),
		Label:   r.NewStyle().Foreground(Slate).Width(14),
		Value:   r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(Green),
		Caution: r.NewStyle().Foreground(Yellow),
		Failure: r.NewStyle().Foreground(Red),
		Muted:   r.NewStyle().Foreground(Slate),
	}
}
