package styles

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/config"
	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

var (
	// Card styles
	CardStyle lipgloss.Style
	CardWidth = 80

	// Text styles
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	LabelStyle    lipgloss.Style // For field labels like "Type:", "Status:"
	ValueStyle    lipgloss.Style // For field values
	SectionStyle  lipgloss.Style // For section headers like "Description", "Relations"

	// Status styles
	ClosedStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style

	// Hierarchy tree guides
	TreeStyle lipgloss.Style
)

func init() {
	Init(*config.Preset("default"))
}

// Init initializes all CLI styles with the given theme
func Init(theme config.Theme) {
	theme.ApplyDefaults()

	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(CardWidth)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Title))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Subtle))

	LabelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Accent))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Normal))

	SectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true).
		MarginTop(1)

	ClosedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Subtle)).
		Strikethrough(true)

	SuccessStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Success))

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Error))

	WarningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(theme.Warning))

	TreeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Subtle))
}

// ═══════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════

// ColoredText renders text with a hex color
func ColoredText(text, hexColor string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor)).
		Render(text)
}

// Field renders a "Label: value" line
func Field(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

// Section renders a section header
func Section(title string) string {
	return SectionStyle.Render(title)
}

// RenderPriority renders a priority name in its color
func RenderPriority(name, hexColor string) string {
	if hexColor == "" {
		return ValueStyle.Render(name)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hexColor)).Render(name)
}

// RenderReference renders a related work package with a bullet
// Format: "• #12 Subject (2024-06-03 → 2024-06-05)"
func RenderReference(prefix string, ref models.WorkPackageReference) string {
	text := fmt.Sprintf("#%d %s", ref.ID, ref.Subject)
	if prefix != "" {
		text = prefix + " " + text
	}
	if dates := DateRange(ref.StartDate, ref.DueDate); dates != "" {
		text += " " + SubtitleStyle.Render("("+dates+")")
	}
	return "• " + text
}

// DateRange renders "start → due" with "…" for missing ends
func DateRange(start, due *time.Time) string {
	s, d := formatDate(start), formatDate(due)
	if s == "" && d == "" {
		return ""
	}
	if s == "" {
		s = "…"
	}
	if d == "" {
		d = "…"
	}
	return s + " → " + d
}

func formatDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.DateOnly)
}

// IndentTree renders one hierarchy row indented by depth
func IndentTree(depth int, text string) string {
	if depth <= 1 {
		return text
	}
	return TreeStyle.Render(strings.Repeat("│  ", depth-2)+"└─ ") + text
}

// RenderCard wraps content in a styled card border
func RenderCard(content string) string {
	return CardStyle.Render(content)
}

// Cache glamour renderers by style and width to avoid expensive re-creation
var rendererCache sync.Map // map[string]*glamour.TermRenderer

func getRenderer(style string, width int) (*glamour.TermRenderer, error) {
	key := fmt.Sprintf("%s/%d", style, width)
	if cached, ok := rendererCache.Load(key); ok {
		return cached.(*glamour.TermRenderer), nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	rendererCache.Store(key, renderer)
	return renderer, nil
}

// RenderMarkdown renders a markdown description. Plain output skips
// colors for pipes and files. The raw text is returned if rendering fails.
func RenderMarkdown(text string, width int, plain bool) string {
	if strings.TrimSpace(text) == "" {
		return SubtitleStyle.Italic(true).Render("No description")
	}

	style := "dark"
	if plain {
		style = "notty"
	}
	renderer, err := getRenderer(style, width)
	if err != nil {
		return text
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}
