package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal colors, ANSI 256 palette.
const (
	ColorInfo    = "39"
	ColorSuccess = "28"
	ColorWarning = "214"
	ColorDanger  = "196"
	ColorDim     = "241"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorInfo))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDanger)).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim))
)

var levelMarks = [...]string{
	LevelInfo:    "i",
	LevelSuccess: "✓",
	LevelWarning: "!",
	LevelDanger:  "✗",
}

// Terminal prints styled one-line notifications to a writer.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a notifier writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Notify implements Notifier.
func (t *Terminal) Notify(_ context.Context, n Notification) {
	line := Format(n)

	t.mu.Lock()
	defer t.mu.Unlock()

	_, _ = fmt.Fprintln(t.w, line)
}

// Format renders a notification as a single styled line.
func Format(n Notification) string {
	style := styleFor(n.Level)

	mark := "?"
	if n.Level >= 0 && int(n.Level) < len(levelMarks) {
		mark = levelMarks[n.Level]
	}

	line := style.Render(mark + " " + n.Message)
	if n.Err != nil {
		line += " " + detailStyle.Render("("+n.Err.Error()+")")
	}

	return line
}

func styleFor(l Level) lipgloss.Style {
	switch l {
	case LevelSuccess:
		return successStyle
	case LevelWarning:
		return warningStyle
	case LevelDanger:
		return dangerStyle
	default:
		return infoStyle
	}
}
