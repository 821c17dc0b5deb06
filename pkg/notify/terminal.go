package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rupaya/live/pkg/events"
)

// TerminalSink prints one styled line per notification, like a toast.
type TerminalSink struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time

	timeStyle lipgloss.Style
	styles    map[events.Severity]lipgloss.Style
}

// NewTerminalSink creates a sink writing to w. Colors are used only when w is
// a terminal that supports them.
func NewTerminalSink(w io.Writer) *TerminalSink {
	r := lipgloss.NewRenderer(w)
	return &TerminalSink{
		w:   w,
		now: time.Now,
		timeStyle: r.NewStyle().
			Foreground(lipgloss.Color("#888888")),
		styles: map[events.Severity]lipgloss.Style{
			events.SeveritySuccess: r.NewStyle().
				Foreground(lipgloss.Color("#00D4AA")).
				Bold(true),
			events.SeverityInfo: r.NewStyle().
				Foreground(lipgloss.Color("#5FAFFF")),
			events.SeverityError: r.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B")).
				Bold(true),
		},
	}
}

func badge(severity events.Severity) string {
	switch severity {
	case events.SeveritySuccess:
		return "[ok]"
	case events.SeverityError:
		return "[error]"
	default:
		return "[info]"
	}
}

func (s *TerminalSink) Notify(message string, severity events.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	style, ok := s.styles[severity]
	if !ok {
		style = s.styles[events.SeverityInfo]
	}
	stamp := s.timeStyle.Render(s.now().Format("15:04:05"))
	_, _ = fmt.Fprintf(s.w, "%s %s %s\n", stamp, style.Render(badge(severity)), message)
}
