package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zyora-ai/site/internal/widget"
)

var (
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Zyora AI")
	assistantText  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	indicatorStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	navStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	quickStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// terminalSurface prints widget changes to a terminal. Streaming updates are
// written as deltas; when the final text is not an extension of what was
// printed (a directive was stripped) the whole message is printed again.
type terminalSurface struct {
	out     io.Writer
	printed map[int64]string
	open    int64
}

func newTerminalSurface(out io.Writer) *terminalSurface {
	return &terminalSurface{out: out, printed: make(map[int64]string)}
}

func (s *terminalSurface) MessageAppended(m widget.DisplayMessage) {
	if !m.FromAssistant {
		return
	}
	s.endLine()
	fmt.Fprintf(s.out, "%s  %s", assistantLabel, assistantText.Render(m.Text))
	s.printed[m.ID] = m.Text
	s.open = m.ID
}

func (s *terminalSurface) MessageUpdated(m widget.DisplayMessage) {
	prev := s.printed[m.ID]
	if s.open == m.ID && strings.HasPrefix(m.Text, prev) {
		fmt.Fprint(s.out, assistantText.Render(m.Text[len(prev):]))
	} else {
		s.endLine()
		fmt.Fprintf(s.out, "%s  %s", assistantLabel, assistantText.Render(m.Text))
		s.open = m.ID
	}
	s.printed[m.ID] = m.Text
}

func (s *terminalSurface) IndicatorChanged(i widget.Indicator) {
	switch i {
	case widget.IndicatorTyping:
		s.endLine()
		fmt.Fprintln(s.out, indicatorStyle.Render("Zyora AI is typing..."))
	case widget.IndicatorSubmitting:
		s.endLine()
		fmt.Fprintln(s.out, indicatorStyle.Render("Sending your details..."))
	}
}

func (s *terminalSurface) Notify(n widget.Notice) {
	s.endLine()
	style := infoStyle
	if n.Level == widget.NoticeWarning {
		style = warnStyle
	}
	fmt.Fprintln(s.out, style.Render(n.Title+": "+n.Description))
}

func (s *terminalSurface) Navigate(path string) {
	s.endLine()
	fmt.Fprintln(s.out, navStyle.Render("→ navigating to "+path))
}

func (s *terminalSurface) endLine() {
	if s.open != 0 {
		fmt.Fprintln(s.out)
		s.open = 0
	}
}

func renderQuickActions(actions []widget.QuickAction) string {
	labels := make([]string, len(actions))
	for i, qa := range actions {
		labels[i] = quickStyle.Render(fmt.Sprintf("/%d %s", i+1, qa.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, labels...)
}
