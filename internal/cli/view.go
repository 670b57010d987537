package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// view renders command output. Styling degrades to plain text when out is
// not a terminal.
type view struct {
	out      io.Writer
	title    lipgloss.Style
	muted    lipgloss.Style
	ok       lipgloss.Style
	warn     lipgloss.Style
	progress lipgloss.Style
}

func newView(out io.Writer) *view {
	r := lipgloss.NewRenderer(out)
	return &view{
		out:      out,
		title:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("245")),
		ok:       r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:     r.NewStyle().Foreground(lipgloss.Color("214")),
		progress: r.NewStyle().Foreground(lipgloss.Color("39")),
	}
}

func (v *view) heading(s string) {
	fmt.Fprintln(v.out, v.title.Render(s))
}

func (v *view) line(format string, args ...any) {
	fmt.Fprintf(v.out, format+"\n", args...)
}

func (v *view) note(s string) {
	fmt.Fprintln(v.out, v.muted.Render(s))
}

// table writes rows under header with tab-aligned columns.
func (v *view) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(v.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func (v *view) status(s domain.IssueStatus) string {
	switch s {
	case domain.IssueResolved:
		return v.ok.Render(string(s))
	case domain.IssuePending:
		return v.warn.Render(string(s))
	}
	return v.progress.Render(string(s))
}

// bar draws a ten-cell progress bar for a 0..100 value.
func (v *view) bar(pct int) string {
	filled := max(0, min(10, pct/10))
	return v.progress.Render(strings.Repeat("#", filled)) + v.muted.Render(strings.Repeat(".", 10-filled))
}

func (v *view) user(u *domain.ResolvedUser) {
	v.heading(displayName(u))
	v.line("  email  %s", u.Email)
	v.line("  role   %s", u.Role.DisplayName())
	v.note("  " + u.Role.Description())
}

func displayName(u *domain.ResolvedUser) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
