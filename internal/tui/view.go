package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kozaktomas/attendance-kiosk/internal/roster"
	"github.com/kozaktomas/attendance-kiosk/internal/session"
)

// Style definitions
var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	errorBarStyle = statusBarStyle.
			Background(lipgloss.Color("124")).
			Foreground(lipgloss.Color("255"))

	mainContentStyle = lipgloss.NewStyle().
				Padding(1, 2)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1)

	activeTabStyle = tabStyle.
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("0"))

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	presentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	absentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the UI
func (m Model) View() string {
	timeStr := m.currentTime.Format("Mon Jan 2 15:04:05")

	header := headerStyle.Width(m.width).Render(lipgloss.JoinHorizontal(
		lipgloss.Center,
		"Attendance Kiosk",
		lipgloss.NewStyle().
			Width(max(m.width-20, 0)).
			Align(lipgloss.Right).
			Render(timeStr),
	))

	var content string
	switch m.activeTab {
	case rosterTab:
		content = m.renderRoster()
	default:
		content = m.renderSession()
	}

	bar := statusBarStyle
	if m.isError {
		bar = errorBarStyle
	}
	statusBar := bar.Width(m.width).Render(m.status)

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.renderTabs(), mainContentStyle.Render(content), statusBar)
}

func (m Model) renderTabs() string {
	rendered := make([]string, 0, len(tabTitles))
	for i, title := range tabTitles {
		style := tabStyle
		if tabType(i) == m.activeTab {
			style = activeTabStyle
		}
		rendered = append(rendered, style.Render(fmt.Sprintf("%d %s", i+1, title)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderSession() string {
	var b strings.Builder
	s := m.snapshot

	mode := m.mode
	if s.SessionID != "" {
		mode = s.Mode
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Mode:  "), mode)

	state := string(s.Status)
	if m.busy() {
		state = fmt.Sprintf("%s %s (%s)", m.spinner.View(), s.Status, s.Pending)
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("State: "), state)
	if s.Attempts > 0 {
		fmt.Fprintf(&b, "%s %d\n", labelStyle.Render("Tries: "), s.Attempts)
	}
	b.WriteString("\n")

	switch {
	case s.Error != "":
		b.WriteString(errorStyle.Render(s.Error) + "\n\n")
	case s.Status == session.StatusSuccess:
		b.WriteString(successStyle.Render(successText(s.Result)) + "\n\n")
	}

	if mode == session.ModeRegistration {
		b.WriteString(labelStyle.Render("Registration details") + "\n")
		b.WriteString(m.form[fieldName].View() + "\n")
		b.WriteString(m.form[fieldRoll].View() + "\n\n")
	}

	b.WriteString(helpStyle.Render(m.sessionHelp()))
	return b.String()
}

func (m Model) sessionHelp() string {
	if m.focus == focusForm {
		return "tab: next field • enter: save • esc: cancel"
	}
	if m.snapshot.SessionID == "" {
		help := "s: start • m: switch mode"
		if m.mode == session.ModeRegistration {
			help += " • e: edit details"
		}
		return help + " • q: quit"
	}
	return "space: capture • r: retry • x: close • q: quit"
}

func (m Model) renderRoster() string {
	var b strings.Builder

	all := m.roster.Records()
	records := roster.Sort(roster.Search(all, m.search.Value()), sortColumns[m.sortIdx], m.sortDesc)

	present := 0
	for _, r := range all {
		if r.Status == roster.Present {
			present++
		}
	}
	updated := "never"
	if t := m.roster.UpdatedAt(); !t.IsZero() {
		updated = t.Format("15:04:05")
	}
	fmt.Fprintf(&b, "%s %d/%d present, updated %s\n", labelStyle.Render("Roster:"), present, len(all), updated)
	b.WriteString(m.search.View() + "\n\n")

	dir := "asc"
	if m.sortDesc {
		dir = "desc"
	}
	fmt.Fprintf(&b, "%-8s %-28s %-9s %s   %s\n", "ROLL", "NAME", "STATUS", "TIME",
		helpStyle.Render(fmt.Sprintf("sorted by %s %s", sortColumns[m.sortIdx], dir)))

	limit := len(records)
	if m.height > 12 {
		limit = min(limit, m.height-12)
	}
	for _, r := range records[:limit] {
		style := absentStyle
		if r.Status == roster.Present {
			style = presentStyle
		}
		fmt.Fprintf(&b, "%-8s %-28s %s %s\n", r.RollNumber, truncate(r.Name, 28),
			style.Render(fmt.Sprintf("%-9s", r.Status)), r.Time)
	}
	if hidden := len(records) - limit; hidden > 0 {
		fmt.Fprintf(&b, "%s\n", helpStyle.Render(fmt.Sprintf("... %d more", hidden)))
	}

	b.WriteString("\n" + helpStyle.Render("/: search • o: sort column • d: direction • R: refresh"))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
