package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/KamilBuksa/SimpleTodo/client"
	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/taskutil"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Bold(true).Underline(true).Foreground(lipgloss.Color("12"))
	cursorStyle    = lipgloss.NewStyle().Bold(true)
	doneStyle      = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	focusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)

	priorityStyles = map[domain.Priority]lipgloss.Style{
		domain.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		domain.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		domain.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	deadlineStyles = map[taskutil.DeadlineKind]lipgloss.Style{
		taskutil.DeadlineOverdue:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		taskutil.DeadlineDueToday: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		taskutil.DeadlineDueSoon:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		taskutil.DeadlineFuture:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SimpleTodo") + "\n\n")

	m.writeTabs(&b)
	m.writeStats(&b)

	if m.mode == modeForm {
		m.writeForm(&b)
	} else {
		m.writeSearch(&b)
		m.writeList(&b)
	}

	m.writeNotice(&b)
	m.writeHelp(&b)
	return b.String()
}

func (m *Model) writeTabs(b *strings.Builder) {
	c := m.state.Counts()
	tabs := []struct {
		label  string
		status domain.StatusFilter
	}{
		{countLabel("All", c.Total), domain.StatusAll},
		{countLabel("Active", c.Active), domain.StatusIncomplete},
		{countLabel("Completed", c.Completed), domain.StatusCompleted},
	}
	filter := m.state.Filter()
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		style := tabStyle
		if t.status == filter {
			style = activeTabStyle
		}
		parts[i] = style.Render(fmt.Sprintf("%d %s", i+1, t.label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n")
}

func (m *Model) writeStats(b *strings.Builder) {
	s := m.stats()
	line := fmt.Sprintf("Done %d%%  Overdue %d  Created today %d  Completed today %d",
		s.CompletionRate, s.Overdue, s.CreatedToday, s.CompletedToday)
	b.WriteString(dimStyle.Render(line) + "\n\n")
}

func (m *Model) writeSearch(b *strings.Builder) {
	term := m.state.Search()
	switch {
	case m.mode == modeSearch:
		b.WriteString(focusStyle.Render("Search: ") + term + "_\n\n")
	case term != "":
		b.WriteString(dimStyle.Render("Search: "+term+" (esc to clear)") + "\n\n")
	}
}

func (m *Model) writeList(b *strings.Builder) {
	if m.state.Loading() {
		b.WriteString("Loading...\n\n")
		return
	}
	visible := m.state.Visible()
	if len(visible) == 0 {
		if m.state.Search() != "" {
			b.WriteString(dimStyle.Render("No tasks match your search.") + "\n\n")
		} else {
			b.WriteString(dimStyle.Render("No tasks yet. Press a to add one.") + "\n\n")
		}
		return
	}
	now := m.now()
	for i, t := range visible {
		b.WriteString(m.renderRow(t, i == m.cursor, now) + "\n")
	}
	b.WriteString("\n")
}

func (m *Model) renderRow(t client.Task, selected bool, now time.Time) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("> ")
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	title := t.Title
	if t.Completed {
		title = doneStyle.Render(title)
	}

	cols := []string{cursor + check, priorityStyles[t.Priority].Render(fmt.Sprintf("%-6s", t.Priority)), title}

	if t.Deadline != nil {
		status := taskutil.ClassifyDeadline(t.Deadline, now)
		badge := taskutil.FormatDeadline(t.Deadline, now)
		if status.Label != "" && status.Kind != taskutil.DeadlineFuture {
			badge += " - " + status.Label
		}
		cols = append(cols, deadlineStyles[status.Kind].Render(badge))
	}
	if est := estimateLabel(t.TimeEstimate); est != "" {
		cols = append(cols, dimStyle.Render(est))
	}
	if t.IsSaving {
		cols = append(cols, dimStyle.Render("(saving...)"))
	}
	if t.IsEditing {
		cols = append(cols, dimStyle.Render("(editing)"))
	}
	return strings.Join(cols, "  ")
}

func (m *Model) writeForm(b *strings.Builder) {
	heading := "New task"
	if m.form.original != nil {
		heading = "Edit task"
	}
	b.WriteString(titleStyle.Render(heading) + "\n\n")
	for i, name := range formFields {
		label := fmt.Sprintf("%-12s", name+":")
		value := m.form.values[i]
		if i == m.form.focus {
			b.WriteString(focusStyle.Render(label) + value + "_\n")
			continue
		}
		b.WriteString(label + value + "\n")
	}
	b.WriteString(dimStyle.Render("\nDeadline YYYY-MM-DD, priority low|medium|high|urgent, estimate like 1h30m") + "\n\n")
}

func (m *Model) writeNotice(b *strings.Builder) {
	if m.notice.Message == "" {
		return
	}
	style := successStyle
	if m.notice.Level == client.LevelError {
		style = errorStyle
	}
	b.WriteString(style.Render(m.notice.Message) + "\n\n")
}

func (m *Model) writeHelp(b *strings.Builder) {
	var help string
	switch m.mode {
	case modeForm:
		help = "tab next field  enter save  esc cancel"
	case modeSearch:
		help = "type to search  enter done  esc clear"
	default:
		help = "j/k move  space toggle  a add  e edit  d delete  J/K reorder  / search  1-3 filter  r reload  q quit"
	}
	b.WriteString(dimStyle.Render(help) + "\n")
}
