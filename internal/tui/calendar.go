package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cleanstreak/internal/calendar"
	"cleanstreak/internal/engine"
	"cleanstreak/internal/streak"
	"cleanstreak/internal/ui"
)

// RunCalendar opens the interactive month view.
func RunCalendar(ctx context.Context, svc *engine.Service, userID string, out io.Writer) error {
	m := newCalModel(ctx, svc, userID)
	p := tea.NewProgram(m, tea.WithOutput(out))
	_, err := p.Run()
	return err
}

type calModel struct {
	ctx    context.Context
	svc    *engine.Service
	userID string

	month   time.Time // first day of the displayed month
	history calendar.History
	record  streak.Record

	lastLog string
	loading bool
}

type historyMsg struct {
	history calendar.History
	record  streak.Record
}

func newCalModel(ctx context.Context, svc *engine.Service, userID string) calModel {
	now := time.Now()
	return calModel{
		ctx:     ctx,
		svc:     svc,
		userID:  userID,
		month:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m calModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m calModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		h := m.svc.History().History(m.ctx)
		rec, _ := m.svc.LoadStreak(m.ctx, m.userID)
		return historyMsg{history: h, record: rec}
	}
}

func (m calModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyMsg:
		m.loading = false
		m.history = msg.history
		m.record = msg.record
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "left", "h":
			m.month = m.month.AddDate(0, -1, 0)
			return m, nil
		case "right", "l":
			m.month = m.month.AddDate(0, 1, 0)
			return m, nil
		case "t":
			now := time.Now()
			m.month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			return m, nil
		}
	}
	return m, nil
}

func (m calModel) View() string {
	var b strings.Builder

	b.WriteString(ui.Heading(ui.IconCal, m.month.Format("January 2006")) + "\n")
	b.WriteString(ui.LabelValue("Streak", ui.StreakText(m.record.Count)) + "\n\n")

	b.WriteString(ui.Muted.Render(" Mo Tu We Th Fr Sa Su") + "\n")
	b.WriteString(MonthGrid(m.month, m.history, time.Now()))

	b.WriteString("\n" + ui.Muted.Render("←/→ month · t today · r refresh · q quit") + "\n")
	if m.loading {
		b.WriteString(ui.Muted.Render("Loading…") + "\n")
	} else {
		b.WriteString(ui.Muted.Render(m.lastLog) + "\n")
	}
	return ui.Panel.Render(b.String())
}

// MonthGrid renders the day cells of the month containing monthStart, one
// week per line, Monday first. Shared by the TUI and the plain CLI view.
func MonthGrid(monthStart time.Time, history calendar.History, now time.Time) string {
	first := time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	daysIn := first.AddDate(0, 1, -1).Day()

	// Monday-first column of the 1st.
	col := (int(first.Weekday()) + 6) % 7

	var b strings.Builder
	b.WriteString(strings.Repeat("   ", col))
	for dayNum := 1; dayNum <= daysIn; dayNum++ {
		d := first.AddDate(0, 0, dayNum-1)
		status := string(history[calendar.DateKey(d)])
		b.WriteString(" " + ui.DayCell(dayNum, status, calendar.SameDay(d, now)))
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
	return b.String()
}
