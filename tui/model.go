// Package tui is the terminal front end over client.TaskState.
package tui

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/KamilBuksa/SimpleTodo/client"
	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/taskutil"
	tea "github.com/charmbracelet/bubbletea"
)

const noticeTTL = 3 * time.Second

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
)

type loadedMsg struct{ err error }

type opDoneMsg struct{ err error }

type clearNoticeMsg struct{ seq int }

// Model is the bubbletea model. It renders the state and turns key presses
// into TaskState calls run as commands.
type Model struct {
	ctx       context.Context
	state     *client.TaskState
	notes     *client.Recorder
	logger    *log.Logger
	now       func() time.Time
	mode      mode
	cursor    int
	form      form
	notice    client.Notification
	noticeSeq int
	noticeTTL time.Duration
	width     int
}

// New creates a model. notes must be the notifier the state was built with.
func New(ctx context.Context, state *client.TaskState, notes *client.Recorder, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(nopWriter{}, "", 0)
	}
	return &Model{
		ctx:       ctx,
		state:     state,
		notes:     notes,
		logger:    logger,
		now:       time.Now,
		noticeTTL: noticeTTL,
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func (m *Model) Init() tea.Cmd {
	return m.load(domain.StatusAll)
}

func (m *Model) load(status domain.StatusFilter) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.state.Load(m.ctx, status)}
	}
}

func (m *Model) run(op func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: op(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case loadedMsg:
		if msg.err != nil {
			m.logger.Printf("load failed: %v", msg.err)
		}
		m.clampCursor()
		return m, m.flushNotices()
	case opDoneMsg:
		if msg.err != nil {
			m.logger.Printf("operation failed: %v", msg.err)
		}
		m.clampCursor()
		return m, m.flushNotices()
	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = client.Notification{}
		}
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeForm:
			return m, m.updateForm(msg)
		default:
			return m, m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	visible := m.state.Visible()

	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "1":
		return m.load(domain.StatusAll)
	case "2":
		return m.load(domain.StatusIncomplete)
	case "3":
		return m.load(domain.StatusCompleted)
	case "r":
		return m.load(m.state.Filter())
	case "/":
		m.mode = modeSearch
	case "esc":
		m.state.SetSearch("")
		m.clampCursor()
	case "a":
		m.form = newForm(nil)
		m.mode = modeForm
	case "e":
		if t, ok := m.selected(visible); ok {
			m.form = newForm(&t)
			m.state.SetEditing(t.ID, true)
			m.mode = modeForm
		}
	case " ", "enter":
		if t, ok := m.selected(visible); ok {
			id, completed := t.ID, !t.Completed
			return m.run(func(ctx context.Context) error {
				_, err := m.state.ToggleTask(ctx, id, completed)
				return err
			})
		}
	case "d", "delete":
		if t, ok := m.selected(visible); ok {
			id := t.ID
			return m.run(func(ctx context.Context) error {
				return m.state.DeleteTask(ctx, id)
			})
		}
	case "K", "shift+up":
		if m.cursor > 0 && m.state.Reorder(m.cursor, m.cursor-1) == nil {
			m.cursor--
		}
	case "J", "shift+down":
		if m.cursor < len(visible)-1 && m.state.Reorder(m.cursor, m.cursor+1) == nil {
			m.cursor++
		}
	}
	return nil
}

// selected returns the task under the cursor unless it is still being saved.
func (m *Model) selected(visible []client.Task) (client.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(visible) {
		return client.Task{}, false
	}
	t := visible[m.cursor]
	if t.IsSaving {
		return client.Task{}, false
	}
	return t, true
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	term := m.state.Search()
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyEnter:
		m.mode = modeList
	case tea.KeyEsc:
		term = ""
		m.mode = modeList
	case tea.KeyBackspace:
		term = dropLastRune(term)
	case tea.KeySpace:
		term += " "
	case tea.KeyRunes:
		term += string(msg.Runes)
	default:
		return nil
	}
	m.state.SetSearch(term)
	m.cursor = 0
	return nil
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyEsc:
		m.closeForm()
	case tea.KeyTab, tea.KeyDown:
		m.form.focus = (m.form.focus + 1) % len(formFields)
	case tea.KeyShiftTab, tea.KeyUp:
		m.form.focus = (m.form.focus + len(formFields) - 1) % len(formFields)
	case tea.KeyBackspace:
		m.form.values[m.form.focus] = dropLastRune(m.form.values[m.form.focus])
	case tea.KeySpace:
		m.form.values[m.form.focus] += " "
	case tea.KeyRunes:
		m.form.values[m.form.focus] += string(msg.Runes)
	case tea.KeyEnter:
		return m.submitForm()
	}
	return nil
}

func (m *Model) closeForm() {
	if m.form.original != nil {
		m.state.SetEditing(m.form.original.ID, false)
	}
	m.form = form{}
	m.mode = modeList
}

func (m *Model) submitForm() tea.Cmd {
	if m.form.original == nil {
		p, err := m.form.createPayload()
		if err != nil {
			return m.showNotice(client.LevelError, err.Error())
		}
		m.closeForm()
		return m.run(func(ctx context.Context) error {
			_, err := m.state.CreateTask(ctx, p)
			return err
		})
	}

	p, err := m.form.updatePayload()
	if err != nil {
		return m.showNotice(client.LevelError, err.Error())
	}
	id := m.form.original.ID
	m.closeForm()
	if p.Empty() {
		return nil
	}
	return m.run(func(ctx context.Context) error {
		_, err := m.state.UpdateTask(ctx, id, p)
		return err
	})
}

func (m *Model) flushNotices() tea.Cmd {
	notes := m.notes.Drain()
	if len(notes) == 0 {
		return nil
	}
	last := notes[len(notes)-1]
	return m.showNotice(last.Level, last.Message)
}

func (m *Model) showNotice(level client.Level, msg string) tea.Cmd {
	m.notice = client.Notification{Level: level, Message: msg}
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m *Model) clampCursor() {
	n := len(m.state.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

// stats summarizes every loaded task for the dashboard line.
func (m *Model) stats() taskutil.Stats {
	return taskutil.ComputeStats(m.state.Items(), m.now())
}

func trimDeadline(d *string) string {
	if d == nil {
		return ""
	}
	date, _, _ := strings.Cut(*d, "T")
	return date
}
