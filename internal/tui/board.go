// Package tui provides the interactive planning board using Bubble Tea. It
// is a rendering collaborator: it reads the store's display list, raises
// click/drag events to the coordinator, and never mutates scheduling state
// itself.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simal/floorboard/internal/coordinator"
	"github.com/simal/floorboard/internal/schedule"
	"github.com/simal/floorboard/internal/timeline"
)

// dragStep is how far one keyboard nudge moves a task.
const dragStep = 15 * time.Minute

const startFmt = "2006-01-02 15:04"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(1)

	stationStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62"))

	conflictStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noticeInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	noticeErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	noticeOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
)

// mode is the board's input mode.
type mode int

const (
	modeBrowse mode = iota
	modeDrag
	modeForm
)

// Message types
type TasksMsg []schedule.TaskView
type NoticeMsg coordinator.Notice
type submitDoneMsg struct{ err error }
type clockMsg time.Time

// formField indexes the edit form inputs.
type formField int

const (
	fieldWorkstation formField = iota
	fieldStart
	fieldDuration
	fieldReason
	fieldCount
)

// Model is the planning board model.
type Model struct {
	cfg     timeline.Config
	handler timeline.Handler
	submit  func(ctx context.Context, taskID string, p schedule.Proposal, origin string) error
	tasks   func() []schedule.TaskView

	views       []schedule.TaskView
	selectedIdx int
	mode        mode

	// Drag state
	dragStart time.Time

	// Edit form state
	form      [fieldCount]textinput.Model
	formFocus formField
	editTask  schedule.Task

	spinner    spinner.Model
	submitting bool
	notice     string
	noticeKind coordinator.Level
	now        time.Time
	width      int
	quitting   bool
}

// New creates a board model. tasks supplies the store's display list; submit
// runs a form- or drag-originated proposal through the coordinator.
func New(cfg timeline.Config, handler timeline.Handler,
	submit func(ctx context.Context, taskID string, p schedule.Proposal, origin string) error,
	tasks func() []schedule.TaskView) Model {

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	var form [fieldCount]textinput.Model
	for i := range form {
		ti := textinput.New()
		ti.CharLimit = 120
		ti.Width = 32
		form[i] = ti
	}
	form[fieldWorkstation].Placeholder = "workstation id"
	form[fieldStart].Placeholder = startFmt
	form[fieldDuration].Placeholder = "minutes"
	form[fieldReason].Placeholder = "reason (optional)"

	m := Model{
		cfg:     cfg,
		handler: handler,
		submit:  submit,
		tasks:   tasks,
		form:    form,
		spinner: s,
		now:     time.Now(),
	}
	if tasks != nil {
		m.views = tasks()
	}
	return m
}

// Init starts the spinner and clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, clockTick())
}

func clockTick() tea.Cmd {
	return tea.Tick(30*time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// SetTasks satisfies timeline.View for direct (non-program) use.
func (m *Model) SetTasks(tasks []schedule.TaskView) {
	m.views = tasks
	if m.selectedIdx >= len(tasks) {
		m.selectedIdx = max(0, len(tasks)-1)
	}
}

// Verify the board satisfies the collaborator contract.
var _ timeline.View = (*Model)(nil)

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case TasksMsg:
		m.SetTasks([]schedule.TaskView(msg))
		return m, nil

	case NoticeMsg:
		m.notice = msg.Message
		m.noticeKind = msg.Level
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		m.views = m.tasks()
		return m, nil

	case clockMsg:
		m.now = time.Time(msg)
		return m, clockTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeDrag:
			return m.updateDrag(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
		}
	case "down", "j":
		if m.selectedIdx < len(m.views)-1 {
			m.selectedIdx++
		}

	case "r":
		if m.cfg.OnRefresh != nil {
			m.cfg.OnRefresh(context.Background())
		}

	case "m":
		// Begin a keyboard drag of the selected task.
		if v, ok := m.selected(); ok && m.cfg.Editable && !m.editLocked(v) {
			m.mode = modeDrag
			m.dragStart = v.StartTime
		}

	case "e":
		if v, ok := m.selected(); ok && m.cfg.Editable && !m.editLocked(v) {
			task, err := m.handler.HandleTaskClick(timeline.TaskClicked{TaskID: v.ID})
			if err != nil {
				m.notice = err.Error()
				m.noticeKind = coordinator.LevelError
				return m, nil
			}
			m.openForm(task)
		}
	}
	return m, nil
}

func (m Model) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v, ok := m.selected()
	if !ok {
		m.mode = modeBrowse
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.mode = modeBrowse

	case "left", "h":
		m.dragStart = m.dragStart.Add(-dragStep)
	case "right", "l":
		m.dragStart = m.dragStart.Add(dragStep)

	case "enter":
		m.mode = modeBrowse
		if m.dragStart.Equal(v.StartTime) {
			return m, nil
		}
		m.submitting = true
		taskID, start := v.ID, m.dragStart
		return m, func() tea.Msg {
			err := m.handler.HandleDragEnd(context.Background(), timeline.TaskDragged{
				TaskID:        taskID,
				ProposedStart: start,
			})
			return submitDoneMsg{err: err}
		}
	}
	return m, nil
}

func (m *Model) openForm(task schedule.Task) {
	m.editTask = task
	m.form[fieldWorkstation].SetValue(task.WorkstationID)
	m.form[fieldStart].SetValue(task.StartTime.Format(startFmt))
	m.form[fieldDuration].SetValue(strconv.Itoa(task.DurationMinutes))
	m.form[fieldReason].SetValue("")
	m.formFocus = fieldWorkstation
	for i := range m.form {
		m.form[i].Blur()
	}
	m.form[fieldWorkstation].Focus()
	m.mode = modeForm
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil

	case "tab", "shift+tab", "down", "up":
		dir := 1
		if msg.String() == "shift+tab" || msg.String() == "up" {
			dir = -1
		}
		m.form[m.formFocus].Blur()
		m.formFocus = formField((int(m.formFocus) + dir + int(fieldCount)) % int(fieldCount))
		m.form[m.formFocus].Focus()
		return m, nil

	case "enter":
		p, err := m.formProposal()
		if err != nil {
			m.notice = err.Error()
			m.noticeKind = coordinator.LevelError
			return m, nil
		}
		m.mode = modeBrowse
		m.submitting = true
		taskID := m.editTask.ID
		return m, func() tea.Msg {
			return submitDoneMsg{err: m.submit(context.Background(), taskID, p, "form")}
		}
	}

	var cmd tea.Cmd
	m.form[m.formFocus], cmd = m.form[m.formFocus].Update(msg)
	return m, cmd
}

// formProposal parses the form into a proposal. Parse failures surface
// inline; proposal-level validation happens in the coordinator.
func (m Model) formProposal() (schedule.Proposal, error) {
	start, err := time.ParseInLocation(startFmt, strings.TrimSpace(m.form[fieldStart].Value()), time.Local)
	if err != nil {
		return schedule.Proposal{}, fmt.Errorf("start time must look like %q", startFmt)
	}
	duration, err := strconv.Atoi(strings.TrimSpace(m.form[fieldDuration].Value()))
	if err != nil {
		return schedule.Proposal{}, fmt.Errorf("duration must be a whole number of minutes")
	}
	return schedule.Proposal{
		WorkstationID:   strings.TrimSpace(m.form[fieldWorkstation].Value()),
		StartTime:       start,
		DurationMinutes: duration,
		Reason:          strings.TrimSpace(m.form[fieldReason].Value()),
	}, nil
}

func (m Model) selected() (schedule.TaskView, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.views) {
		return schedule.TaskView{}, false
	}
	return m.views[m.selectedIdx], true
}

// editLocked reports whether edits on this task are disabled (a submit is
// already resolving for it).
func (m Model) editLocked(v schedule.TaskView) bool {
	return v.Pending
}

// View renders the board.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Floorboard"))
	if m.cfg.ShowCurrentTime {
		sb.WriteString(pendingStyle.Render("  " + m.now.Format("Mon 15:04")))
	}
	sb.WriteString("\n\n")

	if m.mode == modeForm {
		sb.WriteString(m.formView())
	} else {
		sb.WriteString(m.boardView())
	}

	sb.WriteString("\n")
	sb.WriteString(m.statusBar())
	sb.WriteString(m.helpLine())
	return sb.String()
}

func (m Model) boardView() string {
	if len(m.views) == 0 {
		return pendingStyle.Render("  no scheduled tasks") + "\n"
	}

	var sb strings.Builder
	station := ""
	for i, v := range m.views {
		if v.WorkstationID != station {
			station = v.WorkstationID
			name := v.WorkstationName
			if name == "" {
				name = v.WorkstationID
			}
			sb.WriteString(stationStyle.Render(name) + "\n")
		}
		sb.WriteString(m.taskLine(i, v))
	}
	return sb.String()
}

func (m Model) taskLine(i int, v schedule.TaskView) string {
	start := v.StartTime
	if m.mode == modeDrag && i == m.selectedIdx {
		start = m.dragStart
	}
	end := start.Add(time.Duration(v.DurationMinutes) * time.Minute)

	label := v.ItemName
	if label == "" {
		label = v.TaskType
	}
	if label == "" {
		label = v.ID
	}

	line := fmt.Sprintf("  %s – %s  %-24s %s",
		start.Format("Mon 15:04"), end.Format("15:04"), label, v.Status)
	if v.ManuallyAdjusted {
		line += " *"
	}
	if v.Pending {
		line += "  " + m.spinner.View() + "submitting"
	}

	switch {
	case i == m.selectedIdx && m.mode == modeDrag:
		return selectedStyle.Render(line+"  (moving)") + "\n"
	case i == m.selectedIdx:
		return selectedStyle.Render(line) + "\n"
	case v.Conflict:
		return conflictStyle.Render(line+"  conflict") + "\n"
	case v.Pending:
		return pendingStyle.Render(line) + "\n"
	default:
		return line + "\n"
	}
}

func (m Model) formView() string {
	labels := [fieldCount]string{"Workstation", "Start", "Duration", "Reason"}

	var sb strings.Builder
	sb.WriteString(stationStyle.Render("Reschedule "+m.editTask.ID) + "\n\n")
	for i := range m.form {
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", labels[i], m.form[i].View()))
	}
	return sb.String()
}

func (m Model) statusBar() string {
	parts := []string{fmt.Sprintf("%d tasks", len(m.views))}
	if n := m.conflictCount(); n > 0 {
		parts = append(parts, conflictStyle.Render(fmt.Sprintf("%d in conflict", n)))
	}
	if m.cfg.RefreshInterval > 0 {
		parts = append(parts, "refresh "+m.cfg.RefreshInterval.String())
	}
	if m.submitting {
		parts = append(parts, m.spinner.View()+"submitting")
	}
	if m.notice != "" {
		style := noticeInfoStyle
		switch m.noticeKind {
		case coordinator.LevelError:
			style = noticeErrStyle
		case coordinator.LevelSuccess:
			style = noticeOKStyle
		}
		parts = append(parts, style.Render(m.notice))
	}
	return statusBarStyle.Render(strings.Join(parts, "  ")) + "\n"
}

func (m Model) conflictCount() int {
	n := 0
	for _, v := range m.views {
		if v.Conflict {
			n++
		}
	}
	return n
}

func (m Model) helpLine() string {
	switch m.mode {
	case modeDrag:
		return helpStyle.Render("←/→ shift 15m · enter confirm · esc cancel")
	case modeForm:
		return helpStyle.Render("tab next field · enter submit · esc cancel")
	default:
		if !m.cfg.Editable {
			return helpStyle.Render("↑/↓ select · r refresh · q quit")
		}
		return helpStyle.Render("↑/↓ select · m move · e edit · r refresh · q quit")
	}
}
