// Package ui is the interactive terminal front end of the duty tracker.
package ui

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

// API is the subset of the HTTP client the UI needs.
type API interface {
	List(ctx context.Context) ([]model.Duty, error)
	Create(ctx context.Context, name string) (*model.Duty, error)
	Update(ctx context.Context, id int64, name string) (*model.Duty, error)
	Delete(ctx context.Context, id int64) error
}

const (
	NoticeFetchFailed  = "Failed to fetch duties. Please try again."
	NoticeAddFailed    = "Failed to add duty. Please try again."
	NoticeUpdateFailed = "Failed to update duty. Please try again."
	NoticeDeleteFailed = "Failed to delete duty. Please try again."

	DefaultNoticeTTL = 3 * time.Second
)

type (
	dutiesLoadedMsg struct{ duties []model.Duty }
	dutyCreatedMsg  struct{ duty model.Duty }
	dutyUpdatedMsg  struct{ duty model.Duty }
	dutyDeletedMsg  struct{ id int64 }
	opFailedMsg     struct {
		notice string
		err    error
	}
	clearNoticeMsg struct{ seq int }
)

type focusArea int

const (
	focusForm focusArea = iota
	focusList
)

// PageModel owns the list of duties for the lifetime of the program.
type PageModel struct {
	api       API
	timeout   time.Duration
	noticeTTL time.Duration

	duties  []model.Duty
	loading bool
	cursor  int
	focus   focusArea

	form    AddFormModel
	spinner spinner.Model

	editing  bool
	editID   int64
	editErr  string
	editForm textinput.Model

	notice    string
	noticeSeq int

	styles Styles
}

type PageOption func(*PageModel)

// WithTimeout bounds every API call made by the page.
func WithTimeout(d time.Duration) PageOption {
	return func(m *PageModel) { m.timeout = d }
}

// WithNoticeTTL sets how long failure notifications stay on screen.
func WithNoticeTTL(d time.Duration) PageOption {
	return func(m *PageModel) { m.noticeTTL = d }
}

func NewPageModel(api API, opts ...PageOption) PageModel {
	m := PageModel{
		api:       api,
		timeout:   10 * time.Second,
		noticeTTL: DefaultNoticeTTL,
		duties:    []model.Duty{},
		loading:   true,
		focus:     focusForm,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		editForm:  newNameInput("Enter new name"),
		styles:    DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.form = NewAddFormModel(m.createDuty)
	m.form.Focus()
	return m
}

func (m PageModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchDuties)
}

func (m PageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case dutiesLoadedMsg:
		m.loading = false
		m.duties = msg.duties
		m.clampCursor()
		return m, nil

	case dutyCreatedMsg:
		m.duties = append(m.duties, msg.duty)
		return m, nil

	case dutyUpdatedMsg:
		for i := range m.duties {
			if m.duties[i].ID == msg.duty.ID {
				m.duties[i] = msg.duty
			}
		}
		return m, nil

	case dutyDeletedMsg:
		m.duties = slices.DeleteFunc(m.duties, func(d model.Duty) bool { return d.ID == msg.id })
		m.clampCursor()
		return m, nil

	case opFailedMsg:
		m.loading = false
		return m, m.showNotice(msg.notice)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m PageModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.loading {
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.editing {
		return m.handleEditKey(msg)
	}

	if m.focus == focusForm {
		switch msg.Type {
		case tea.KeyTab, tea.KeyEsc:
			m.focus = focusList
			m.form.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	visible := sortDuties(m.duties)

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "a":
		m.focus = focusForm
		return m, m.form.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "u":
		if len(visible) == 0 {
			return m, nil
		}
		selected := visible[m.cursor]
		m.editing = true
		m.editID = selected.ID
		m.editErr = ""
		m.editForm.SetValue(selected.Name)
		m.editForm.CursorEnd()
		return m, m.editForm.Focus()
	case "d":
		if len(visible) == 0 {
			return m, nil
		}
		return m, m.deleteDuty(visible[m.cursor].ID)
	}

	return m, nil
}

func (m PageModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeEditor()
		return m, nil
	case tea.KeyEnter:
		name, problem := validateName(m.editForm.Value())
		if problem != "" {
			m.editErr = problem
			return m, nil
		}
		id := m.editID
		m.closeEditor()
		return m, m.updateDuty(id, name)
	}

	var cmd tea.Cmd
	m.editForm, cmd = m.editForm.Update(msg)
	return m, cmd
}

func (m *PageModel) closeEditor() {
	m.editing = false
	m.editID = 0
	m.editErr = ""
	m.editForm.Blur()
	m.editForm.Reset()
}

func (m *PageModel) clampCursor() {
	if m.cursor >= len(m.duties) {
		m.cursor = len(m.duties) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *PageModel) showNotice(notice string) tea.Cmd {
	m.noticeSeq++
	m.notice = notice
	seq := m.noticeSeq
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m PageModel) apiContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m PageModel) fetchDuties() tea.Msg {
	ctx, cancel := m.apiContext()
	defer cancel()

	duties, err := m.api.List(ctx)
	if err != nil {
		return opFailedMsg{notice: NoticeFetchFailed, err: err}
	}
	return dutiesLoadedMsg{duties: duties}
}

func (m PageModel) createDuty(name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.apiContext()
		defer cancel()

		duty, err := m.api.Create(ctx, name)
		if err != nil {
			return opFailedMsg{notice: NoticeAddFailed, err: err}
		}
		return dutyCreatedMsg{duty: *duty}
	}
}

func (m PageModel) updateDuty(id int64, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.apiContext()
		defer cancel()

		duty, err := m.api.Update(ctx, id, name)
		if err != nil {
			return opFailedMsg{notice: NoticeUpdateFailed, err: err}
		}
		return dutyUpdatedMsg{duty: *duty}
	}
}

func (m PageModel) deleteDuty(id int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := m.apiContext()
		defer cancel()

		if err := m.api.Delete(ctx, id); err != nil {
			return opFailedMsg{notice: NoticeDeleteFailed, err: err}
		}
		return dutyDeletedMsg{id: id}
	}
}

func (m PageModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("My Duties"))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading duties...")
		if m.notice != "" {
			b.WriteString("\n\n")
			b.WriteString(m.styles.Notice.Render(m.notice))
		}
		return b.String()
	}

	b.WriteString(m.form.View(m.styles))
	b.WriteString("\n\n")
	b.WriteString(renderList(sortDuties(m.duties), m.cursor, m.focus == focusList && !m.editing, m.styles))

	if m.editing {
		dialog := lipgloss.JoinVertical(lipgloss.Left,
			"Update Duty",
			m.editForm.View(),
		)
		if m.editErr != "" {
			dialog = lipgloss.JoinVertical(lipgloss.Left, dialog, m.styles.Error.Render(m.editErr))
		}
		dialog = lipgloss.JoinVertical(lipgloss.Left, dialog, m.styles.Meta.Render("enter confirm • esc cancel"))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Dialog.Render(dialog))
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Notice.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help()))
	return b.String()
}

func (m PageModel) help() string {
	if m.focus == focusForm {
		return "enter add • tab list • ctrl+c quit"
	}
	return "↑/↓ move • u update • d delete • tab add • q quit"
}
