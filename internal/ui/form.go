package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

const (
	msgNameRequired = "Please input a duty name!"
	msgNameTooLong  = "Duty name cannot exceed 255 characters"
)

// validateName checks a name typed by the user. It returns the trimmed name
// or a message to show next to the input.
func validateName(value string) (string, string) {
	name := strings.TrimSpace(value)
	if name == "" {
		return "", msgNameRequired
	}
	if utf8.RuneCountInString(name) > model.NameMaxLength {
		return "", msgNameTooLong
	}
	return name, ""
}

func newNameInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Width = 50
	ti.CharLimit = 0
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// AddFormModel collects the name of a new duty.
type AddFormModel struct {
	input textinput.Model
	err   string
	onAdd func(name string) tea.Cmd
}

func NewAddFormModel(onAdd func(name string) tea.Cmd) AddFormModel {
	return AddFormModel{
		input: newNameInput("Enter a new duty"),
		onAdd: onAdd,
	}
}

func (m AddFormModel) Init() tea.Cmd {
	return nil
}

func (m AddFormModel) Update(msg tea.Msg) (AddFormModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		name, problem := validateName(m.input.Value())
		if problem != "" {
			m.err = problem
			return m, nil
		}

		m.err = ""
		m.input.Reset()
		return m, m.onAdd(name)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *AddFormModel) Focus() tea.Cmd {
	return m.input.Focus()
}

func (m *AddFormModel) Blur() {
	m.input.Blur()
}

func (m AddFormModel) Focused() bool {
	return m.input.Focused()
}

func (m AddFormModel) Value() string {
	return m.input.Value()
}

func (m AddFormModel) Err() string {
	return m.err
}

func (m AddFormModel) View(styles Styles) string {
	var b strings.Builder
	b.WriteString(m.input.View())
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.Error.Render(m.err))
	}
	return b.String()
}
