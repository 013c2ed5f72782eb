package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// field is one labelled text input
type field struct {
	label string
	input textinput.Model
}

// form is a column of text inputs with one focused at a time. A blurred
// form leaves keys to the screen and the app navigation.
type form struct {
	fields  []field
	focus   int
	editing bool
}

func newField(label, placeholder string, width int) field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 128
	ti.Width = width
	return field{label: label, input: ti}
}

func newForm(fields ...field) form {
	f := form{fields: fields}
	f.start()
	return f
}

// start focuses the current field
func (f *form) start() tea.Cmd {
	f.editing = true
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	return f.fields[f.focus].input.Focus()
}

// stop blurs every field
func (f *form) stop() {
	f.editing = false
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
}

func (f *form) move(delta int) tea.Cmd {
	n := len(f.fields)
	f.focus = ((f.focus+delta)%n + n) % n
	return f.start()
}

// update routes a key to the focused field. Tab and arrows move between
// fields and esc stops editing.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return f.move(1)
		case "shift+tab", "up":
			return f.move(-1)
		case "esc":
			f.stop()
			return nil
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

func (f *form) set(i int, v string) {
	f.fields[i].input.SetValue(v)
}

func (f *form) clear() {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	f.focus = 0
}

func (f form) view() string {
	rows := make([]string, 0, len(f.fields))
	for i, fl := range f.fields {
		label := metricLabelStyle.Render(fl.label)
		if f.editing && i == f.focus {
			label = metricLabelStyle.Foreground(primaryColor).Render(fl.label)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left, label, fl.input.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
