package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formField struct {
	Label  string
	Secret bool
}

// form is a vertical stack of labelled text inputs with one focused at a
// time, used by the login and register screens.
type form struct {
	fields []formField
	inputs []textinput.Model
	cursor int
}

func newForm(fields ...formField) form {
	f := form{fields: fields}
	for i, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.Label
		ti.CharLimit = 256
		if field.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		if i == 0 {
			ti.Focus()
		}
		f.inputs = append(f.inputs, ti)
	}
	return f
}

func (f *form) next() {
	f.inputs[f.cursor].Blur()
	f.cursor = (f.cursor + 1) % len(f.inputs)
	f.inputs[f.cursor].Focus()
}

func (f *form) prev() {
	f.inputs[f.cursor].Blur()
	f.cursor--
	if f.cursor < 0 {
		f.cursor = len(f.inputs) - 1
	}
	f.inputs[f.cursor].Focus()
}

func (f *form) atLast() bool {
	return f.cursor == len(f.inputs)-1
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.cursor], cmd = f.inputs[f.cursor].Update(msg)
	return cmd
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

// rawValue keeps leading/trailing spaces, for passwords.
func (f *form) rawValue(i int) string {
	return f.inputs[i].Value()
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
		f.inputs[i].Blur()
	}
	f.cursor = 0
	f.inputs[0].Focus()
}

func (f form) view(theme Theme) string {
	var b strings.Builder
	for i, field := range f.fields {
		label := field.Label
		if i == f.cursor {
			label = theme.TitleStyle.Render(label)
		} else {
			label = theme.MutedStyle.Render(label)
		}
		b.WriteString("  " + label + "\n")
		b.WriteString("  " + f.inputs[i].View() + "\n\n")
	}
	return b.String()
}
