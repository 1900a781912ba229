package controller

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "github.com/marsh-hen/refix/internal/model"
)

type formField int

const (
	fieldSearch formField = iota
	fieldReplace
	fieldFixed
	fieldPath
	fieldHidden
	fieldCount
)

var (
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	focusedLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	fieldErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// formModel is the Configure phase: text inputs for the search pattern,
// replacement template and path pattern, plus two boolean toggles.
type formModel struct {
	search  textinput.Model
	replace textinput.Model
	path    textinput.Model
	fixed   bool
	hidden  bool

	focus     formField
	errField  formField
	errReason string
}

func newFormModel(defaults Defaults) formModel {
	search := textinput.New()
	search.Placeholder = "text or regex to find"
	search.SetValue(defaults.Spec.Pattern)
	search.Focus()

	replace := textinput.New()
	replace.Placeholder = "replacement, $1 for capture groups"
	replace.SetValue(defaults.Replace.Template)

	path := textinput.New()
	path.Placeholder = "only paths matching this regex"
	path.SetValue(defaults.Spec.PathPattern)

	return formModel{
		search:   search,
		replace:  replace,
		path:     path,
		fixed:    defaults.Spec.FixedStrings,
		hidden:   defaults.Spec.IncludeHidden,
		errField: fieldCount,
	}
}

// spec assembles the search spec from the current field values.
func (f formModel) spec(root m.Path) m.SearchSpec {
	return m.SearchSpec{
		Pattern:       f.search.Value(),
		FixedStrings:  f.fixed,
		PathPattern:   f.path.Value(),
		IncludeHidden: f.hidden,
		Root:          root,
	}
}

func (f formModel) template() string {
	return f.replace.Value()
}

// setError pins a validation error under the field it belongs to.
func (f *formModel) setError(err *m.ConfigError) {
	f.errReason = err.Reason

	switch err.Field {
	case "search":
		f.errField = fieldSearch
		f.focus = fieldSearch
	case "path pattern":
		f.errField = fieldPath
		f.focus = fieldPath
	default:
		f.errField = fieldCount
	}

	f.applyFocus()
}

func (f *formModel) clearError() {
	f.errField = fieldCount
	f.errReason = ""
}

func (f *formModel) applyFocus() {
	f.search.Blur()
	f.replace.Blur()
	f.path.Blur()

	switch f.focus {
	case fieldSearch:
		f.search.Focus()
	case fieldReplace:
		f.replace.Focus()
	case fieldPath:
		f.path.Focus()
	}
}

func (f formModel) Update(msg tea.Msg) (formModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateInputs(msg)
	}

	switch key.Type {
	case tea.KeyTab, tea.KeyDown:
		f.focus = (f.focus + 1) % fieldCount
		f.applyFocus()

		return f, textinput.Blink
	case tea.KeyShiftTab, tea.KeyUp:
		f.focus = (f.focus + fieldCount - 1) % fieldCount
		f.applyFocus()

		return f, textinput.Blink
	}

	if key.String() == " " {
		switch f.focus {
		case fieldFixed:
			f.fixed = !f.fixed

			return f, nil
		case fieldHidden:
			f.hidden = !f.hidden

			return f, nil
		}
	}

	f.clearError()

	return f.updateInputs(msg)
}

func (f formModel) updateInputs(msg tea.Msg) (formModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	f.search, cmd = f.search.Update(msg)
	cmds = append(cmds, cmd)
	f.replace, cmd = f.replace.Update(msg)
	cmds = append(cmds, cmd)
	f.path, cmd = f.path.Update(msg)
	cmds = append(cmds, cmd)

	return f, tea.Batch(cmds...)
}

func (f formModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Find and replace") + "\n\n")

	f.renderInput(&b, fieldSearch, "Search", f.search)
	f.renderInput(&b, fieldReplace, "Replace", f.replace)
	f.renderToggle(&b, fieldFixed, "Fixed strings", f.fixed)
	f.renderInput(&b, fieldPath, "Path pattern", f.path)
	f.renderToggle(&b, fieldHidden, "Include hidden", f.hidden)

	if f.errField == fieldCount && f.errReason != "" {
		b.WriteString("\n" + fieldErrorStyle.Render(f.errReason) + "\n")
	}

	b.WriteString("\n" + subtleStyle.Render("enter search · tab next field · ctrl+c quit"))

	return b.String()
}

func (f formModel) label(field formField, text string) string {
	if f.focus == field {
		return focusedLabelStyle.Render("> " + text)
	}

	return labelStyle.Render("  " + text)
}

func (f formModel) renderInput(b *strings.Builder, field formField, text string, input textinput.Model) {
	b.WriteString(f.label(field, text) + "\n  " + input.View() + "\n")

	if f.errField == field {
		b.WriteString("  " + fieldErrorStyle.Render(f.errReason) + "\n")
	}
}

func (f formModel) renderToggle(b *strings.Builder, field formField, text string, on bool) {
	box := "[ ]"
	if on {
		box = "[x]"
	}

	b.WriteString(f.label(field, box+" "+text) + "\n")
}

func textinputBlink() tea.Cmd {
	return textinput.Blink
}
