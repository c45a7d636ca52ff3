package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/example/crumb-calendar/internal/application"
	"github.com/example/crumb-calendar/internal/calendar"
)

type fieldID int

const (
	fieldTitle fieldID = iota
	fieldDate
	fieldStart
	fieldEnd
	fieldRecurrence
	fieldColor
	fieldLocation
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldTitle:      "Title",
	fieldDate:       "Date",
	fieldStart:      "Start",
	fieldEnd:        "End",
	fieldRecurrence: "Repeat",
	fieldColor:      "Color",
	fieldLocation:   "Location",
	fieldNotes:      "Notes",
}

// choice is a field cycled with left/right instead of typed.
type choice struct {
	options []string
	index   int
}

func newChoice(options []string, value string) choice {
	idx := slices.Index(options, value)
	if idx < 0 {
		idx = 0
	}
	return choice{options: options, index: idx}
}

func (c *choice) move(delta int) {
	n := len(c.options)
	c.index = ((c.index+delta)%n + n) % n
}

func (c choice) value() string {
	return c.options[c.index]
}

// editor is the event form. It holds a draft and edits a copy of its input.
type editor struct {
	draft      application.Draft
	inputs     map[fieldID]*textinput.Model
	recurrence choice
	color      choice
	focus      fieldID
	err        *application.ValidationError
}

func newEditor(draft application.Draft) *editor {
	in := draft.Input
	e := &editor{
		draft:  draft,
		inputs: make(map[fieldID]*textinput.Model),
	}
	e.addInput(fieldTitle, in.Title, "Customer visit", 100, 40)
	e.addInput(fieldDate, in.Date, "YYYY-MM-DD", 10, 12)
	e.addInput(fieldStart, in.StartTime, "HH:MM", 5, 6)
	e.addInput(fieldEnd, in.EndTime, "HH:MM", 5, 6)
	e.addInput(fieldLocation, in.Location, "optional", 100, 40)
	e.addInput(fieldNotes, in.Notes, "optional", 500, 40)

	recurrences := make([]string, 0, len(calendar.Recurrences))
	for _, r := range calendar.Recurrences {
		recurrences = append(recurrences, string(r))
	}
	e.recurrence = newChoice(recurrences, string(calendar.Recurrence(in.Recurrence).OrNone()))

	colors := make([]string, 0, len(calendar.Palette))
	for _, c := range calendar.Palette {
		colors = append(colors, string(c))
	}
	e.color = newChoice(colors, string(calendar.Color(in.Color).OrDefault()))

	e.setFocus(fieldTitle)
	return e
}

func (e *editor) addInput(id fieldID, value, placeholder string, limit, width int) {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = width
	ti.SetValue(value)
	e.inputs[id] = &ti
}

func (e *editor) setFocus(id fieldID) tea.Cmd {
	e.focus = id
	var cmd tea.Cmd
	for fid, ti := range e.inputs {
		if fid == id {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
	}
	return cmd
}

// input collects the form into service input.
func (e *editor) input() application.EventInput {
	value := func(id fieldID) string { return e.inputs[id].Value() }
	return application.EventInput{
		Title:      value(fieldTitle),
		Date:       value(fieldDate),
		StartTime:  value(fieldStart),
		EndTime:    value(fieldEnd),
		Recurrence: e.recurrence.value(),
		Location:   value(fieldLocation),
		Notes:      value(fieldNotes),
		Color:      e.color.value(),
	}
}

// currentDraft returns the draft with the form values applied.
func (e *editor) currentDraft() application.Draft {
	d := e.draft
	d.Input = e.input()
	return d
}

// update handles keys that stay inside the form. Submit, cancel and delete
// are handled by the model.
func (e *editor) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return e.setFocus((e.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return e.setFocus((e.focus + fieldCount - 1) % fieldCount)
	}

	switch e.focus {
	case fieldRecurrence, fieldColor:
		c := &e.recurrence
		if e.focus == fieldColor {
			c = &e.color
		}
		switch msg.String() {
		case "left", "h":
			c.move(-1)
		case "right", "l", " ":
			c.move(1)
		}
		return nil
	}

	ti := e.inputs[e.focus]
	updated, cmd := ti.Update(msg)
	*ti = updated
	return cmd
}

func (e *editor) view(styles Styles, width int) string {
	title := "New event"
	if !e.draft.IsNew() {
		title = "Edit event"
		if e.draft.OccurrenceDate.IsValid() && e.draft.OccurrenceDate.String() != e.draft.Input.Date {
			title += fmt.Sprintf(" (series, opened from %s)", e.draft.OccurrenceDate)
		}
	}

	lines := []string{styles.Header.Render(title), ""}
	for id := fieldID(0); id < fieldCount; id++ {
		label := styles.Label.Render(fieldLabels[id])
		if id == e.focus {
			label = styles.Focused.Render("> " + fieldLabels[id])
		}

		var value string
		switch id {
		case fieldRecurrence:
			value = "‹ " + e.recurrence.value() + " ›"
		case fieldColor:
			value = "‹ " + EventStyle(calendar.Color(e.color.value())).Render("  ") + " " + e.color.value() + " ›"
		default:
			value = e.inputs[id].View()
		}

		line := label + value
		if e.err != nil {
			if msg, ok := e.err.FieldErrors[fieldKey(id)]; ok {
				line += "  " + styles.Error.Render(msg)
			}
		}
		lines = append(lines, line)
	}

	help := "tab next · enter save · esc cancel"
	if !e.draft.IsNew() {
		help += " · ctrl+d delete series"
	}
	lines = append(lines, "", styles.Help.Render(help))

	box := styles.Border.Render(strings.Join(lines, "\n"))
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
	}
	return box
}

// fieldKey maps a form field to the ValidationError field name.
func fieldKey(id fieldID) string {
	switch id {
	case fieldTitle:
		return "title"
	case fieldDate:
		return "date"
	case fieldStart:
		return "start_time"
	case fieldEnd:
		return "end_time"
	case fieldRecurrence:
		return "recurrence"
	case fieldColor:
		return "color"
	default:
		return ""
	}
}
