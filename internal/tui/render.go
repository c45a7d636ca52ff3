package tui

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/example/crumb-calendar/internal/grid"
)

const (
	gutterWidth    = 6
	headerRows     = 3 // title, day headers, all-day row
	footerRows     = 2 // status, help
	minColumnWidth = 8
	ellipsis       = "…"
)

const gridHelp = "←/→ day · ↑/↓ slot · [/] page · v view · t today · n new · enter open · d delete · ? help · q quit"

const helpText = `Navigation
  ←/h →/l     previous / next day
  ↑/k ↓/j     previous / next slot
  [/H ]/L     previous / next page
  v           cycle day, 3-day and week view
  t           jump to now

Events
  click       open an event (edits apply to the whole series)
  double-click an empty slot to create an event there
  enter       open the event under the cursor or create one
  n           new event at the current time
  d           delete the series under the cursor

Itinerary visits are shown in grey and cannot be edited here.

Press any key to return.`

type hit struct {
	day   int
	slot  int
	entry *grid.Entry
}

// visibleSlots is the number of slot rows that fit on screen.
func (m *Model) visibleSlots() int {
	total := m.projector.Slots().SlotCount()
	if m.height <= 0 {
		return total
	}
	return max(1, min(total, m.height-headerRows-footerRows))
}

func (m *Model) columnWidth() int {
	days := m.view.Mode.Days()
	if m.width <= 0 {
		return 20
	}
	return max(minColumnWidth, (m.width-gutterWidth)/days)
}

// hitTest maps a terminal cell to a grid position and the block drawn there.
func (m *Model) hitTest(x, y int) (hit, bool) {
	if x < gutterWidth || y < headerRows-1 {
		return hit{}, false
	}
	colW := m.columnWidth()
	day := (x - gutterWidth) / colW
	if day >= len(m.grid.Days) {
		return hit{}, false
	}

	if y == headerRows-1 {
		all := m.grid.Days[day].AllDay
		if len(all) == 0 {
			return hit{}, false
		}
		entry := all[0]
		return hit{day: day, slot: m.cursorSlot, entry: &entry}, true
	}

	row := y - headerRows
	if row >= m.visibleSlots() {
		return hit{}, false
	}
	slot := m.topSlot + row
	if slot >= m.projector.Slots().SlotCount() {
		return hit{}, false
	}

	columns := max(1, m.grid.Days[day].Columns)
	subWidth := max(1, colW/columns)
	column := min(columns-1, ((x-gutterWidth)%colW)/subWidth)
	h := hit{day: day, slot: slot}
	if entry, ok := m.grid.EntryAt(day, slot, column); ok {
		h.entry = &entry
	}
	return h, true
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.mode {
	case modeEditor:
		return m.editor.view(m.styles, m.width) + "\n" + m.statusLine()
	case modeConfirmConflicts:
		return m.editor.view(m.styles, m.width) + "\n" + m.conflictPrompt()
	case modeConfirmDelete:
		return m.renderGrid() + "\n" + m.styles.Warning.Render("Delete this event and every occurrence? (y/n)")
	case modeHelp:
		return m.styles.Border.Render(helpText)
	}
	return m.renderGrid() + "\n" + m.statusLine() + "\n" + m.styles.Help.Render(m.fit(gridHelp, m.width))
}

func (m *Model) renderGrid() string {
	colW := m.columnWidth()
	today := civil.DateOf(m.now())
	from, to := m.view.Range()

	var b strings.Builder
	title := fmt.Sprintf("%s  %s – %s", m.view.Mode, from, to.AddDays(-1))
	b.WriteString(m.styles.Header.Render(title))
	b.WriteByte('\n')

	b.WriteString(strings.Repeat(" ", gutterWidth))
	for i, day := range m.grid.Days {
		label := m.pad(dayLabel(day.Date), colW)
		style := m.styles.Normal
		switch {
		case day.Date == today:
			style = m.styles.Today
		case isWeekend(day.Date):
			style = m.styles.Weekend
		}
		if i == m.cursorDay {
			style = style.Underline(true)
		}
		b.WriteString(style.Render(label))
	}
	b.WriteByte('\n')

	b.WriteString(m.styles.Muted.Render(m.pad("all", gutterWidth)))
	for _, day := range m.grid.Days {
		b.WriteString(m.allDayCell(day, colW))
	}

	slots := m.projector.Slots()
	last := min(slots.SlotCount(), m.topSlot+m.visibleSlots())
	for slot := m.topSlot; slot < last; slot++ {
		b.WriteByte('\n')
		label := ""
		if start := slots.SlotStart(slot); start.Minute() == 0 || slot == m.topSlot {
			label = start.String()
		}
		b.WriteString(m.styles.Muted.Render(m.pad(label, gutterWidth)))
		for d := range m.grid.Days {
			b.WriteString(m.slotCell(d, slot, colW))
		}
	}
	return b.String()
}

func (m *Model) allDayCell(day grid.Day, width int) string {
	var parts []string
	for _, entry := range day.AllDay {
		parts = append(parts, entry.Title)
	}
	if n := len(day.Outside); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d", n))
	}
	if len(parts) == 0 {
		return m.pad("", width)
	}
	text := m.pad(strings.Join(parts, ", "), width)
	if len(day.AllDay) > 0 {
		return m.entryStyle(day.AllDay[0]).Render(text)
	}
	return m.styles.Muted.Render(text)
}

func (m *Model) slotCell(day, slot, width int) string {
	columns := max(1, m.grid.Days[day].Columns)
	subWidth := max(1, width/columns)
	cursor := m.mode == modeGrid && day == m.cursorDay && slot == m.cursorSlot

	var b strings.Builder
	for c := range columns {
		w := subWidth
		if c == columns-1 {
			w = width - subWidth*(columns-1)
		}
		entry, ok := m.grid.EntryAt(day, slot, c)
		if !ok {
			blank := m.pad("", w)
			if cursor {
				b.WriteString(m.styles.Cursor.Render(blank))
			} else {
				b.WriteString(blank)
			}
			continue
		}

		text := ""
		if entry.Slot == slot {
			text = entryText(entry)
		}
		style := m.entryStyle(entry)
		if cursor {
			style = style.Underline(true)
		}
		b.WriteString(style.Render(m.pad(text, w)))
	}
	return b.String()
}

func (m *Model) entryStyle(entry grid.Entry) lipgloss.Style {
	if entry.Kind == grid.EntryVisit {
		if entry.Visit.Done {
			return m.styles.VisitDone
		}
		return m.styles.Visit
	}
	return EventStyle(entry.Color)
}

func entryText(entry grid.Entry) string {
	if entry.Start != nil {
		return entry.Start.String() + " " + entry.Title
	}
	return entry.Title
}

func (m *Model) statusLine() string {
	if m.message == "" {
		return m.styles.Muted.Render(m.fit(fmt.Sprintf("%d events loaded", m.eventCount()), m.width))
	}
	if m.warning {
		return m.styles.Warning.Render(m.fit(m.message, m.width))
	}
	return m.styles.Message.Render(m.fit(m.message, m.width))
}

func (m *Model) conflictPrompt() string {
	var b strings.Builder
	b.WriteString("This event overlaps with:\n")
	for _, c := range m.conflicts {
		b.WriteString("  • " + c.String() + "\n")
	}
	b.WriteString("Save anyway? (y/n)")
	text := b.String()
	if m.width > 0 {
		text = wordwrap.String(text, m.width-2)
	}
	return m.styles.Warning.Render(text)
}

func (m *Model) eventCount() int {
	events, err := m.svc.List(m.ctx)
	if err != nil {
		return 0
	}
	return len(events)
}

// pad truncates s to width cells and right-pads it with spaces.
func (m *Model) pad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return padding.String(truncate.StringWithTail(s, uint(width), ellipsis), uint(width))
}

func (m *Model) fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), ellipsis)
}

func dayLabel(d civil.Date) string {
	return fmt.Sprintf("%s %02d/%02d", d.In(time.UTC).Weekday().String()[:3], int(d.Month), d.Day)
}

func isWeekend(d civil.Date) bool {
	switch d.In(time.UTC).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
