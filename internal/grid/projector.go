package grid

import (
	"cmp"
	"fmt"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/recurrence"
)

// maxColumns bounds side-by-side rendering of overlapping blocks; further
// overlaps share the first column.
const maxColumns = 4

// EntryKind tells events and imported visits apart.
type EntryKind int

const (
	EntryEvent EntryKind = iota
	EntryVisit
)

// Entry is one block rendered in the grid.
type Entry struct {
	Kind       EntryKind
	Occurrence calendar.Occurrence
	Visit      calendar.Visit
	Title      string
	Start      *calendar.Clock
	End        *calendar.Clock
	Color      calendar.Color
	Editable   bool

	// Slot is the first slot the block occupies and Span the number of
	// slots it covers. Both are zero for all-day and out-of-range entries.
	Slot   int
	Span   int
	Column int

	order int
}

// Covers reports whether the block occupies slot.
func (e Entry) Covers(slot int) bool {
	return e.Span > 0 && slot >= e.Slot && slot < e.Slot+e.Span
}

// Cell is one slot of one day.
type Cell struct {
	// Entries holds the blocks that start in this slot.
	Entries []Entry
	// Covered is set when a block that started earlier extends over this slot.
	Covered bool
}

// Empty reports whether nothing starts in or extends over the cell.
func (c Cell) Empty() bool {
	return len(c.Entries) == 0 && !c.Covered
}

// Day is one column of the grid.
type Day struct {
	Date    civil.Date
	Cells   []Cell
	AllDay  []Entry
	Outside []Entry
	Columns int
}

// Grid is the projection of a view.
type Grid struct {
	View  View
	Slots SlotConfig
	Days  []Day
}

// Projector builds grids from base events and itinerary visits.
type Projector struct {
	engine *recurrence.Engine
	slots  SlotConfig
}

// NewProjector validates cfg and returns a Projector. A nil engine gets a
// default one.
func NewProjector(engine *recurrence.Engine, cfg SlotConfig) (*Projector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	return &Projector{engine: engine, slots: cfg}, nil
}

// Slots returns the slot configuration used by the projector.
func (p *Projector) Slots() SlotConfig {
	return p.slots
}

// Build projects the window of windowSize days starting at anchor.
func (p *Projector) Build(anchor civil.Date, windowSize int, events []calendar.Event, visits map[civil.Date][]calendar.Visit) (Grid, error) {
	mode := Mode(windowSize)
	if !mode.Valid() {
		return Grid{}, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowSize)
	}
	if !anchor.IsValid() {
		return Grid{}, fmt.Errorf("grid: invalid anchor date %v", anchor)
	}
	return p.BuildView(View{Anchor: anchor, Mode: mode}, events, visits), nil
}

// BuildView projects v. The view mode is assumed valid.
func (p *Projector) BuildView(v View, events []calendar.Event, visits map[civil.Date][]calendar.Visit) Grid {
	g := Grid{View: v, Slots: p.slots}
	for _, date := range v.Dates() {
		g.Days = append(g.Days, p.buildDay(date, events, visits[date]))
	}
	return g
}

func (p *Projector) buildDay(date civil.Date, events []calendar.Event, visits []calendar.Visit) Day {
	day := Day{Date: date, Cells: make([]Cell, p.slots.SlotCount())}

	var timed []Entry
	order := 0
	for _, ev := range events {
		if !p.engine.OccursOn(ev, date) {
			order++
			continue
		}
		entry := Entry{
			Kind:       EntryEvent,
			Occurrence: calendar.Occurrence{Event: ev, Date: date},
			Title:      ev.Title,
			Start:      ev.Start,
			End:        ev.End,
			Color:      ev.Color.OrDefault(),
			Editable:   true,
			order:      order,
		}
		order++
		timed = p.place(&day, entry, timed)
	}
	for _, visit := range visits {
		entry := Entry{
			Kind:     EntryVisit,
			Visit:    visit,
			Title:    visit.Label(),
			Start:    visit.Time,
			Editable: false,
			order:    order,
		}
		order++
		timed = p.place(&day, entry, timed)
	}

	slices.SortStableFunc(timed, compareEntries)
	slices.SortStableFunc(day.AllDay, compareEntries)
	slices.SortStableFunc(day.Outside, compareEntries)

	day.Columns = assignColumns(timed)
	for _, entry := range timed {
		cell := &day.Cells[entry.Slot]
		cell.Entries = append(cell.Entries, entry)
		for s := entry.Slot + 1; s < entry.Slot+entry.Span; s++ {
			day.Cells[s].Covered = true
		}
	}
	return day
}

// place routes entry to the all-day list, the out-of-range list or the
// timed list with its slot and span filled in.
func (p *Projector) place(day *Day, entry Entry, timed []Entry) []Entry {
	if entry.Start == nil {
		day.AllDay = append(day.AllDay, entry)
		return timed
	}
	start := entry.Start.Minutes()
	end := start + p.slots.SlotMinutes
	if entry.End != nil && entry.End.After(*entry.Start) {
		end = entry.End.Minutes()
	}
	slot, span, ok := p.slots.placement(start, end)
	if !ok {
		day.Outside = append(day.Outside, entry)
		return timed
	}
	entry.Slot = slot
	entry.Span = span
	return append(timed, entry)
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(a.Slot, b.Slot); c != 0 {
		return c
	}
	if c := calendar.CompareStart(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.order, b.order)
}

// assignColumns gives every block the first column that is free across its
// whole span. entries must be sorted by slot.
func assignColumns(entries []Entry) int {
	// busyUntil[c] is the first slot at which column c is free again.
	var busyUntil []int
	used := 0
	for i := range entries {
		column := -1
		for c, until := range busyUntil {
			if until <= entries[i].Slot {
				column = c
				break
			}
		}
		if column < 0 {
			if len(busyUntil) < maxColumns {
				busyUntil = append(busyUntil, 0)
				column = len(busyUntil) - 1
			} else {
				column = 0
			}
		}
		entries[i].Column = column
		busyUntil[column] = max(busyUntil[column], entries[i].Slot+entries[i].Span)
		used = max(used, column+1)
	}
	return used
}
