package grid

import (
	"cmp"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

// EditRequest asks the editor to open a base event. OccurrenceDate is the
// date that was clicked; edits always apply to the whole series.
type EditRequest struct {
	Event          calendar.Event
	OccurrenceDate civil.Date
}

// CreateRequest asks the editor to open a new event prefilled with a date and
// a start time.
type CreateRequest struct {
	Date civil.Date
	Time calendar.Clock
}

// EditRequest returns the edit request for an editable entry.
func (e Entry) EditRequest() (EditRequest, bool) {
	if !e.Editable || e.Kind != EntryEvent {
		return EditRequest{}, false
	}
	return EditRequest{Event: e.Occurrence.Event.Clone(), OccurrenceDate: e.Occurrence.Date}, true
}

// Cell returns the cell at (day, slot).
func (g Grid) Cell(day, slot int) (Cell, bool) {
	if day < 0 || day >= len(g.Days) {
		return Cell{}, false
	}
	cells := g.Days[day].Cells
	if slot < 0 || slot >= len(cells) {
		return Cell{}, false
	}
	return cells[slot], true
}

// EditTarget resolves a click on the index-th block starting at (day, slot).
// Imported visits are not editable.
func (g Grid) EditTarget(day, slot, index int) (EditRequest, bool) {
	cell, ok := g.Cell(day, slot)
	if !ok || index < 0 || index >= len(cell.Entries) {
		return EditRequest{}, false
	}
	return cell.Entries[index].EditRequest()
}

// CreateTarget resolves a double-click on (day, slot). Only empty cells
// produce a create request.
func (g Grid) CreateTarget(day, slot int) (CreateRequest, bool) {
	cell, ok := g.Cell(day, slot)
	if !ok || !cell.Empty() {
		return CreateRequest{}, false
	}
	return CreateRequest{Date: g.Days[day].Date, Time: g.Slots.SlotStart(slot)}, true
}

// EntriesAt returns every block that occupies (day, slot), ordered by column.
func (g Grid) EntriesAt(day, slot int) []Entry {
	if day < 0 || day >= len(g.Days) {
		return nil
	}
	var out []Entry
	for s := 0; s <= slot && s < len(g.Days[day].Cells); s++ {
		for _, entry := range g.Days[day].Cells[s].Entries {
			if entry.Covers(slot) {
				out = append(out, entry)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int { return cmp.Compare(a.Column, b.Column) })
	return out
}

// EntryAt returns the block rendered in column of (day, slot), whether it
// starts there or extends over it from an earlier slot.
func (g Grid) EntryAt(day, slot, column int) (Entry, bool) {
	for _, entry := range g.EntriesAt(day, slot) {
		if entry.Column == column {
			return entry, true
		}
	}
	return Entry{}, false
}
