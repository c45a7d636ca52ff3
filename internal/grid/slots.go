package grid

import (
	"errors"
	"fmt"

	"github.com/example/crumb-calendar/internal/calendar"
)

// ErrInvalidSlotConfig is returned when the visible time range cannot be
// divided into slots.
var ErrInvalidSlotConfig = errors.New("grid: invalid slot configuration")

// DefaultSlotMinutes is the slot granularity used unless configured otherwise.
const DefaultSlotMinutes = 30

// SlotConfig describes the visible time range of a day and its granularity.
type SlotConfig struct {
	DayStart    calendar.Clock
	DayEnd      calendar.Clock
	SlotMinutes int
}

// DefaultSlotConfig covers 07:00 to 22:00 in 30 minute slots.
func DefaultSlotConfig() SlotConfig {
	return SlotConfig{
		DayStart:    calendar.MustClock(7, 0),
		DayEnd:      calendar.MustClock(22, 0),
		SlotMinutes: DefaultSlotMinutes,
	}
}

// Validate checks that the range is non-empty and divides into whole slots.
func (c SlotConfig) Validate() error {
	switch c.SlotMinutes {
	case 5, 15, 30:
	default:
		return fmt.Errorf("%w: slot minutes must be 5, 15 or 30, got %d", ErrInvalidSlotConfig, c.SlotMinutes)
	}
	if !c.DayStart.Before(c.DayEnd) {
		return fmt.Errorf("%w: day start %s must be before day end %s", ErrInvalidSlotConfig, c.DayStart, c.DayEnd)
	}
	if (c.DayEnd.Minutes()-c.DayStart.Minutes())%c.SlotMinutes != 0 {
		return fmt.Errorf("%w: %s-%s is not a multiple of %d minutes", ErrInvalidSlotConfig, c.DayStart, c.DayEnd, c.SlotMinutes)
	}
	return nil
}

// SlotCount returns the number of slots per day.
func (c SlotConfig) SlotCount() int {
	return (c.DayEnd.Minutes() - c.DayStart.Minutes()) / c.SlotMinutes
}

// SlotStart returns the clock at which slot begins.
func (c SlotConfig) SlotStart(slot int) calendar.Clock {
	start, _ := calendar.ClockFromMinutes(c.DayStart.Minutes() + slot*c.SlotMinutes)
	return start
}

// SlotOf returns the slot containing t, flooring to the slot boundary.
// The second result is false when t lies outside the visible range.
func (c SlotConfig) SlotOf(t calendar.Clock) (int, bool) {
	if t.Before(c.DayStart) || !t.Before(c.DayEnd) {
		return 0, false
	}
	return (t.Minutes() - c.DayStart.Minutes()) / c.SlotMinutes, true
}

// Floor rounds t down to the slot grid, ignoring the visible range.
func (c SlotConfig) Floor(t calendar.Clock) calendar.Clock {
	m := t.Minutes() - t.Minutes()%c.SlotMinutes
	floored, _ := calendar.ClockFromMinutes(m)
	return floored
}

// Labels returns the start clock of every slot.
func (c SlotConfig) Labels() []calendar.Clock {
	out := make([]calendar.Clock, c.SlotCount())
	for i := range out {
		out[i] = c.SlotStart(i)
	}
	return out
}

// placement returns the first slot and slot span of the minute range
// [start, end) clamped to the visible range. ok is false when nothing of the
// range is visible.
func (c SlotConfig) placement(start, end int) (slot, span int, ok bool) {
	lo := max(start, c.DayStart.Minutes())
	hi := min(end, c.DayEnd.Minutes())
	if lo >= hi {
		return 0, 0, false
	}
	base := c.DayStart.Minutes()
	slot = (lo - base) / c.SlotMinutes
	last := (hi - base + c.SlotMinutes - 1) / c.SlotMinutes
	span = max(last-slot, 1)
	return slot, span, true
}
