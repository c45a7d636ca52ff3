package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/calendar"
)

func clock(h, m int) *calendar.Clock {
	c := calendar.MustClock(h, m)
	return &c
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func TestExporter_WritesEvents(t *testing.T) {
	t.Parallel()

	events := []calendar.Event{
		{
			ID:         "42",
			Title:      "Route review",
			Date:       civil.Date{Year: 2025, Month: time.June, Day: 2},
			Start:      clock(9, 0),
			End:        clock(10, 30),
			Recurrence: calendar.RecurrenceWeekly,
			Location:   "Depot",
			Notes:      "Bring the van keys",
			Color:      "#e74c3c",
		},
		{
			ID:    "43",
			Title: "Stocktake",
			Date:  civil.Date{Year: 2025, Month: time.June, Day: 4},
		},
	}

	var buf bytes.Buffer
	exporter := NewExporter(nil, Options{Name: "Sales", Now: fixedNow})
	require.NoError(t, exporter.Write(&buf, events))

	raw := buf.String()
	assert.Contains(t, raw, "PRODID:"+ProductID)
	assert.Contains(t, raw, "X-WR-CALNAME:Sales")

	parsed, err := ical.ParseCalendar(strings.NewReader(raw))
	require.NoError(t, err)
	vevents := parsed.Events()
	require.Len(t, vevents, 2)

	weekly := vevents[0]
	assert.Equal(t, "42@crumbcal", weekly.Id())
	assert.Equal(t, "Route review", weekly.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20250602T090000", weekly.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20250602T103000", weekly.GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "FREQ=WEEKLY", weekly.GetProperty(ical.ComponentPropertyRrule).Value)
	assert.Equal(t, "Depot", weekly.GetProperty(ical.ComponentPropertyLocation).Value)
	assert.Equal(t, "#e74c3c", weekly.GetProperty(ical.ComponentPropertyColor).Value)

	allDay := vevents[1]
	assert.Equal(t, "20250604", allDay.GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Nil(t, allDay.GetProperty(ical.ComponentPropertyDtEnd))
	assert.Nil(t, allDay.GetProperty(ical.ComponentPropertyRrule))
	assert.Equal(t, string(calendar.DefaultColor), allDay.GetProperty(ical.ComponentPropertyColor).Value)
}

func TestExporter_MonthlyRule(t *testing.T) {
	t.Parallel()

	cal, err := NewExporter(nil, Options{Now: fixedNow}).Calendar([]calendar.Event{{
		ID:         "m",
		Title:      "Invoice run",
		Date:       civil.Date{Year: 2025, Month: time.January, Day: 31},
		Recurrence: calendar.RecurrenceMonthly,
	}})
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)
	assert.Equal(t, "FREQ=MONTHLY;BYMONTHDAY=31", cal.Events()[0].GetProperty(ical.ComponentPropertyRrule).Value)
}

func TestExporter_RejectsInvalidAnchor(t *testing.T) {
	t.Parallel()

	_, err := NewExporter(nil, Options{}).Calendar([]calendar.Event{{ID: "bad", Title: "x"}})
	require.Error(t, err)
}
