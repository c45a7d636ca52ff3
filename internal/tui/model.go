// Package tui is the terminal front end: a day/3-day/week grid where a click
// on an event opens it and a double-click on an empty slot creates one.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cloud.google.com/go/civil"

	"github.com/example/crumb-calendar/internal/application"
	"github.com/example/crumb-calendar/internal/calendar"
	"github.com/example/crumb-calendar/internal/grid"
	"github.com/example/crumb-calendar/internal/itinerary"
)

// DoubleClickWindow is the longest gap between two presses on the same cell
// that still counts as a double-click.
const DoubleClickWindow = 400 * time.Millisecond

type mode int

const (
	modeGrid mode = iota
	modeEditor
	modeConfirmConflicts
	modeConfirmDelete
	modeHelp
)

// itineraryChangedMsg is sent by the itinerary watcher after a reload.
type itineraryChangedMsg struct{ err error }

// ItineraryChanged wraps a watcher notification for tea.Program.Send.
func ItineraryChanged(err error) tea.Msg {
	return itineraryChangedMsg{err: err}
}

type click struct {
	day, slot int
	at        time.Time
}

// Options wires a Model.
type Options struct {
	Service   *application.EventService
	Projector *grid.Projector
	Book      *itinerary.Book
	Mode      grid.Mode
	Now       func() time.Time
	Logger    *slog.Logger
	Styles    *Styles
}

// Model is the bubbletea model of the calendar.
type Model struct {
	ctx       context.Context
	svc       *application.EventService
	projector *grid.Projector
	book      *itinerary.Book
	now       func() time.Time
	logger    *slog.Logger
	styles    Styles

	view grid.View
	grid grid.Grid
	mode mode

	cursorDay  int
	cursorSlot int
	topSlot    int
	lastClick  click

	editor    *editor
	conflicts []application.ConflictWarning
	deleteID  string

	width   int
	height  int
	message string
	warning bool
}

// NewModel builds the model anchored on today.
func NewModel(ctx context.Context, opts Options) (*Model, error) {
	if opts.Service == nil || opts.Projector == nil {
		return nil, errors.New("tui: service and projector are required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if !opts.Mode.Valid() {
		opts.Mode = grid.ModeWeek
	}
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}

	m := &Model{
		ctx:       ctx,
		svc:       opts.Service,
		projector: opts.Projector,
		book:      opts.Book,
		now:       opts.Now,
		logger:    opts.Logger.With("component", "tui"),
		styles:    styles,
		view:      grid.NewView(civil.DateOf(opts.Now()), opts.Mode),
	}
	m.jumpToNow()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollToCursor()
		return m, nil

	case itineraryChangedMsg:
		if msg.err != nil {
			m.setWarning("Itinerary reload failed: " + msg.err.Error())
		}
		m.refresh()
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeEditor:
		return m, m.handleEditorKey(msg)
	case modeConfirmConflicts:
		return m, m.handleConflictKey(msg)
	case modeConfirmDelete:
		return m, m.handleDeleteKey(msg)
	case modeHelp:
		m.mode = modeGrid
		return m, nil
	}

	m.message = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.mode = modeHelp
	case "left", "h":
		m.moveCursorDay(-1)
	case "right", "l":
		m.moveCursorDay(1)
	case "up", "k":
		m.moveCursorSlot(-1)
	case "down", "j":
		m.moveCursorSlot(1)
	case "pgup", "H", "[":
		m.setView(m.view.Page(-1))
	case "pgdown", "L", "]":
		m.setView(m.view.Page(1))
	case "v":
		m.setView(m.view.WithMode(m.view.Mode.Next()))
	case "t":
		m.jumpToNow()
	case "n":
		return m, m.openEditor(m.svc.DraftForNow())
	case "enter":
		return m, m.activateCursor()
	case "d", "x":
		m.confirmDeleteAtCursor()
	}
	return m, nil
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeEditor()
		return nil
	case "enter":
		m.save(false)
		return nil
	case "ctrl+d":
		if !m.editor.draft.IsNew() {
			m.deleteID = m.editor.draft.EventID
			m.mode = modeConfirmDelete
		}
		return nil
	}
	return m.editor.update(msg)
}

func (m *Model) handleConflictKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		m.save(true)
	case "n", "N", "esc":
		m.conflicts = nil
		m.mode = modeEditor
	}
	return nil
}

func (m *Model) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		m.delete(m.deleteID)
	case "n", "N", "esc":
		if m.editor != nil {
			m.mode = modeEditor
		} else {
			m.mode = modeGrid
		}
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.mode != modeGrid {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll(-1)
		return nil
	case tea.MouseButtonWheelDown:
		m.scroll(1)
		return nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	hit, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return nil
	}
	m.cursorDay, m.cursorSlot = hit.day, hit.slot
	now := m.now()
	double := m.lastClick.day == hit.day && m.lastClick.slot == hit.slot &&
		!m.lastClick.at.IsZero() && now.Sub(m.lastClick.at) <= DoubleClickWindow
	m.lastClick = click{day: hit.day, slot: hit.slot, at: now}

	if hit.entry != nil {
		if req, ok := hit.entry.EditRequest(); ok {
			return m.openEditor(m.svc.DraftFromEdit(req))
		}
		m.setMessage(hit.entry.Visit.Label() + " (itinerary, read-only)")
		return nil
	}
	if double {
		m.lastClick = click{}
		if req, ok := m.grid.CreateTarget(hit.day, hit.slot); ok {
			return m.openEditor(m.svc.DraftFromCreate(req))
		}
	}
	return nil
}

// activateCursor is the keyboard equivalent of clicking: the first block
// under the cursor is opened, an empty cell starts a new event.
func (m *Model) activateCursor() tea.Cmd {
	if entries := m.grid.EntriesAt(m.cursorDay, m.cursorSlot); len(entries) > 0 {
		if req, ok := entries[0].EditRequest(); ok {
			return m.openEditor(m.svc.DraftFromEdit(req))
		}
		m.setMessage(entries[0].Visit.Label() + " (itinerary, read-only)")
		return nil
	}
	if req, ok := m.grid.CreateTarget(m.cursorDay, m.cursorSlot); ok {
		return m.openEditor(m.svc.DraftFromCreate(req))
	}
	return nil
}

func (m *Model) confirmDeleteAtCursor() {
	for _, entry := range m.grid.EntriesAt(m.cursorDay, m.cursorSlot) {
		if req, ok := entry.EditRequest(); ok {
			m.deleteID = req.Event.ID
			m.mode = modeConfirmDelete
			return
		}
	}
	m.setMessage("Nothing to delete here")
}

func (m *Model) openEditor(draft application.Draft) tea.Cmd {
	m.editor = newEditor(draft)
	m.mode = modeEditor
	return m.editor.setFocus(fieldTitle)
}

func (m *Model) closeEditor() {
	m.editor = nil
	m.conflicts = nil
	m.mode = modeGrid
}

func (m *Model) save(confirm bool) {
	result, err := m.svc.Save(m.ctx, m.editor.currentDraft(), confirm)
	if err != nil {
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			m.editor.err = vErr
			m.mode = modeEditor
			m.setWarning("Please fix: " + vErr.Detail())
			return
		}
		m.mode = modeEditor
		m.setWarning("Save failed: " + err.Error())
		return
	}
	if !result.Committed {
		m.conflicts = result.Conflicts
		m.mode = modeConfirmConflicts
		return
	}

	m.closeEditor()
	m.reportPersist("Saved "+result.Event.Title, result.PersistWarning)
	m.focusDate(result.Event.Date)
	m.refresh()
}

func (m *Model) delete(id string) {
	result, err := m.svc.Delete(m.ctx, id)
	m.closeEditor()
	m.deleteID = ""
	if err != nil {
		m.setWarning("Delete failed: " + err.Error())
		return
	}
	m.reportPersist("Deleted event", result.PersistWarning)
	m.refresh()
}

func (m *Model) reportPersist(done string, warning error) {
	if warning != nil {
		m.setWarning(done + ", but it could not be written to disk: " + warning.Error())
		return
	}
	m.setMessage(done)
}

func (m *Model) setMessage(msg string) {
	m.message = msg
	m.warning = false
}

func (m *Model) setWarning(msg string) {
	m.message = msg
	m.warning = true
}

func (m *Model) setView(v grid.View) {
	m.view = v
	m.refresh()
}

// focusDate pages the view so date is visible and puts the cursor on it.
func (m *Model) focusDate(date civil.Date) {
	start, end := m.view.Range()
	if date.Before(start) || !date.Before(end) {
		m.view = grid.NewView(date, m.view.Mode)
	}
	m.cursorDay = date.DaysSince(m.view.Anchor)
}

func (m *Model) jumpToNow() {
	now := m.now()
	m.view = m.view.Today(now)
	m.cursorDay = 0
	slots := m.projector.Slots()
	if slot, ok := slots.SlotOf(slots.Floor(calendar.ClockOf(now))); ok {
		m.cursorSlot = slot
	} else {
		m.cursorSlot = 0
	}
	m.refresh()
	m.scrollToCursor()
}

func (m *Model) moveCursorDay(delta int) {
	next := m.cursorDay + delta
	switch {
	case next < 0:
		m.view = m.view.Step(-1)
		next = 0
	case next >= m.view.Mode.Days():
		m.view = m.view.Step(1)
		next = m.view.Mode.Days() - 1
	}
	m.cursorDay = next
	m.refresh()
}

func (m *Model) moveCursorSlot(delta int) {
	next := m.cursorSlot + delta
	if next < 0 || next >= m.projector.Slots().SlotCount() {
		return
	}
	m.cursorSlot = next
	m.scrollToCursor()
}

func (m *Model) scroll(delta int) {
	m.topSlot += delta
	m.clampScroll()
}

func (m *Model) scrollToCursor() {
	rows := m.visibleSlots()
	if m.cursorSlot < m.topSlot {
		m.topSlot = m.cursorSlot
	}
	if m.cursorSlot >= m.topSlot+rows {
		m.topSlot = m.cursorSlot - rows + 1
	}
	m.clampScroll()
}

func (m *Model) clampScroll() {
	maxTop := m.projector.Slots().SlotCount() - m.visibleSlots()
	if m.topSlot > maxTop {
		m.topSlot = maxTop
	}
	if m.topSlot < 0 {
		m.topSlot = 0
	}
}

// refresh rebuilds the grid from the store and the itinerary.
func (m *Model) refresh() {
	events, err := m.svc.List(m.ctx)
	if err != nil {
		m.logger.Error("failed to list events", "error", err)
		m.setWarning(fmt.Sprintf("Could not load events: %v", err))
		return
	}
	from, to := m.view.Range()
	var visits itinerary.ByDate
	if m.book != nil {
		visits = m.book.Visits(from, to)
	}
	m.grid = m.projector.BuildView(m.view, events, visits)
	if m.cursorDay >= len(m.grid.Days) {
		m.cursorDay = len(m.grid.Days) - 1
	}
}

// NewProgram wraps m in a full-screen program with mouse support.
func NewProgram(ctx context.Context, m *Model, opts ...tea.ProgramOption) *tea.Program {
	base := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}
	return tea.NewProgram(m, append(base, opts...)...)
}
