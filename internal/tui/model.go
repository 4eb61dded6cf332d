// Package tui is the interactive terminal front end: search the catalog,
// build a selection and read the comparison table.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

// Focus is the part of the screen receiving keys.
type Focus int

const (
	FocusSearch Focus = iota
	FocusSelection
)

// ReloadFunc refetches the catalog into the controller's holder.
type ReloadFunc func(ctx context.Context) error

// CatalogReloadedMsg reports the end of a reload.
type CatalogReloadedMsg struct {
	Err error
}

// Model is the bubbletea model for the comparison screen.
type Model struct {
	ctrl   *core.Controller
	reload ReloadFunc

	input   textinput.Model
	results []core.Record
	cursor  int

	focus     Focus
	selCursor int

	notice string
	err    error

	width    int
	height   int
	quitting bool
}

// NewModel creates the model. reload may be nil, which disables ctrl+r.
func NewModel(ctrl *core.Controller, reload ReloadFunc) Model {
	input := textinput.New()
	input.Placeholder = "Search processors, e.g. ryzen 3600"
	input.Prompt = "› "
	input.CharLimit = 128
	input.Focus()

	return Model{
		ctrl:   ctrl,
		reload: reload,
		input:  input,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CatalogReloadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.notice = fmt.Sprintf("Catalog reloaded: %d processors", m.ctrl.Catalog().Len())
			m.refreshResults()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "ctrl+r":
			return m, m.reloadCmd()
		}
		if m.focus == FocusSelection {
			return m.updateSelection(msg)
		}
		return m.updateSearch(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == FocusSearch {
		m.focus = FocusSelection
		m.input.Blur()
		m.clampSelCursor()
		return
	}
	m.focus = FocusSearch
	m.input.Focus()
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.cursor < len(m.results) {
			res := m.ctrl.Select(m.results[m.cursor].Name)
			m.notice = res.Message()
			if res.OK() {
				m.input.Reset()
				m.results = nil
				m.cursor = 0
			}
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refreshResults()
	}
	return m, cmd
}

func (m Model) updateSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	names := m.ctrl.SelectedNames()

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "left", "up", "h", "k":
		if m.selCursor > 0 {
			m.selCursor--
		}
	case "right", "down", "l", "j":
		if m.selCursor < len(names)-1 {
			m.selCursor++
		}
	case "d", "x", "delete", "backspace":
		if m.selCursor < len(names) {
			m.ctrl.Deselect(names[m.selCursor])
			m.notice = "Removed " + names[m.selCursor]
			m.clampSelCursor()
		}
	case "c":
		m.ctrl.Clear()
		m.selCursor = 0
		m.notice = "Selection cleared"
	case "s":
		m.cycleSort()
	case "r":
		st := m.ctrl.SortState()
		if st.Active() {
			m.applySort(st.Column)
		}
	}
	return m, nil
}

// cycleSort moves the sort to the next sortable column, ascending. With a
// single sortable column it flips the direction instead.
func (m *Model) cycleSort() {
	model := m.ctrl.ComparisonModel()
	var sortable []string
	for _, h := range model.Headers {
		if h.Sortable {
			sortable = append(sortable, h.Key)
		}
	}
	if len(sortable) == 0 {
		m.notice = "Nothing to sort"
		return
	}

	next := sortable[0]
	current := m.ctrl.SortState()
	for i, key := range sortable {
		if key == current.Column && current.Active() {
			next = sortable[(i+1)%len(sortable)]
			break
		}
	}
	m.applySort(next)
}

func (m *Model) applySort(column string) {
	st, err := m.ctrl.ToggleSort(column)
	if err != nil {
		m.notice = core.MapError(err).Message
		return
	}
	m.notice = fmt.Sprintf("Sorted by %s %s", m.ctrl.Policy().Label(st.Column), st.Dir)
}

func (m *Model) clampSelCursor() {
	n := len(m.ctrl.SelectedNames())
	if m.selCursor >= n {
		m.selCursor = max(n-1, 0)
	}
}

func (m *Model) refreshResults() {
	m.results = m.ctrl.Search(m.input.Value())
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

func (m Model) reloadCmd() tea.Cmd {
	if m.reload == nil {
		return nil
	}
	reload := m.reload
	return func() tea.Msg {
		return CatalogReloadedMsg{Err: reload(context.Background())}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	cat := m.ctrl.Catalog()
	b.WriteString(titleStyle.Render(fmt.Sprintf("CPU compare · %d processors", cat.Len())))
	b.WriteString("\n")

	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.resultsView())
	b.WriteString("\n")
	b.WriteString(m.selectionView())
	b.WriteString("\n")

	if table := RenderComparison(m.ctrl.ComparisonModel(), 0); table != "" {
		b.WriteString(table)
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(core.FormatUserError(m.err)))
		b.WriteString("\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m Model) resultsView() string {
	if strings.TrimSpace(m.input.Value()) == "" {
		return dimStyle.Render("  Type to search")
	}
	if len(m.results) == 0 {
		return dimStyle.Render("  Nothing found")
	}

	selected := make(map[string]bool)
	for _, n := range m.ctrl.SelectedNames() {
		selected[n] = true
	}

	lines := make([]string, len(m.results))
	for i, rec := range m.results {
		mark := "  "
		if selected[rec.Name] {
			mark = "✓ "
		}
		line := fmt.Sprintf("%s%s  %s", mark, rec.Name,
			dimStyle.Render(fmt.Sprintf("%d cores · %s", rec.EffectiveCores, core.FormatGHz(rec.MaxClockGHz))))
		if i == m.cursor && m.focus == FocusSearch {
			lines[i] = cursorItemStyle.Render(line)
		} else {
			lines[i] = itemStyle.Render(line)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) selectionView() string {
	names := m.ctrl.SelectedNames()
	label := labelStyle.Render(fmt.Sprintf("Selected %d/%d ", len(names), m.ctrl.MaxSelected()))
	if len(names) == 0 {
		return label + dimStyle.Render("nothing yet")
	}
	chips := make([]string, len(names))
	for i, n := range names {
		if m.focus == FocusSelection && i == m.selCursor {
			chips[i] = cursorChipStyle.Render(n)
		} else {
			chips[i] = chipStyle.Render(n)
		}
	}
	return label + lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

func (m Model) help() string {
	if m.focus == FocusSelection {
		return "←/→ move · d remove · c clear · s sort column · r reverse · tab search · q quit"
	}
	return "↑/↓ move · enter add · tab selection · ctrl+r reload · esc quit"
}

// Focus returns the focused area.
func (m Model) Focus() Focus {
	return m.focus
}

// Notice returns the last status message.
func (m Model) Notice() string {
	return m.notice
}

// Results returns the current search results.
func (m Model) Results() []core.Record {
	return m.results
}
