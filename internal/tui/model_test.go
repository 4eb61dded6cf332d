package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

const testCatalog = `ID,Name,Codename,Cores,Clock,Socket,TDP
1,Core i7-9700K,Coffee Lake,8,3.6 to 4.9,LGA1151,95
2,Core i9-9900K,Coffee Lake,8/16,3.6 to 5.0,LGA1151,95
3,Ryzen 5 3600,Matisse,6/12,3.6 to 4.2,AM4,65
4,Ryzen 7 3700X,Matisse,8/16,3.6 to 4.4,AM4,65
`

func newTestModel(t *testing.T, reload ReloadFunc) (Model, *core.Controller) {
	t.Helper()
	cat, err := core.LoadCatalog(testCatalog)
	require.NoError(t, err)
	holder := core.NewCatalogHolder()
	holder.Replace(cat)
	ctrl := core.NewController(holder, core.Options{MaxSelected: 2})
	return NewModel(ctrl, reload), ctrl
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typed(s string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(t tea.KeyType) tea.Msg {
	return tea.KeyMsg{Type: t}
}

func TestModel_SearchAndSelect(t *testing.T) {
	m, ctrl := newTestModel(t, nil)

	m = send(m, typed("ryzen"))
	require.Len(t, m.Results(), 2)
	assert.Equal(t, "Ryzen 5 3600", m.Results()[0].Name)

	m = send(m, key(tea.KeyDown), key(tea.KeyEnter))
	assert.Equal(t, []string{"Ryzen 7 3700X"}, ctrl.SelectedNames())
	assert.Equal(t, "Added Ryzen 7 3700X", m.Notice())
	assert.Empty(t, m.input.Value(), "search box is cleared after an add")
	assert.Empty(t, m.Results())

	m = send(m, typed("ryzen"), key(tea.KeyDown), key(tea.KeyEnter))
	assert.Equal(t, "Ryzen 7 3700X is already selected", m.Notice())
	assert.Empty(t, m.Results())

	view := m.View()
	assert.Contains(t, view, "Selected 1/2")
	assert.Contains(t, view, "✓ Ryzen 7 3700X")
}

func TestModel_CapacityNotice(t *testing.T) {
	m, ctrl := newTestModel(t, nil)

	m = send(m, typed("e"), key(tea.KeyEnter))
	m = send(m, typed("e"), key(tea.KeyDown), key(tea.KeyEnter))
	m = send(m, typed("e"), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyEnter))
	assert.Len(t, ctrl.SelectedNames(), 2)
	assert.Equal(t, "You can compare at most 2 processors", m.Notice())
	assert.Equal(t, "e", m.input.Value(), "a rejected add keeps the search")
	assert.Len(t, m.Results(), 4)
}

func TestModel_CursorStaysInRange(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m = send(m, typed("core"), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyDown), key(tea.KeyUp))
	m = send(m, key(tea.KeyEnter))
	assert.Equal(t, "Added Core i7-9700K", m.Notice())

	m = send(m, key(tea.KeyUp), key(tea.KeyUp))
	assert.Equal(t, 0, m.cursor)
}

func TestModel_SelectionFocusRemovesAndClears(t *testing.T) {
	m, ctrl := newTestModel(t, nil)
	ctrl.Select("Ryzen 5 3600")
	ctrl.Select("Core i9-9900K")

	m = send(m, key(tea.KeyTab))
	assert.Equal(t, FocusSelection, m.Focus())

	m = send(m, key(tea.KeyRight), typed("d"))
	assert.Equal(t, []string{"Ryzen 5 3600"}, ctrl.SelectedNames())
	assert.Equal(t, "Removed Core i9-9900K", m.Notice())
	assert.Equal(t, 0, m.selCursor)

	m = send(m, typed("c"))
	assert.Empty(t, ctrl.SelectedNames())

	m = send(m, key(tea.KeyTab))
	assert.Equal(t, FocusSearch, m.Focus())
}

func TestModel_SortCycleAndReverse(t *testing.T) {
	m, ctrl := newTestModel(t, nil)
	ctrl.Select("Ryzen 5 3600")
	ctrl.Select("Core i9-9900K")
	m = send(m, key(tea.KeyTab))

	m = send(m, typed("s"))
	assert.Equal(t, core.SortState{Column: "Name", Dir: core.SortAsc}, ctrl.SortState())

	m = send(m, typed("s"))
	assert.Equal(t, core.SortState{Column: "Cores", Dir: core.SortAsc}, ctrl.SortState())

	m = send(m, typed("r"))
	assert.Equal(t, core.SortState{Column: "Cores", Dir: core.SortDesc}, ctrl.SortState())
	assert.Equal(t, "Sorted by Cores desc", m.Notice())

	assert.Contains(t, m.View(), "Cores ▼")
}

func TestModel_Reload(t *testing.T) {
	reloadErr := errors.New("fetch catalog: open data/tpu_cpus.csv: no such file or directory")
	calls := 0
	m, _ := newTestModel(t, func(context.Context) error {
		calls++
		if calls == 1 {
			return reloadErr
		}
		return nil
	})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	m = send(next.(Model), cmd())
	assert.Contains(t, m.View(), "CAT001")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = send(m, cmd())
	assert.Equal(t, "Catalog reloaded: 4 processors", m.Notice())
	assert.NotContains(t, m.View(), "CAT001")
}

func TestModel_ReloadDisabled(t *testing.T) {
	m, _ := newTestModel(t, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, nil)
	next, cmd := m.Update(key(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(Model).View())
}

func TestRenderComparison(t *testing.T) {
	_, ctrl := newTestModel(t, nil)
	assert.Empty(t, RenderComparison(ctrl.ComparisonModel(), 0))

	ctrl.Select("Ryzen 5 3600")
	ctrl.Select("Core i9-9900K")
	_, err := ctrl.ToggleSort("TDP")
	require.NoError(t, err)

	model := ctrl.ComparisonModel()
	out := RenderComparison(model, 0)
	assert.Contains(t, out, "TDP ▲")
	assert.Contains(t, out, "Matisse")
	assert.Less(t, strings.Index(out, "Ryzen 5 3600"), strings.Index(out, "Core i9-9900K"))

	assert.Equal(t, []string{"Name", "Codename", "Cores", "Clock", "Socket", "TDP ▲"}, HeaderLabels(model))
}
