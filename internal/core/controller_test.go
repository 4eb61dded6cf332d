package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T, max int) *Controller {
	t.Helper()
	c := NewController(NewCatalogHolder(), Options{MaxSelected: max})
	_, err := c.LoadCatalog(sampleCatalog)
	require.NoError(t, err)
	return c
}

func TestController_SelectAndCompare(t *testing.T) {
	c := newTestController(t, 0)

	assert.True(t, c.ComparisonModel().Empty())

	assert.Equal(t, Added, c.Select("Ryzen 5 3600").Status)
	assert.Equal(t, Added, c.Select("Core i7-9700K").Status)
	assert.Equal(t, AlreadySelected, c.Select("Ryzen 5 3600").Status)
	assert.Equal(t, UnknownCPU, c.Select("Core i3-530").Status)

	assert.Equal(t, []string{"Ryzen 5 3600", "Core i7-9700K"}, c.SelectedNames())

	m := c.ComparisonModel()
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "Ryzen 5 3600", m.Rows[0].Name)
}

func TestController_Capacity(t *testing.T) {
	c := newTestController(t, HeadToHeadMaxSelected)
	c.Select("Ryzen 5 3600")
	c.Select("Ryzen 5 3700")

	res := c.Select("Pentium 4")
	assert.Equal(t, CapacityReached, res.Status)
	assert.Equal(t, 2, res.Limit)
	assert.Len(t, c.SelectedNames(), 2)
}

func TestController_ToggleSort(t *testing.T) {
	c := newTestController(t, 0)
	c.Select("Pentium 4")
	c.Select("Core i9-9900K")

	st, err := c.ToggleSort("Cores")
	require.NoError(t, err)
	assert.Equal(t, SortState{Column: "Cores", Dir: SortAsc}, st)
	assert.Equal(t, "Pentium 4", c.ComparisonModel().Rows[0].Name)

	st, err = c.ToggleSort("Cores")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, st.Dir)
	assert.Equal(t, "Core i9-9900K", c.ComparisonModel().Rows[0].Name)

	// Sorting never reorders the selection itself.
	assert.Equal(t, []string{"Pentium 4", "Core i9-9900K"}, c.SelectedNames())
}

func TestController_ToggleSortRejected(t *testing.T) {
	c := newTestController(t, 0)

	for _, col := range []string{"Socket", "Codename", "ID", "Price"} {
		_, err := c.ToggleSort(col)
		assert.True(t, errors.Is(err, ErrNotSortable), "column %s: %v", col, err)
	}
	assert.False(t, c.SortState().Active())
}

func TestController_Deselect(t *testing.T) {
	c := newTestController(t, 0)
	c.Select("Pentium 4")
	assert.True(t, c.Deselect("Pentium 4"))
	assert.False(t, c.Deselect("Pentium 4"))
	assert.Empty(t, c.SelectedNames())
}

func TestController_Clear(t *testing.T) {
	c := newTestController(t, 0)
	c.Select("Pentium 4")
	_, err := c.ToggleSort("TDP")
	require.NoError(t, err)

	c.Clear()
	assert.Empty(t, c.SelectedNames())
	assert.False(t, c.SortState().Active())
}

func TestController_ReloadPrunesSelection(t *testing.T) {
	holder := NewCatalogHolder()
	c := NewController(holder, Options{})
	_, err := c.LoadCatalog(sampleCatalog)
	require.NoError(t, err)

	c.Select("Pentium 4")
	c.Select("Ryzen 5 3600")
	_, err = c.ToggleSort("Socket")
	require.Error(t, err)
	_, err = c.ToggleSort("L3_Cache")
	require.NoError(t, err)

	// Another controller sharing the holder installs a smaller catalog.
	other := NewController(holder, Options{})
	_, err = other.LoadCatalog("ID,Name,Cores\n1,Ryzen 5 3600,6\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ryzen 5 3600"}, c.SelectedNames())
	assert.False(t, c.SortState().Active(), "sort column vanished with the reload")
}

func TestController_FailedLoadKeepsCatalog(t *testing.T) {
	c := newTestController(t, 0)
	before := c.Catalog()

	_, err := c.LoadCatalog("")
	var mie *MalformedInputError
	require.True(t, errors.As(err, &mie))
	assert.ErrorContains(t, err, "load catalog")
	assert.Same(t, before, c.Catalog())
}

func TestController_Concurrent(t *testing.T) {
	c := newTestController(t, 0)
	names := []string{"Core i7-9700K", "Core i9-9900K", "Ryzen 5 3600", "Ryzen 5 3700", "Pentium 4"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := names[i%len(names)]
			c.Select(n)
			_ = c.ComparisonModel()
			if i%3 == 0 {
				c.Deselect(n)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, len(c.SelectedNames()), DefaultMaxSelected)
}
