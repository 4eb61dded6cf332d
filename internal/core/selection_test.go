package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_Add(t *testing.T) {
	s := NewSelection(0)
	assert.Equal(t, DefaultMaxSelected, s.Max())

	for _, n := range []string{"A", "B", "C", "D", "E"} {
		res := s.Add(n)
		assert.Equal(t, Added, res.Status, "add %s", n)
		assert.True(t, res.OK())
	}

	res := s.Add("C")
	assert.Equal(t, AlreadySelected, res.Status)
	assert.True(t, res.OK())
	assert.Equal(t, 5, s.Len())

	res = s.Add("F")
	assert.Equal(t, CapacityReached, res.Status)
	assert.False(t, res.OK())
	assert.Equal(t, "You can compare at most 5 processors", res.Message())
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, s.Names())
}

func TestSelection_HeadToHead(t *testing.T) {
	s := NewSelection(HeadToHeadMaxSelected)
	s.Add("A")
	s.Add("B")
	assert.Equal(t, CapacityReached, s.Add("C").Status)
}

func TestSelection_RemoveAndClear(t *testing.T) {
	s := NewSelection(3)
	s.Add("A")
	s.Add("B")
	s.Add("C")

	assert.True(t, s.Remove("B"))
	assert.False(t, s.Remove("B"))
	assert.Equal(t, []string{"A", "C"}, s.Names())
	assert.False(t, s.Contains("B"))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Names())
}

func TestSelection_NamesIsCopy(t *testing.T) {
	s := NewSelection(2)
	s.Add("A")
	names := s.Names()
	names[0] = "Z"
	assert.Equal(t, []string{"A"}, s.Names())
}

func TestSelection_Retain(t *testing.T) {
	s := NewSelection(5)
	for _, n := range []string{"A", "B", "C", "D"} {
		s.Add(n)
	}
	dropped := s.Retain(func(name string) bool { return name != "B" && name != "D" })
	assert.Equal(t, []string{"B", "D"}, dropped)
	assert.Equal(t, []string{"A", "C"}, s.Names())
}

func TestAddStatus_String(t *testing.T) {
	tests := map[AddStatus]string{
		Added:           "added",
		AlreadySelected: "already_selected",
		CapacityReached: "capacity_reached",
		UnknownCPU:      "unknown_cpu",
		AddStatus(42):   "unknown",
	}
	for status, want := range tests {
		assert.Equal(t, want, status.String())
	}
}
