package core

import "fmt"

const (
	// DefaultMaxSelected is the selection capacity of the full comparison view.
	DefaultMaxSelected = 5

	// HeadToHeadMaxSelected is the capacity of a two-CPU comparison.
	HeadToHeadMaxSelected = 2
)

// AddStatus is the outcome of adding a CPU to a Selection.
type AddStatus int

const (
	Added AddStatus = iota
	AlreadySelected
	CapacityReached
	UnknownCPU
)

func (s AddStatus) String() string {
	switch s {
	case Added:
		return "added"
	case AlreadySelected:
		return "already_selected"
	case CapacityReached:
		return "capacity_reached"
	case UnknownCPU:
		return "unknown_cpu"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its string form.
func (s AddStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AddResult reports what happened to an add request.
// Rejections are user-facing outcomes, not errors.
type AddResult struct {
	Status AddStatus `json:"status"`
	Name   string    `json:"name"`
	Limit  int       `json:"limit"`
}

// OK reports whether the selection now contains Name.
func (r AddResult) OK() bool {
	return r.Status == Added || r.Status == AlreadySelected
}

// Message returns text suitable for showing to the user.
func (r AddResult) Message() string {
	switch r.Status {
	case Added:
		return fmt.Sprintf("Added %s", r.Name)
	case AlreadySelected:
		return fmt.Sprintf("%s is already selected", r.Name)
	case CapacityReached:
		return fmt.Sprintf("You can compare at most %d processors", r.Limit)
	case UnknownCPU:
		return fmt.Sprintf("%s is not in the catalog", r.Name)
	default:
		return ""
	}
}

// Selection is an ordered set of CPU names with a fixed capacity.
// Names keep the order in which they were added. Not safe for concurrent
// use; Controller serializes access.
type Selection struct {
	names []string
	max   int
}

// NewSelection creates an empty selection holding at most max names.
// A max <= 0 means DefaultMaxSelected.
func NewSelection(max int) *Selection {
	if max <= 0 {
		max = DefaultMaxSelected
	}
	return &Selection{max: max}
}

// Add appends name unless it is already present or the selection is full.
func (s *Selection) Add(name string) AddResult {
	res := AddResult{Name: name, Limit: s.max}
	switch {
	case s.Contains(name):
		res.Status = AlreadySelected
	case len(s.names) >= s.max:
		res.Status = CapacityReached
	default:
		s.names = append(s.names, name)
		res.Status = Added
	}
	return res
}

// Remove deletes name and reports whether it was present.
func (s *Selection) Remove(name string) bool {
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.names = nil
}

// Contains reports whether name is selected.
func (s *Selection) Contains(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names returns the selected names in insertion order.
func (s *Selection) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of selected names.
func (s *Selection) Len() int { return len(s.names) }

// Max returns the capacity.
func (s *Selection) Max() int { return s.max }

// Retain keeps only the names for which keep returns true and returns the
// names it dropped.
func (s *Selection) Retain(keep func(name string) bool) []string {
	var dropped []string
	kept := s.names[:0]
	for _, n := range s.names {
		if keep(n) {
			kept = append(kept, n)
		} else {
			dropped = append(dropped, n)
		}
	}
	s.names = kept
	return dropped
}
