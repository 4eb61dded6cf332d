package core

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed columns.yaml
var defaultColumnsYAML []byte

// ColumnPolicy describes how catalog columns are displayed and compared.
type ColumnPolicy struct {
	HideFirstColumn bool              `yaml:"hide_first_column"`
	Hidden          []string          `yaml:"hidden"`
	NonSortable     []string          `yaml:"non_sortable"`
	LowerIsBetter   []string          `yaml:"lower_is_better"`
	ClockColumns    []string          `yaml:"clock_columns"`
	CoreColumns     []string          `yaml:"core_columns"`
	Labels          map[string]string `yaml:"labels"`

	hidden      map[string]bool
	nonSortable map[string]bool
	lower       map[string]bool
	clock       map[string]bool
	cores       map[string]bool
}

// ColumnSpec is a displayed column as seen by the comparison table.
type ColumnSpec struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	Sortable      bool   `json:"sortable"`
	LowerIsBetter bool   `json:"lower_is_better"`
}

var (
	defaultPolicyOnce sync.Once
	defaultPolicy     *ColumnPolicy
)

// DefaultColumnPolicy returns the built-in policy.
func DefaultColumnPolicy() *ColumnPolicy {
	defaultPolicyOnce.Do(func() {
		p, err := ParseColumnPolicy(defaultColumnsYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded columns.yaml: %v", err))
		}
		defaultPolicy = p
	})
	return defaultPolicy
}

// ParseColumnPolicy decodes a YAML policy document.
func ParseColumnPolicy(data []byte) (*ColumnPolicy, error) {
	var p ColumnPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("column policy: parse yaml: %w", err)
	}
	p.compile()
	return &p, nil
}

// LoadColumnPolicyFile reads a policy from path. An empty path returns the
// built-in policy.
func LoadColumnPolicyFile(path string) (*ColumnPolicy, error) {
	if path == "" {
		return DefaultColumnPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("column policy: %w", err)
	}
	return ParseColumnPolicy(data)
}

func (p *ColumnPolicy) compile() {
	p.hidden = toSet(p.Hidden)
	p.nonSortable = toSet(p.NonSortable)
	p.lower = toSet(p.LowerIsBetter)
	p.clock = toSet(p.ClockColumns)
	p.cores = toSet(p.CoreColumns)
}

func toSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Label returns the display label for a column.
func (p *ColumnPolicy) Label(column string) string {
	if l, ok := p.Labels[column]; ok && l != "" {
		return l
	}
	return column
}

// IsSortable reports whether the table may be sorted by column.
func (p *ColumnPolicy) IsSortable(column string) bool {
	return !p.nonSortable[column] && !p.hidden[column]
}

// IsLowerBetter reports whether smaller values of column are better.
func (p *ColumnPolicy) IsLowerBetter(column string) bool {
	return p.lower[column]
}

// DisplayColumns returns the columns shown for a header row, in order.
// The first column is dropped when HideFirstColumn is set, unless it is Name.
// Use Catalog.DisplayColumns for a parsed catalog.
func (p *ColumnPolicy) DisplayColumns(headers []string) []ColumnSpec {
	first := ""
	if len(headers) > 0 {
		first = headers[0]
	}
	return p.columns(headers, first)
}

// columns applies the policy to headers. first is the header of the file's
// first column, "" when it had none.
func (p *ColumnPolicy) columns(headers []string, first string) []ColumnSpec {
	cols := make([]ColumnSpec, 0, len(headers))
	for _, h := range headers {
		if p.HideFirstColumn && first != "" && h == first && h != ColumnName {
			continue
		}
		if p.hidden[h] {
			continue
		}
		cols = append(cols, ColumnSpec{
			Key:           h,
			Label:         p.Label(h),
			Sortable:      p.IsSortable(h),
			LowerIsBetter: p.IsLowerBetter(h),
		})
	}
	return cols
}

// NumericValue returns the comparable number for a record's column.
// Clock columns use the derived GHz value, core columns the derived core
// count, and everything else ParseNumber. Missing values report false.
func (p *ColumnPolicy) NumericValue(rec Record, column string) (float64, bool) {
	switch {
	case p.clock[column]:
		v := rec.MaxClockGHz
		if column != ColumnClock {
			v = ParseClockGHz(rec.Get(column))
		}
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true

	case p.cores[column]:
		n := rec.EffectiveCores
		if column != ColumnCores {
			n = ParseCores(rec.Get(column))
		}
		if n <= 0 {
			return 0, false
		}
		return float64(n), true

	default:
		return ParseNumber(rec.Get(column))
	}
}
