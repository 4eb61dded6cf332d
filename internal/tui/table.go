package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

// Sort indicators appended to the active header.
const (
	arrowAsc  = " ▲"
	arrowDesc = " ▼"
)

// HeaderLabels returns the header row, with a sort arrow on the active column.
func HeaderLabels(model core.ComparisonModel) []string {
	labels := make([]string, len(model.Headers))
	for i, h := range model.Headers {
		labels[i] = h.Label
		switch h.Sort {
		case core.SortAsc:
			labels[i] += arrowAsc
		case core.SortDesc:
			labels[i] += arrowDesc
		}
	}
	return labels
}

// RenderComparison paints the comparison table. Best values are green and
// worst values red. An empty model renders as "".
func RenderComparison(model core.ComparisonModel, width int) string {
	if model.Empty() {
		return ""
	}

	rows := make([][]string, len(model.Rows))
	for i, row := range model.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.Display
		}
		rows[i] = cells
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers(HeaderLabels(model)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			if row < 0 || row >= len(model.Rows) || col >= len(model.Rows[row].Cells) {
				return cellStyle
			}
			switch model.Rows[row].Cells[col].Mark {
			case core.MarkBest:
				return bestCellStyle
			case core.MarkWorst:
				return worstCellStyle
			default:
				return cellStyle
			}
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.Render()
}
