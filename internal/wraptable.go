package pmugraph

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WrapTable is a lipgloss table that flows into side by side columns when
// its rows don't fit in maxHeight lines
type WrapTable struct {
	headers   []string
	rows      [][]string
	maxHeight int
	styleFunc table.StyleFunc
}

func NewWrapTable() *WrapTable {
	return &WrapTable{}
}

func (wt *WrapTable) Headers(headers ...string) *WrapTable {
	wt.headers = headers
	return wt
}

func (wt *WrapTable) Rows(rows ...[]string) *WrapTable {
	wt.rows = rows
	return wt
}

// MaxHeight bounds the rendered height, 0 disables wrapping
func (wt *WrapTable) MaxHeight(height int) *WrapTable {
	wt.maxHeight = height
	return wt
}

// StyleFunc styles cells; row indexes refer to the rows passed to Rows
func (wt *WrapTable) StyleFunc(fn table.StyleFunc) *WrapTable {
	wt.styleFunc = fn
	return wt
}

func (wt *WrapTable) Render() string {
	if len(wt.rows) == 0 {
		return ""
	}

	// header line plus top, separator and bottom borders
	perColumn := len(wt.rows)
	if wt.maxHeight > 0 {
		perColumn = max(wt.maxHeight-4, 1)
	}

	var columns []string
	for offset := 0; offset < len(wt.rows); offset += perColumn {
		end := min(offset+perColumn, len(wt.rows))
		columns = append(columns, wt.column(offset, wt.rows[offset:end]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (wt *WrapTable) column(offset int, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(wt.headers...).
		Rows(rows...)

	if fn := wt.styleFunc; fn != nil {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return fn(row, col)
			}
			return fn(row+offset, col)
		})
	}
	return t.String()
}
