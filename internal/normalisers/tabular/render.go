package tabular

import (
	"strconv"
	"strings"
)

// renderSheet writes one sheet. name may be empty for single-table formats.
func renderSheet(b *strings.Builder, name string, rows [][]string) {
	rows = trimEmptyRows(rows)
	if len(rows) == 0 {
		return
	}

	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	if name != "" {
		b.WriteString("Sheet: ")
		b.WriteString(name)
		b.WriteByte('\n')
	}

	header := rows[0]
	if len(rows) == 1 {
		b.WriteString(strings.Join(cleanCells(header), ", "))
		return
	}

	for i, row := range rows[1:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderRow(header, row))
	}
}

// renderRow pairs each cell with its column name. Unnamed columns fall back
// to their 1-based position and empty cells are left out.
func renderRow(header, row []string) string {
	pairs := make([]string, 0, len(row))
	for col, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		name := ""
		if col < len(header) {
			name = strings.TrimSpace(header[col])
		}
		if name == "" {
			name = "column " + strconv.Itoa(col+1)
		}
		pairs = append(pairs, name+": "+cell)
	}
	return strings.Join(pairs, "; ")
}

func cleanCells(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func trimEmptyRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		if len(cleanCells(row)) > 0 {
			out = append(out, row)
		}
	}
	return out
}
