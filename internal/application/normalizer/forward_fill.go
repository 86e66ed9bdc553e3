package normalizer

import (
	"regexp"
	"strings"
)

// Cells that look like a line number ("2490", "2490.0") are never filled
// and never become the carried value.
var lineNumberCell = regexp.MustCompile(`^\d{4}(\.\d+)?$`)

// forwardFill carries the last non-blank value of each listed column down
// into blank cells. rows is modified in place; short rows are extended.
func forwardFill(rows [][]string, columns []int) {
	for _, col := range columns {
		if col < 0 {
			continue
		}
		last := ""
		for r := range rows {
			for len(rows[r]) <= col {
				rows[r] = append(rows[r], "")
			}
			cell := strings.TrimSpace(rows[r][col])
			switch {
			case lineNumberCell.MatchString(cell):
				// left as-is
			case cell == "":
				rows[r][col] = last
			default:
				last = cell
			}
		}
	}
}
