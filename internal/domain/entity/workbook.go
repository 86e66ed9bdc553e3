package entity

// Sheet holds the cell text of one worksheet, row-major. Row 0 is the
// header for raw-data sheets.
type Sheet struct {
	Name string
	Rows [][]string
}

// Cell returns the cell text, or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if s == nil || row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Workbook is one source extract as read from disk.
type Workbook struct {
	FileName string
	RawData  *Sheet
	// Detail is the optional companion sheet used for unit sniffing.
	Detail *Sheet
}
