package normalizer

import (
	"strings"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

const (
	unitDollars   int64 = 1
	unitThousands int64 = 1000
)

// DetectMultiplier scans the top-left region of the detail sheet for a unit
// label. "thousand" wins over "dollar" because labels usually read
// "in thousands of dollars". Without a label the amounts are dollars and
// detected is false.
func DetectMultiplier(detail *entity.Sheet, maxRows, maxCols int) (multiplier int64, detected bool) {
	if detail == nil {
		return unitDollars, false
	}
	sawDollar := false
	for r := 0; r < maxRows && r < len(detail.Rows); r++ {
		for c := 0; c < maxCols; c++ {
			cell := strings.ToLower(detail.Cell(r, c))
			if cell == "" {
				continue
			}
			if strings.Contains(cell, "thousand") {
				return unitThousands, true
			}
			if strings.Contains(cell, "dollar") {
				sawDollar = true
			}
		}
	}
	return unitDollars, sawDollar
}
