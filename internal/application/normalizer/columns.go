package normalizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// header maps upper-cased column names to their index.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, name := range row {
		key := canonicalColumn(name)
		if key == "" {
			continue
		}
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

func canonicalColumn(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// index returns the column position of name, or -1.
func (h header) index(name string) int {
	if name == "" {
		return -1
	}
	if i, ok := h[canonicalColumn(name)]; ok {
		return i
	}
	return -1
}

// amountColumns is the resolved month → column mapping of one sheet.
type amountColumns struct {
	byMonth   map[entity.Month]int
	monthly   int
	quarterly int
}

// resolveAmountColumns applies the configured lookup tables to a header.
// Quarterly columns are applied first so a direct monthly column wins for
// the same month.
func resolveAmountColumns(h header, cfg *types.Config) (amountColumns, error) {
	ac := amountColumns{byMonth: map[entity.Month]int{}}

	for _, col := range sortedKeys(cfg.QuarterColumns) {
		idx := h.index(col)
		if idx < 0 {
			continue
		}
		m, err := entity.ParseMonth(cfg.QuarterColumns[col])
		if err != nil {
			return ac, fmt.Errorf("quarter column %s: %w", col, err)
		}
		ac.byMonth[m] = idx
		ac.quarterly++
	}
	for _, col := range sortedKeys(cfg.MonthColumns) {
		idx := h.index(col)
		if idx < 0 {
			continue
		}
		m, err := entity.ParseMonth(cfg.MonthColumns[col])
		if err != nil {
			return ac, fmt.Errorf("month column %s: %w", col, err)
		}
		ac.byMonth[m] = idx
		ac.monthly++
	}
	return ac, nil
}

// layout classifies the sheet:
// one monthly column and nothing else is a single-month extract.
func (ac amountColumns) layout() entity.SourceLayout {
	switch {
	case ac.monthly == 1 && ac.quarterly == 0:
		return entity.SourceLayoutSingleMonth
	case ac.monthly > 0:
		return entity.SourceLayoutMonthly
	case ac.quarterly > 0:
		return entity.SourceLayoutQuarterly
	default:
		return entity.SourceLayoutUnknown
	}
}

// months returns the mapped months in fiscal order.
func (ac amountColumns) months() []entity.Month {
	var out []entity.Month
	for _, m := range entity.FiscalMonths() {
		if _, ok := ac.byMonth[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// isAmountColumn reports whether column idx feeds a month.
func (ac amountColumns) isAmountColumn(idx int) bool {
	for _, i := range ac.byMonth {
		if i == idx {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
