package reconciler

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

// pivotSingleMonth merges per-file tables of single-month extracts into one
// record per account. The first table (file name order) supplying a month
// wins; later values for the same account and month are counted as
// duplicates. Every month in zeroFill is set to an explicit zero where the
// account has no value.
func pivotSingleMonth(tables [][]entity.AggregatedAccount, zeroFill []entity.Month) ([]entity.AggregatedAccount, int) {
	merged, duplicates := mergeTables(tables...)
	for i := range merged {
		for _, m := range zeroFill {
			if _, ok := merged[i].Amounts[m]; !ok {
				merged[i].Amounts[m] = decimal.Zero
			}
		}
	}
	return merged, duplicates
}

// mergeTables unions already-aggregated tables by key. Absent months are
// taken from later tables; months present in both keep the earlier value.
func mergeTables(tables ...[]entity.AggregatedAccount) ([]entity.AggregatedAccount, int) {
	index := map[string]int{}
	var out []entity.AggregatedAccount
	duplicates := 0

	for _, table := range tables {
		for _, acct := range table {
			id := acct.Key.String()
			pos, seen := index[id]
			if !seen {
				clone := acct
				clone.Amounts = acct.Amounts.Clone()
				index[id] = len(out)
				out = append(out, clone)
				continue
			}
			existing := &out[pos]
			existing.RowCount += acct.RowCount
			for m, v := range acct.Amounts {
				if _, ok := existing.Amounts[m]; ok {
					duplicates++
					continue
				}
				existing.Amounts[m] = v
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, duplicates
}

func unionMonths(sets ...[]entity.Month) []entity.Month {
	seen := map[entity.Month]bool{}
	for _, set := range sets {
		for _, m := range set {
			seen[m] = true
		}
	}
	var out []entity.Month
	for _, m := range entity.FiscalMonths() {
		if seen[m] {
			out = append(out, m)
		}
	}
	return out
}
