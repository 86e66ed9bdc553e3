package entity

import (
	"sort"
	"strconv"
	"strings"
)

// AccountKey identifies one aggregated account/line/period/allocation.
type AccountKey struct {
	Agency         string
	Bureau         string
	AccountNumber  string
	LineNumber     int
	BeginPeriod    string
	EndPeriod      string
	AllocationCode string
	// Discriminators is the canonical "COL=value|COL=value" rendering.
	Discriminators string
}

// String renders the key; used for sorting and map lookups.
func (k AccountKey) String() string {
	return strings.Join([]string{
		k.Agency,
		k.Bureau,
		k.AccountNumber,
		strconv.Itoa(k.LineNumber),
		k.BeginPeriod,
		k.EndPeriod,
		k.AllocationCode,
		k.Discriminators,
	}, "\x1f")
}

// Less orders keys field by field.
func (k AccountKey) Less(o AccountKey) bool {
	switch {
	case k.Agency != o.Agency:
		return k.Agency < o.Agency
	case k.Bureau != o.Bureau:
		return k.Bureau < o.Bureau
	case k.AccountNumber != o.AccountNumber:
		return k.AccountNumber < o.AccountNumber
	case k.LineNumber != o.LineNumber:
		return k.LineNumber < o.LineNumber
	case k.BeginPeriod != o.BeginPeriod:
		return k.BeginPeriod < o.BeginPeriod
	case k.EndPeriod != o.EndPeriod:
		return k.EndPeriod < o.EndPeriod
	case k.AllocationCode != o.AllocationCode:
		return k.AllocationCode < o.AllocationCode
	default:
		return k.Discriminators < o.Discriminators
	}
}

// AggregatedAccount is one row per unique AccountKey with summed amounts.
type AggregatedAccount struct {
	Key            AccountKey
	AccountCode    string
	FundSymbol     FundSymbol
	Layout         LayoutType
	SourceFile     string
	RowCount       int
	Amounts        Amounts
	Attributes     map[string]string
	Discriminators []Discriminator
}

// YearTable is the normalized, aggregated table of one fiscal year.
type YearTable struct {
	FiscalYear int
	Accounts   []AggregatedAccount
	// Months are the months with at least one reported amount, in fiscal order.
	Months []Month
}

// MonthTotals sums every account's amount per month.
func (t *YearTable) MonthTotals() Amounts {
	totals := Amounts{}
	for _, acct := range t.Accounts {
		for m, v := range acct.Amounts {
			totals.Add(m, v)
		}
	}
	return totals
}

// Agencies returns the distinct agencies, sorted.
func (t *YearTable) Agencies() []string {
	seen := map[string]bool{}
	var out []string
	for _, acct := range t.Accounts {
		if !seen[acct.Key.Agency] {
			seen[acct.Key.Agency] = true
			out = append(out, acct.Key.Agency)
		}
	}
	sort.Strings(out)
	return out
}
