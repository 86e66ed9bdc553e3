// Package aggregator groups normalized line items into one AggregatedAccount
// per account key, summing amounts and cross-validating parsed fund symbols.
package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/tafs"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// Result is the outcome of one aggregation pass.
type Result struct {
	Accounts []entity.AggregatedAccount
	// RowsIn counts the rows that were grouped (exclusions not included).
	RowsIn           int
	Excluded         map[string]int
	Validation       entity.ValidationSummary
	CompressionRatio float64
	Warnings         []string
}

// Err returns a *types.ValidationError when any fund symbol disagreed with
// its authoritative columns.
func (r *Result) Err(fiscalYear int) error {
	if len(r.Validation.Mismatches) == 0 {
		return nil
	}
	return &types.ValidationError{FiscalYear: fiscalYear, Mismatches: r.Validation.Mismatches}
}

// Aggregator reduces line items to unique account keys.
type Aggregator struct {
	warnRatio float64
}

// New creates an Aggregator that warns when rows-in / groups-out exceeds warnRatio.
func New(warnRatio float64) *Aggregator {
	return &Aggregator{warnRatio: warnRatio}
}

// Aggregate groups items. Amounts are summed, everything else keeps the
// first observed value. Output is sorted by key.
func (a *Aggregator) Aggregate(items []entity.RawLineItem) *Result {
	res := &Result{
		Excluded:   map[string]int{},
		Validation: entity.ValidationSummary{Passed: true},
	}
	groups := map[string]*entity.AggregatedAccount{}

	for _, item := range items {
		if strings.TrimSpace(item.FundSymbolText) == "" {
			res.Excluded[entity.ExcludedMissingKey]++
			continue
		}
		sym, err := tafs.Parse(item.FundSymbolText, item.Layout)
		if err != nil {
			res.Excluded[entity.ExcludedUnparseableSymbol]++
			if !item.FundSymbolComposed && !item.Authoritative.Empty() {
				res.Validation.Checked++
				res.Validation.Mismatches = append(res.Validation.Mismatches, entity.FundSymbolMismatch{
					SourceFile:    item.SourceFile,
					SourceRow:     item.SourceRow,
					FundSymbol:    item.FundSymbolText,
					Field:         tafs.FieldGrammar,
					Parsed:        err.Error(),
					Authoritative: authoritativeString(item.Authoritative),
				})
			}
			continue
		}

		if !item.FundSymbolComposed && !item.Authoritative.Empty() {
			res.Validation.Checked++
			for _, m := range tafs.Validate(sym, item.Authoritative) {
				res.Validation.Mismatches = append(res.Validation.Mismatches, entity.FundSymbolMismatch{
					SourceFile:    item.SourceFile,
					SourceRow:     item.SourceRow,
					FundSymbol:    item.FundSymbolText,
					Field:         m.Field,
					Parsed:        m.Parsed,
					Authoritative: m.Authoritative,
				})
			}
		}

		key, ok := KeyOf(item, sym)
		if !ok {
			res.Excluded[entity.ExcludedMissingKey]++
			continue
		}
		res.RowsIn++

		id := key.String()
		acct, seen := groups[id]
		if !seen {
			groups[id] = newAccount(key, item, sym)
			continue
		}
		acct.RowCount++
		for m, v := range item.Amounts {
			acct.Amounts.Add(m, v)
		}
		mergeFirst(acct, item, sym)
	}

	res.Validation.Passed = len(res.Validation.Mismatches) == 0
	res.Accounts = sortedAccounts(groups)

	if len(res.Accounts) > 0 {
		res.CompressionRatio = float64(res.RowsIn) / float64(len(res.Accounts))
		if a.warnRatio > 0 && res.CompressionRatio > a.warnRatio {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"compression ratio %.1f:1 exceeds %.0f:1 (%d rows into %d groups); the account key may not be discriminating enough",
				res.CompressionRatio, a.warnRatio, res.RowsIn, len(res.Accounts)))
		}
	}
	return res
}

// KeyOf builds the aggregation key of item. ok is false when a required
// component (bureau, account number, allocation code) is missing. Periods
// may be absent for annual funds. Catch-all extracts often leave BUREAU
// blank, so bureau is optional for that layout.
func KeyOf(item entity.RawLineItem, sym entity.FundSymbol) (entity.AccountKey, bool) {
	key := entity.AccountKey{
		Agency:         item.Agency,
		Bureau:         strings.TrimSpace(item.Bureau),
		AccountNumber:  sym.AccountNumber,
		LineNumber:     item.LineNumber,
		BeginPeriod:    sym.BeginPeriod,
		EndPeriod:      sym.EndPeriod,
		AllocationCode: sym.AllocationCode,
		Discriminators: discriminatorString(item.Discriminators),
	}
	if (key.Bureau == "" && item.Layout != entity.LayoutCatchAll) || key.AccountNumber == "" || key.AllocationCode == "" || key.LineNumber == 0 {
		return key, false
	}
	return key, true
}

func authoritativeString(a entity.Authoritative) string {
	return fmt.Sprintf("FY1=%s FY2=%s ALLOC=%s", a.BeginPeriod, a.EndPeriod, a.AllocationCode)
}

func discriminatorString(ds []entity.Discriminator) string {
	if len(ds) == 0 {
		return ""
	}
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.Column + "=" + d.Value
	}
	return strings.Join(parts, "|")
}

func newAccount(key entity.AccountKey, item entity.RawLineItem, sym entity.FundSymbol) *entity.AggregatedAccount {
	acct := &entity.AggregatedAccount{
		Key:            key,
		AccountCode:    item.AccountCode,
		FundSymbol:     sym,
		Layout:         item.Layout,
		SourceFile:     item.SourceFile,
		RowCount:       1,
		Amounts:        item.Amounts.Clone(),
		Discriminators: append([]entity.Discriminator(nil), item.Discriminators...),
	}
	if len(item.Attributes) > 0 {
		acct.Attributes = make(map[string]string, len(item.Attributes))
		for k, v := range item.Attributes {
			acct.Attributes[k] = v
		}
	}
	return acct
}

// mergeFirst fills fields still empty on acct; non-empty values are never replaced.
func mergeFirst(acct *entity.AggregatedAccount, item entity.RawLineItem, sym entity.FundSymbol) {
	if acct.AccountCode == "" {
		acct.AccountCode = item.AccountCode
	}
	if acct.FundSymbol.Description == "" && sym.Description != "" {
		acct.FundSymbol.Description = sym.Description
	}
	for k, v := range item.Attributes {
		if acct.Attributes == nil {
			acct.Attributes = map[string]string{}
		}
		if _, ok := acct.Attributes[k]; !ok {
			acct.Attributes[k] = v
		}
	}
}

func sortedAccounts(groups map[string]*entity.AggregatedAccount) []entity.AggregatedAccount {
	out := make([]entity.AggregatedAccount, 0, len(groups))
	for _, acct := range groups {
		out = append(out, *acct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
