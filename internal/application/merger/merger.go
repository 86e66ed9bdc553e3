// Package merger joins the unobligated balance and budget authority lines
// of a year table into one AccountSummaryRecord per account.
package merger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

var (
	hundred = decimal.NewFromInt(100)
	million = decimal.NewFromInt(1_000_000)
	printer = message.NewPrinter(language.AmericanEnglish)
)

// Merger is configured with the two line numbers it joins.
type Merger struct {
	unobligatedLine int
	authorityLine   int
	asOf            *entity.Month
}

// New creates a Merger. asOf ("Jun") forces the summary month; empty selects
// the latest month with data.
func New(lines types.LineConfig, asOf string) (*Merger, error) {
	m := &Merger{
		unobligatedLine: lines.UnobligatedBalance,
		authorityLine:   lines.BudgetAuthority,
	}
	if strings.TrimSpace(asOf) != "" {
		month, err := entity.ParseMonth(asOf)
		if err != nil {
			return nil, fmt.Errorf("%w: as_of_month: %v", types.ErrInvalidConfig, err)
		}
		m.asOf = &month
	}
	return m, nil
}

// Result is the merged summary of one year.
type Result struct {
	Records []entity.AccountSummaryRecord
	Stats   entity.MergeStats
}

// side is one line of a join key, duplicates already summed.
type side struct {
	acct  entity.AggregatedAccount
	value decimal.Decimal
	has   bool
}

// AsOfMonth returns the configured month or, when unset, the latest fiscal
// month that has a reported amount in table.
func (m *Merger) AsOfMonth(table *entity.YearTable) (entity.Month, bool) {
	if m.asOf != nil {
		return *m.asOf, true
	}
	months := table.Months
	if len(months) == 0 {
		months = table.MonthTotals().Months()
	}
	if len(months) == 0 {
		return 0, false
	}
	return months[len(months)-1], true
}

// Merge builds the summary records of table.
func (m *Merger) Merge(table *entity.YearTable) (*Result, error) {
	res := &Result{}
	month, ok := m.AsOfMonth(table)
	if !ok {
		return res, fmt.Errorf("FY%d: %w", table.FiscalYear, types.ErrNoSummaryRecords)
	}
	res.Stats.AsOfMonth = month

	unobligated := map[string]*side{}
	authority := map[string]*side{}
	seen := map[string]bool{}
	var order []string
	for _, acct := range table.Accounts {
		var target map[string]*side
		switch acct.Key.LineNumber {
		case m.unobligatedLine:
			target = unobligated
			res.Stats.UnobligatedRows++
		case m.authorityLine:
			target = authority
			res.Stats.AuthorityRows++
		default:
			continue
		}
		key := JoinKey(acct)
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
		v, has := acct.Amounts.Get(month)
		s, ok := target[key]
		if !ok {
			target[key] = &side{acct: acct, value: v, has: has}
			continue
		}
		res.Stats.DuplicateKeys++
		if has {
			s.value = s.value.Add(v)
			s.has = true
		}
	}

	for _, key := range order {
		u, hasU := unobligated[key]
		a, hasA := authority[key]
		switch {
		case !hasU:
			res.Stats.OnlyAuthority++
			continue
		case !hasA:
			res.Stats.OnlyUnobligated++
			continue
		case !u.has || !a.has:
			res.Stats.MissingMonth++
			continue
		}
		res.Stats.Matched++
		res.Records = append(res.Records, record(u.acct, u.value, a.value))
	}

	if len(res.Records) == 0 {
		return res, fmt.Errorf("FY%d: %w", table.FiscalYear, types.ErrNoSummaryRecords)
	}
	sortRecords(res.Records)
	return res, nil
}

// JoinKey pairs the two lines of one account. Catch-all agencies have no
// reliable bureau or account code, so only the fund symbol text is used.
func JoinKey(acct entity.AggregatedAccount) string {
	text := acct.FundSymbol.Text
	if acct.Layout == entity.LayoutCatchAll {
		return acct.Key.Agency + "\x1f" + text
	}
	return strings.Join([]string{acct.Key.Agency, acct.Key.Bureau, acct.AccountCode, text}, "\x1f")
}

// Percent is balance / authority * 100. Both zero yields 0 and a zero
// authority with a balance yields 100. Values outside 0..100 are kept.
func Percent(balance, authority decimal.Decimal) decimal.Decimal {
	switch {
	case authority.IsZero() && balance.IsZero():
		return decimal.Zero
	case authority.IsZero():
		return hundred
	default:
		return balance.Div(authority).Mul(hundred)
	}
}

func record(acct entity.AggregatedAccount, balance, authority decimal.Decimal) entity.AccountSummaryRecord {
	sym := acct.FundSymbol
	display := sym.Description
	if display == "" {
		display = acct.AccountCode
	}
	if display == "" {
		display = sym.AccountNumber
	}
	bureau := acct.Key.Bureau
	if acct.Layout == entity.LayoutCatchAll {
		bureau = catchAllBureau(acct, display)
	}
	pct := Percent(balance, authority)
	return entity.AccountSummaryRecord{
		Agency:                    acct.Key.Agency,
		Bureau:                    bureau,
		AccountDisplayName:        display,
		AccountNumber:             sym.AccountNumber,
		PeriodOfPerformance:       sym.PeriodOfPerformance(),
		ExpirationYear:            sym.ExpirationYear(),
		FundSymbol:                sym.Text,
		Layout:                    acct.Layout,
		UnobligatedBalance:        balance,
		BudgetAuthority:           authority,
		PercentUnobligated:        pct,
		UnobligatedBalanceDisplay: FormatMillions(balance),
		BudgetAuthorityDisplay:    FormatMillions(authority),
		PercentUnobligatedDisplay: FormatPercent(pct),
	}
}

func catchAllBureau(acct entity.AggregatedAccount, display string) string {
	if acct.Key.Bureau != "" {
		return acct.Key.Bureau
	}
	if code := strings.TrimSpace(acct.AccountCode); code != "" {
		if i := strings.IndexAny(code, " \t"); i >= 0 {
			if rest := strings.TrimSpace(code[i:]); rest != "" {
				return rest
			}
		}
	}
	return display
}

// FormatMillions renders dollars as "$1,234.5M".
func FormatMillions(v decimal.Decimal) string {
	m, _ := v.Div(million).Round(1).Float64()
	if m < 0 {
		return printer.Sprintf("-$%.1fM", -m)
	}
	return printer.Sprintf("$%.1fM", m)
}

// FormatPercent renders "12.3%".
func FormatPercent(v decimal.Decimal) string {
	return v.StringFixed(1) + "%"
}

func sortRecords(records []entity.AccountSummaryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.Agency != b.Agency:
			return a.Agency < b.Agency
		case !a.BudgetAuthority.Equal(b.BudgetAuthority):
			return a.BudgetAuthority.GreaterThan(b.BudgetAuthority)
		case a.FundSymbol != b.FundSymbol:
			return a.FundSymbol < b.FundSymbol
		default:
			return a.AccountNumber < b.AccountNumber
		}
	})
}
