package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Month é um mês do ano fiscal federal, em ordem fiscal (Oct = 0 ... Sep = 11).
type Month int

const (
	Oct Month = iota
	Nov
	Dec
	Jan
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
)

var monthNames = [...]string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep"}

// FiscalMonths lists the twelve canonical month keys, October through September.
func FiscalMonths() []Month {
	months := make([]Month, len(monthNames))
	for i := range monthNames {
		months[i] = Month(i)
	}
	return months
}

// String returns the three-letter abbreviation.
func (m Month) String() string {
	if m < Oct || m > Sep {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthNames[m]
}

// Valid reports whether m is one of the twelve fiscal months.
func (m Month) Valid() bool {
	return m >= Oct && m <= Sep
}

// ParseMonth converte uma abreviação ("Oct", "oct", "OCT") em Month.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	for i, name := range monthNames {
		if strings.EqualFold(name, s) {
			return Month(i), nil
		}
	}
	return 0, fmt.Errorf("unknown fiscal month %q", s)
}

// MarshalText allows months to be used as JSON object keys.
func (m Month) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid month %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Amounts is a sparse month → amount map. A missing key means the month
// was not reported; an explicit zero is a reported zero.
type Amounts map[Month]decimal.Decimal

// Add accumulates v into month m.
func (a Amounts) Add(m Month, v decimal.Decimal) {
	if cur, ok := a[m]; ok {
		a[m] = cur.Add(v)
		return
	}
	a[m] = v
}

// Get returns the amount for m and whether it was reported.
func (a Amounts) Get(m Month) (decimal.Decimal, bool) {
	v, ok := a[m]
	return v, ok
}

// Clone returns an independent copy.
func (a Amounts) Clone() Amounts {
	out := make(Amounts, len(a))
	for m, v := range a {
		out[m] = v
	}
	return out
}

// Months returns the reported months in fiscal order.
func (a Amounts) Months() []Month {
	var months []Month
	for _, m := range FiscalMonths() {
		if _, ok := a[m]; ok {
			months = append(months, m)
		}
	}
	return months
}
