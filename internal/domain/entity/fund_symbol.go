package entity

// NoYear is the end-period sentinel for no-year funds.
const NoYear = "X"

// FundSymbol is the structured form of a TAFS string.
type FundSymbol struct {
	Text           string     `json:"text"`
	AccountNumber  string     `json:"account_number"`
	BeginPeriod    string     `json:"begin_period,omitempty"`
	EndPeriod      string     `json:"end_period,omitempty"`
	AllocationCode string     `json:"allocation_code"`
	Description    string     `json:"description,omitempty"`
	Layout         LayoutType `json:"layout"`
}

// IsNoYear reports whether the fund has no expiration year.
func (f FundSymbol) IsNoYear() bool {
	return f.EndPeriod == NoYear
}

// PeriodOfPerformance returns the display period:
//
//	/X     -> "No Year"
//	NN/X   -> "FY20NN-No Year"
//	/NN    -> "FY20NN"
//	NN/MM  -> "FY20NN-FY20MM"
//
// Annual funds without a period marker yield "".
func (f FundSymbol) PeriodOfPerformance() string {
	switch {
	case f.EndPeriod == "":
		return ""
	case f.IsNoYear() && f.BeginPeriod == "":
		return "No Year"
	case f.IsNoYear():
		return "FY" + ExpandYear(f.BeginPeriod) + "-No Year"
	case f.BeginPeriod == "":
		return "FY" + ExpandYear(f.EndPeriod)
	default:
		return "FY" + ExpandYear(f.BeginPeriod) + "-FY" + ExpandYear(f.EndPeriod)
	}
}

// ExpirationYear returns the four-digit expiration year, "No Year" or "".
func (f FundSymbol) ExpirationYear() string {
	switch {
	case f.EndPeriod == "":
		return ""
	case f.IsNoYear():
		return "No Year"
	default:
		return ExpandYear(f.EndPeriod)
	}
}

// ExpandYear prefixes two-digit years with "20".
func ExpandYear(yy string) string {
	if len(yy) == 2 {
		return "20" + yy
	}
	return yy
}
