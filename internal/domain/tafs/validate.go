package tafs

import (
	"regexp"
	"strings"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

// Validated field names, as reported in mismatches.
const (
	FieldBeginPeriod    = "begin_period"
	FieldEndPeriod      = "end_period"
	FieldAllocationCode = "allocation_code"
	// FieldGrammar marks a fund symbol that fits no grammar on a row
	// carrying authoritative values.
	FieldGrammar = "grammar"
)

var decimalSuffix = regexp.MustCompile(`\.0+$`)

// Mismatch is one parsed value that disagrees with its authoritative column.
type Mismatch struct {
	Field         string
	Parsed        string
	Authoritative string
}

// NormalizeField makes parsed and authoritative values comparable:
// whitespace trimmed, "X" upper-cased, "12.0" -> "12", "012" -> "12".
func NormalizeField(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = decimalSuffix.ReplaceAllString(s, "")
	if numericSegment.MatchString(s) {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
	}
	return s
}

// Validate compares sym against the authoritative values present on its
// source row. Blank authoritative cells are not checked. The allocation
// code is only derived, and so only checked, for the standard layout.
func Validate(sym entity.FundSymbol, auth entity.Authoritative) []Mismatch {
	var out []Mismatch
	check := func(field, parsed, authoritative string) {
		want := NormalizeField(authoritative)
		if want == "" {
			return
		}
		if got := NormalizeField(parsed); got != want {
			out = append(out, Mismatch{Field: field, Parsed: parsed, Authoritative: authoritative})
		}
	}
	check(FieldBeginPeriod, sym.BeginPeriod, auth.BeginPeriod)
	check(FieldEndPeriod, sym.EndPeriod, auth.EndPeriod)
	if sym.Layout == entity.LayoutStandard {
		check(FieldAllocationCode, sym.AllocationCode, auth.AllocationCode)
	}
	return out
}
