package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrNoWorkbooks         = errors.New("no workbook files found in source directory")
	ErrNoRowsExtracted     = errors.New("no rows extracted from any workbook")
	ErrMissingRawDataSheet = errors.New("workbook has no raw data sheet")
	ErrEmptySheet          = errors.New("raw data sheet is empty")
	ErrNoAmountColumns     = errors.New("raw data sheet has no recognized month or quarter column")
	ErrMissingColumn       = errors.New("raw data sheet is missing a required column")
	ErrNoSummaryRecords    = errors.New("no account has both an unobligated balance and a budget authority line")
)

// ValidationError is returned when parsed fund symbols disagree with the
// authoritative columns. It aborts the year.
type ValidationError struct {
	FiscalYear int
	Mismatches []entity.FundSymbolMismatch
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FY%d: %d fund symbol mismatch(es) against authoritative columns", e.FiscalYear, len(e.Mismatches))
	for i, m := range e.Mismatches {
		if i == 5 {
			fmt.Fprintf(&sb, "; ... and %d more", len(e.Mismatches)-i)
			break
		}
		fmt.Fprintf(&sb, "; %s row %d %q: %s parsed=%q authoritative=%q",
			m.SourceFile, m.SourceRow, m.FundSymbol, m.Field, m.Parsed, m.Authoritative)
	}
	return sb.String()
}
