package entity

import (
	"fmt"
	"strings"
)

// LayoutType selects the TAFS grammar and the summary join key for an agency.
type LayoutType int

const (
	// LayoutStandard é o layout das agências comuns.
	LayoutStandard LayoutType = iota
	// LayoutCatchAll é o layout "Other Independent Agencies".
	LayoutCatchAll
)

func (l LayoutType) String() string {
	switch l {
	case LayoutCatchAll:
		return "catch-all"
	default:
		return "standard"
	}
}

// MarshalText renders the layout name in JSON output.
func (l LayoutType) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (l *LayoutType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "standard":
		*l = LayoutStandard
	case "catch-all":
		*l = LayoutCatchAll
	default:
		return fmt.Errorf("unknown layout %q", text)
	}
	return nil
}

// SourceLayout is the amount-column variant detected in one workbook.
type SourceLayout int

const (
	SourceLayoutUnknown SourceLayout = iota
	// SourceLayoutMonthly carries per-month columns (possibly with quarterly ones too).
	SourceLayoutMonthly
	// SourceLayoutQuarterly carries only quarter-end cumulative columns.
	SourceLayoutQuarterly
	// SourceLayoutSingleMonth carries exactly one month column (FY2012 extracts).
	SourceLayoutSingleMonth
)

func (s SourceLayout) String() string {
	switch s {
	case SourceLayoutMonthly:
		return "monthly"
	case SourceLayoutQuarterly:
		return "quarterly"
	case SourceLayoutSingleMonth:
		return "single-month"
	default:
		return "unknown"
	}
}

// MarshalText renders the source layout name in JSON output.
func (s SourceLayout) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *SourceLayout) UnmarshalText(text []byte) error {
	for _, candidate := range []SourceLayout{SourceLayoutUnknown, SourceLayoutMonthly, SourceLayoutQuarterly, SourceLayoutSingleMonth} {
		if strings.EqualFold(strings.TrimSpace(string(text)), candidate.String()) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown source layout %q", text)
}
