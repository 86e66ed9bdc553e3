// Package tafs parses Treasury Appropriation Fund Symbols as they appear in
// SF133 extracts. Two grammars exist, one per agency layout; both return the
// same entity.FundSymbol.
package tafs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

const descriptionSeparator = " - "

var (
	numericSegment = regexp.MustCompile(`^\d+$`)
	// /X, /NN, NN/MM, NN/X
	periodMarker = regexp.MustCompile(`^(\d{2})?/(\d{2}|X)$`)
)

// ParseError describes a fund symbol that fits neither grammar.
type ParseError struct {
	Text   string
	Layout entity.LayoutType
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s fund symbol %q: %s", e.Layout, e.Text, e.Reason)
}

// Parse decomposes text with the grammar selected by layout.
func Parse(text string, layout entity.LayoutType) (entity.FundSymbol, error) {
	switch layout {
	case entity.LayoutCatchAll:
		return parseCatchAll(text)
	default:
		return parseStandard(text)
	}
}

// parseStandard: <code> [<period>] [ - <description>], code = 2 or 3
// hyphen-joined numeric segments.
func parseStandard(text string) (entity.FundSymbol, error) {
	sym := entity.FundSymbol{Text: strings.TrimSpace(text), Layout: entity.LayoutStandard}
	codePart, description := splitDescription(sym.Text)
	sym.Description = description

	tokens := strings.Fields(codePart)
	if len(tokens) == 0 {
		return sym, &ParseError{Text: text, Layout: entity.LayoutStandard, Reason: "empty account code"}
	}
	if len(tokens) > 2 {
		return sym, &ParseError{Text: text, Layout: entity.LayoutStandard, Reason: fmt.Sprintf("unexpected token %q", tokens[2])}
	}

	segments := strings.Split(tokens[0], "-")
	if len(segments) != 2 && len(segments) != 3 {
		return sym, &ParseError{Text: text, Layout: entity.LayoutStandard, Reason: fmt.Sprintf("account code has %d segments", len(segments))}
	}
	for _, seg := range segments {
		if !numericSegment.MatchString(seg) {
			return sym, &ParseError{Text: text, Layout: entity.LayoutStandard, Reason: fmt.Sprintf("non-numeric segment %q", seg)}
		}
	}
	sym.AccountNumber = tokens[0]
	if len(segments) == 3 {
		sym.AllocationCode = segments[1]
	} else {
		sym.AllocationCode = segments[0]
	}

	if len(tokens) == 2 {
		begin, end, err := parsePeriod(tokens[1])
		if err != nil {
			return sym, &ParseError{Text: text, Layout: entity.LayoutStandard, Reason: err.Error()}
		}
		sym.BeginPeriod, sym.EndPeriod = begin, end
	}
	return sym, nil
}

// parseCatchAll: whitespace tokens, first is the account identifier, the
// optional second one the period marker. Further tokens are ignored.
func parseCatchAll(text string) (entity.FundSymbol, error) {
	sym := entity.FundSymbol{Text: strings.TrimSpace(text), Layout: entity.LayoutCatchAll}
	codePart, description := splitDescription(sym.Text)
	sym.Description = description

	tokens := strings.Fields(codePart)
	if len(tokens) == 0 {
		return sym, &ParseError{Text: text, Layout: entity.LayoutCatchAll, Reason: "empty account code"}
	}
	sym.AccountNumber = tokens[0]
	sym.AllocationCode = tokens[0]

	if len(tokens) >= 2 {
		begin, end, err := parsePeriod(tokens[1])
		if err != nil {
			return sym, &ParseError{Text: text, Layout: entity.LayoutCatchAll, Reason: err.Error()}
		}
		sym.BeginPeriod, sym.EndPeriod = begin, end
	}
	return sym, nil
}

func splitDescription(text string) (code, description string) {
	if i := strings.Index(text, descriptionSeparator); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+len(descriptionSeparator):])
	}
	return strings.TrimSpace(text), ""
}

func parsePeriod(token string) (begin, end string, err error) {
	m := periodMarker.FindStringSubmatch(strings.ToUpper(token))
	if m == nil {
		return "", "", fmt.Errorf("invalid period marker %q", token)
	}
	return m[1], m[2], nil
}

// Compose builds the fund symbol text for rows that only carry the
// Treasury agency/account columns: "TRAG-TRACCT [FY1]/FY2".
func Compose(agencyCode, accountCode, begin, end string) string {
	agencyCode = NormalizeField(agencyCode)
	accountCode = decimalSuffix.ReplaceAllString(strings.TrimSpace(accountCode), "")
	if agencyCode == "" || accountCode == "" {
		return ""
	}
	if numericSegment.MatchString(accountCode) && len(accountCode) < 4 {
		accountCode = strings.Repeat("0", 4-len(accountCode)) + accountCode
	}
	text := padTwo(agencyCode) + "-" + accountCode
	end = shortYear(NormalizeField(end))
	if end == "" {
		return text
	}
	return text + " " + shortYear(NormalizeField(begin)) + "/" + end
}

func padTwo(s string) string {
	if len(s) == 1 && numericSegment.MatchString(s) {
		return "0" + s
	}
	return s
}

func shortYear(s string) string {
	if len(s) == 4 && strings.HasPrefix(s, "20") {
		return s[2:]
	}
	return padTwo(s)
}
