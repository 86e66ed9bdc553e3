// Package normalizer turns one SF133 workbook into RawLineItem candidates:
// unit detection, column mapping onto the fiscal month vocabulary,
// forward-fill of descriptive columns and line-number filtering.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/tafs"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// Result is the normalized content of one workbook.
type Result struct {
	File     entity.FileResult
	Items    []entity.RawLineItem
	Excluded map[string]int
	// Composed counts rows whose fund symbol was built from TRAG/TRACCT.
	Composed int
}

// Normalizer holds the immutable lookup tables it works with.
type Normalizer struct {
	cfg      *types.Config
	agencies *AgencyResolver
	never    map[string]bool
}

// New creates a Normalizer for cfg.
func New(cfg *types.Config) *Normalizer {
	never := make(map[string]bool, len(cfg.Columns.NeverScale))
	for _, col := range cfg.Columns.NeverScale {
		never[canonicalColumn(col)] = true
	}
	return &Normalizer{
		cfg:      cfg,
		agencies: NewAgencyResolver(cfg.Agencies),
		never:    never,
	}
}

// columnSet is the resolved position of every named column (-1 if absent).
type columnSet struct {
	agency, bureau, accountCode, lineNumber, fundSymbol int
	begin, end, allocation, trag, tracct                int
	discriminators                                      []int
	discriminatorNames                                  []string
}

func (n *Normalizer) resolveColumns(h header) columnSet {
	c := n.cfg.Columns
	cs := columnSet{
		agency:      h.index(c.Agency),
		bureau:      h.index(c.Bureau),
		accountCode: h.index(c.AccountCode),
		lineNumber:  h.index(c.LineNumber),
		fundSymbol:  h.index(c.FundSymbol),
		begin:       h.index(c.BeginPeriod),
		end:         h.index(c.EndPeriod),
		allocation:  h.index(c.AllocationCode),
		trag:        h.index(c.TreasuryAgency),
		tracct:      h.index(c.TreasuryAccount),
	}
	for _, name := range c.Discriminators {
		if idx := h.index(name); idx >= 0 {
			cs.discriminators = append(cs.discriminators, idx)
			cs.discriminatorNames = append(cs.discriminatorNames, canonicalColumn(name))
		}
	}
	return cs
}

// identity reports whether idx is one of the named columns.
func (cs columnSet) identity(idx int) bool {
	for _, i := range []int{cs.agency, cs.bureau, cs.accountCode, cs.lineNumber, cs.fundSymbol, cs.begin, cs.end, cs.allocation, cs.trag, cs.tracct} {
		if i == idx {
			return true
		}
	}
	for _, i := range cs.discriminators {
		if i == idx {
			return true
		}
	}
	return false
}

// Normalize extracts the line items of wb. Errors mean the workbook is not
// ingestable and must be skipped by the caller.
func (n *Normalizer) Normalize(wb *entity.Workbook) (*Result, error) {
	res := &Result{
		File: entity.FileResult{
			Name:       wb.FileName,
			Multiplier: unitDollars,
			Status:     entity.FileSkipped,
		},
		Excluded: map[string]int{},
	}
	if wb.RawData == nil {
		return res, types.ErrMissingRawDataSheet
	}
	if len(wb.RawData.Rows) < 2 {
		return res, types.ErrEmptySheet
	}

	h := newHeader(wb.RawData.Rows[0])
	cols := n.resolveColumns(h)
	if cols.lineNumber < 0 {
		return res, fmt.Errorf("%w: %s", types.ErrMissingColumn, n.cfg.Columns.LineNumber)
	}
	if cols.fundSymbol < 0 && (cols.trag < 0 || cols.tracct < 0) {
		return res, fmt.Errorf("%w: %s", types.ErrMissingColumn, n.cfg.Columns.FundSymbol)
	}
	amounts, err := resolveAmountColumns(h, n.cfg)
	if err != nil {
		return res, err
	}
	if len(amounts.byMonth) == 0 {
		return res, types.ErrNoAmountColumns
	}

	multiplier, detected := DetectMultiplier(wb.Detail, n.cfg.Sheets.UnitScanRows, n.cfg.Sheets.UnitScanCols)
	res.File.Multiplier = multiplier
	res.File.UnitDetected = detected
	res.File.SourceLayout = amounts.layout()
	res.File.Months = amounts.months()

	rows := copyRows(wb.RawData.Rows[1:])
	blank := make([]bool, len(rows))
	for i, row := range rows {
		blank[i] = blankRow(row)
	}
	agency := n.agencies.Resolve(firstNonBlank(rows, cols.agency))
	layout := entity.LayoutStandard
	if n.cfg.IsCatchAll(agency) {
		layout = entity.LayoutCatchAll
	}
	res.File.Agency = agency
	res.File.Layout = layout

	fill := n.cfg.Columns.StandardFill
	if layout == entity.LayoutCatchAll {
		fill = n.cfg.Columns.CatchAllFill
	}
	fillIdx := make([]int, 0, len(fill))
	for _, name := range fill {
		fillIdx = append(fillIdx, h.index(name))
	}
	forwardFill(rows, fillIdx)

	mult := decimal.NewFromInt(multiplier)
	headerRow := wb.RawData.Rows[0]
	for i, row := range rows {
		if blank[i] {
			continue
		}
		res.File.RowsRead++

		line, ok := n.lineNumber(cell(row, cols.lineNumber))
		if !ok {
			res.Excluded[entity.ExcludedNonBudgetLine]++
			continue
		}

		item := entity.RawLineItem{
			Agency:         agency,
			Bureau:         cell(row, cols.bureau),
			AccountCode:    cell(row, cols.accountCode),
			LineNumber:     line,
			FundSymbolText: cell(row, cols.fundSymbol),
			Amounts:        entity.Amounts{},
			SourceFile:     wb.FileName,
			SourceRow:      i + 2,
			UnitMultiplier: multiplier,
			Layout:         layout,
			Authoritative: entity.Authoritative{
				BeginPeriod:    cell(row, cols.begin),
				EndPeriod:      cell(row, cols.end),
				AllocationCode: cell(row, cols.allocation),
			},
		}
		if item.FundSymbolText == "" {
			item.FundSymbolText = tafs.Compose(cell(row, cols.trag), cell(row, cols.tracct), item.Authoritative.BeginPeriod, item.Authoritative.EndPeriod)
			if item.FundSymbolText != "" {
				item.FundSymbolComposed = true
				res.Composed++
			}
		}
		for j, idx := range cols.discriminators {
			item.Discriminators = append(item.Discriminators, entity.Discriminator{
				Column: cols.discriminatorNames[j],
				Value:  tafs.NormalizeField(cell(row, idx)),
			})
		}

		for m, idx := range amounts.byMonth {
			v, ok := parseAmount(cell(row, idx))
			if !ok {
				continue
			}
			item.Amounts[m] = v.Mul(mult)
		}

		for idx, name := range headerRow {
			if idx >= len(row) || cols.identity(idx) || amounts.isAmountColumn(idx) {
				continue
			}
			key := canonicalColumn(name)
			value := strings.TrimSpace(row[idx])
			if key == "" || value == "" {
				continue
			}
			if !n.never[key] {
				if v, ok := parseAmount(value); ok {
					value = v.Mul(mult).String()
				}
			}
			if item.Attributes == nil {
				item.Attributes = map[string]string{}
			}
			item.Attributes[key] = value
		}

		res.Items = append(res.Items, item)
	}

	res.File.RowsIngested = len(res.Items)
	if len(res.Items) > 0 {
		res.File.Status = entity.FileIngested
	}
	return res, nil
}

// lineNumber accepts "2490" and "2490.0" within the configured range.
func (n *Normalizer) lineNumber(s string) (int, bool) {
	v, ok := parseAmount(s)
	if !ok || !v.IsInteger() {
		return 0, false
	}
	line := int(v.IntPart())
	if line < n.cfg.Lines.Min || line > n.cfg.Lines.Max {
		return 0, false
	}
	return line, true
}

// parseAmount reads a raw cell value; thousands separators are tolerated.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func firstNonBlank(rows [][]string, idx int) string {
	for _, row := range rows {
		if v := cell(row, idx); v != "" {
			return v
		}
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
