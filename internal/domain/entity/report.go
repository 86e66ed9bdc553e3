package entity

import "time"

// Exclusion reasons counted by the normalizer and the aggregator.
const (
	ExcludedNonBudgetLine     = "non_budget_line"
	ExcludedMissingKey        = "missing_key_component"
	ExcludedUnparseableSymbol = "unparseable_fund_symbol"
	ExcludedDuplicateMonth    = "duplicate_single_month_cell"
)

// FileStatus is the outcome of ingesting one workbook.
type FileStatus string

const (
	FileIngested FileStatus = "ingested"
	FileSkipped  FileStatus = "skipped"
)

// FileResult records how a single workbook was handled.
type FileResult struct {
	Name         string       `json:"name"`
	Agency       string       `json:"agency,omitempty"`
	Layout       LayoutType   `json:"layout"`
	SourceLayout SourceLayout `json:"source_layout"`
	Multiplier   int64        `json:"unit_multiplier"`
	UnitDetected bool         `json:"unit_detected"`
	Months       []Month      `json:"months,omitempty"`
	Status       FileStatus   `json:"status"`
	Reason       string       `json:"reason,omitempty"`
	RowsRead     int          `json:"rows_read"`
	RowsIngested int          `json:"rows_ingested"`
}

// FundSymbolMismatch is one disagreement between a parsed TAFS field and
// the authoritative column on the same row.
type FundSymbolMismatch struct {
	SourceFile    string `json:"source_file"`
	SourceRow     int    `json:"source_row"`
	FundSymbol    string `json:"tafs"`
	Field         string `json:"field"`
	Parsed        string `json:"parsed"`
	Authoritative string `json:"authoritative"`
}

// ValidationSummary reports the TAFS cross-validation outcome.
type ValidationSummary struct {
	Passed     bool                 `json:"passed"`
	Checked    int                  `json:"rows_checked"`
	Mismatches []FundSymbolMismatch `json:"mismatches,omitempty"`
}

// AgencyBreakdown is the per-agency line of the run summary.
type AgencyBreakdown struct {
	Agency         string `json:"agency"`
	Files          int    `json:"files"`
	RowsIn         int    `json:"rows_in"`
	GroupsOut      int    `json:"groups_out"`
	SummaryRecords int    `json:"summary_records"`
}

// GateResult decides whether a year's artifacts may be published.
type GateResult struct {
	Passed          bool     `json:"passed"`
	CompletedYear   bool     `json:"completed_year"`
	AvailableMonths []Month  `json:"available_months"`
	MissingMonths   []Month  `json:"missing_months"`
	Failures        []string `json:"failures,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// RunReport is the structured summary printed and written for every run.
type RunReport struct {
	RunID            string            `json:"run_id"`
	FiscalYear       int               `json:"fiscal_year"`
	SourceDir        string            `json:"source_dir"`
	StartedAt        time.Time         `json:"started_at"`
	FinishedAt       time.Time         `json:"finished_at"`
	Files            []FileResult      `json:"files"`
	RowsIn           int               `json:"rows_in"`
	RowsExcluded     map[string]int    `json:"rows_excluded"`
	GroupsOut        int               `json:"groups_out"`
	CompressionRatio float64           `json:"compression_ratio"`
	Warnings         []string          `json:"warnings,omitempty"`
	Agencies         []AgencyBreakdown `json:"agencies"`
	Validation       ValidationSummary `json:"validation"`
	Merge            MergeStats        `json:"merge"`
	SummaryRecords   int               `json:"summary_records"`
	Gate             *GateResult       `json:"gate,omitempty"`
	Published        bool              `json:"published"`
	Artifacts        []string          `json:"artifacts,omitempty"`
}

// Exclude increments the exclusion counter for reason.
func (r *RunReport) Exclude(reason string, n int) {
	if n == 0 {
		return
	}
	if r.RowsExcluded == nil {
		r.RowsExcluded = map[string]int{}
	}
	r.RowsExcluded[reason] += n
}

// IngestedFiles counts files that produced rows.
func (r *RunReport) IngestedFiles() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == FileIngested {
			n++
		}
	}
	return n
}

// MonthMetadata maps a fiscal year to its latest reporting month.
type MonthMetadata map[int]Month
