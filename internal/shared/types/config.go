package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the pipeline configuration that can be loaded from a file.
// Lookup tables live here and are passed explicitly to each component.
type Config struct {
	OutputDir  string   `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	ReportType []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	// AsOfMonth forces the summary month; empty selects the latest month with data.
	AsOfMonth string `json:"as_of_month" yaml:"as_of_month" toml:"as_of_month"`

	Sheets         SheetConfig       `json:"sheets" yaml:"sheets" toml:"sheets"`
	Columns        ColumnConfig      `json:"columns" yaml:"columns" toml:"columns"`
	MonthColumns   map[string]string `json:"month_columns" yaml:"month_columns" toml:"month_columns"`
	QuarterColumns map[string]string `json:"quarter_columns" yaml:"quarter_columns" toml:"quarter_columns"`

	Agencies         []AgencyConfig `json:"agencies" yaml:"agencies" toml:"agencies"`
	CatchAllAgencies []string       `json:"catch_all_agencies" yaml:"catch_all_agencies" toml:"catch_all_agencies"`
	SkipFiles        []string       `json:"skip_files" yaml:"skip_files" toml:"skip_files"`

	Lines                   LineConfig `json:"lines" yaml:"lines" toml:"lines"`
	CompressionWarningRatio float64    `json:"compression_warning_ratio" yaml:"compression_warning_ratio" toml:"compression_warning_ratio"`

	Gate    GateConfig            `json:"gate" yaml:"gate" toml:"gate"`
	Years   map[string]YearConfig `json:"years" yaml:"years" toml:"years"`
	Publish PublishConfig         `json:"publish" yaml:"publish" toml:"publish"`
}

// SheetConfig names the worksheets of a source workbook.
type SheetConfig struct {
	RawData       string `json:"raw_data" yaml:"raw_data" toml:"raw_data"`
	DetailKeyword string `json:"detail_keyword" yaml:"detail_keyword" toml:"detail_keyword"`
	UnitScanRows  int    `json:"unit_scan_rows" yaml:"unit_scan_rows" toml:"unit_scan_rows"`
	UnitScanCols  int    `json:"unit_scan_cols" yaml:"unit_scan_cols" toml:"unit_scan_cols"`
}

// ColumnConfig is the raw-data column vocabulary.
type ColumnConfig struct {
	Agency          string `json:"agency" yaml:"agency" toml:"agency"`
	Bureau          string `json:"bureau" yaml:"bureau" toml:"bureau"`
	AccountCode     string `json:"account_code" yaml:"account_code" toml:"account_code"`
	LineNumber      string `json:"line_number" yaml:"line_number" toml:"line_number"`
	FundSymbol      string `json:"fund_symbol" yaml:"fund_symbol" toml:"fund_symbol"`
	BeginPeriod     string `json:"begin_period" yaml:"begin_period" toml:"begin_period"`
	EndPeriod       string `json:"end_period" yaml:"end_period" toml:"end_period"`
	AllocationCode  string `json:"allocation_code" yaml:"allocation_code" toml:"allocation_code"`
	TreasuryAgency  string `json:"treasury_agency" yaml:"treasury_agency" toml:"treasury_agency"`
	TreasuryAccount string `json:"treasury_account" yaml:"treasury_account" toml:"treasury_account"`

	Discriminators []string `json:"discriminators" yaml:"discriminators" toml:"discriminators"`
	StandardFill   []string `json:"standard_fill" yaml:"standard_fill" toml:"standard_fill"`
	CatchAllFill   []string `json:"catch_all_fill" yaml:"catch_all_fill" toml:"catch_all_fill"`
	NeverScale     []string `json:"never_scale" yaml:"never_scale" toml:"never_scale"`
}

// AgencyConfig is one target agency. Match lists keyword alternatives: the
// agency matches when every keyword of any one alternative is present.
type AgencyConfig struct {
	Name     string     `json:"name" yaml:"name" toml:"name"`
	Match    [][]string `json:"match" yaml:"match" toml:"match"`
	Required bool       `json:"required" yaml:"required" toml:"required"`
}

// LineConfig bounds valid line numbers and names the two summary lines.
type LineConfig struct {
	Min                int `json:"min" yaml:"min" toml:"min"`
	Max                int `json:"max" yaml:"max" toml:"max"`
	UnobligatedBalance int `json:"unobligated_balance" yaml:"unobligated_balance" toml:"unobligated_balance"`
	BudgetAuthority    int `json:"budget_authority" yaml:"budget_authority" toml:"budget_authority"`
}

// GateConfig tunes the completeness gate.
type GateConfig struct {
	MinMonthTotal  float64 `json:"min_month_total" yaml:"min_month_total" toml:"min_month_total"`
	BaselineYear   int     `json:"baseline_year" yaml:"baseline_year" toml:"baseline_year"`
	MinCoveragePct float64 `json:"min_coverage_pct" yaml:"min_coverage_pct" toml:"min_coverage_pct"`
}

// YearConfig is what the download collaborator knows about one fiscal year.
type YearConfig struct {
	URL              string   `json:"url" yaml:"url" toml:"url"`
	ExpectedFiles    int      `json:"expected_files" yaml:"expected_files" toml:"expected_files"`
	Completed        *bool    `json:"completed" yaml:"completed" toml:"completed"`
	RequiredMonths   []string `json:"required_months" yaml:"required_months" toml:"required_months"`
	AgencyExceptions []string `json:"agency_exceptions" yaml:"agency_exceptions" toml:"agency_exceptions"`
}

// PublishConfig says where gated artifacts go.
type PublishConfig struct {
	Dir        string `json:"dir" yaml:"dir" toml:"dir"`
	S3Bucket   string `json:"s3_bucket" yaml:"s3_bucket" toml:"s3_bucket"`
	S3Prefix   string `json:"s3_prefix" yaml:"s3_prefix" toml:"s3_prefix"`
	AWSProfile string `json:"aws_profile" yaml:"aws_profile" toml:"aws_profile"`
	AWSRegion  string `json:"aws_region" yaml:"aws_region" toml:"aws_region"`
}

// DefaultConfig returns the built-in SF133 vocabulary.
func DefaultConfig() *Config {
	return &Config{
		ReportType: []string{"csv", "json"},
		Sheets: SheetConfig{
			RawData:       "Raw Data",
			DetailKeyword: "detail",
			UnitScanRows:  10,
			UnitScanCols:  10,
		},
		Columns: ColumnConfig{
			Agency:          "AGENCY",
			Bureau:          "BUREAU",
			AccountCode:     "OMB_ACCT",
			LineNumber:      "LINENO",
			FundSymbol:      "TAFS",
			BeginPeriod:     "FY1",
			EndPeriod:       "FY2",
			AllocationCode:  "ALLOC",
			TreasuryAgency:  "TRAG",
			TreasuryAccount: "TRACCT",
			Discriminators:  []string{"TRAG", "TRACCT"},
			StandardFill:    []string{"BUREAU", "OMB_ACCT", "TAFS"},
			CatchAllFill:    []string{"BUREAU", "TAFS"},
			NeverScale:      []string{"LINENO", "FY1", "FY2", "ALLOC", "TRAG", "TRACCT", "OMB_ACCT", "SECTION", "STAT", "CAT_B"},
		},
		MonthColumns: map[string]string{
			"AMT_OCT": "Oct", "AMT_NOV": "Nov", "AMT_DEC": "Dec",
			"AMT_JAN": "Jan", "AMT_FEB": "Feb", "AMT_MAR": "Mar",
			"AMT_APR": "Apr", "AMT_MAY": "May", "AMT_JUN": "Jun",
			"AMT_JUL": "Jul", "AMT_AUG": "Aug", "AMT_SEP": "Sep",
		},
		QuarterColumns: map[string]string{
			"AMT1": "Dec", "AMT2": "Mar", "AMT3": "Jun", "AMT4": "Sep",
		},
		Agencies:         defaultAgencies(),
		CatchAllAgencies: []string{"Other Independent Agencies"},
		SkipFiles:        []string{"2668331098.xlsx"},
		Lines: LineConfig{
			Min:                1000,
			Max:                9999,
			UnobligatedBalance: 2490,
			BudgetAuthority:    2500,
		},
		CompressionWarningRatio: 50,
		Gate: GateConfig{
			MinMonthTotal:  1000,
			MinCoveragePct: 80,
		},
		Years: map[string]YearConfig{
			"12": {RequiredMonths: []string{"Nov", "Jul", "Aug"}},
		},
	}
}

func defaultAgencies() []AgencyConfig {
	required := func(name string) AgencyConfig { return AgencyConfig{Name: name, Required: true} }
	optional := func(name string) AgencyConfig { return AgencyConfig{Name: name} }
	return []AgencyConfig{
		optional("Legislative Branch"),
		optional("Judicial Branch"),
		required("Department of Agriculture"),
		required("Department of Commerce"),
		{
			Name:     "Department of Defense-Military",
			Match:    [][]string{{"defense", "military"}, {"defense", "dod"}},
			Required: true,
		},
		required("Department of Education"),
		required("Department of Energy"),
		required("Department of Health and Human Services"),
		required("Department of Homeland Security"),
		required("Department of Housing and Urban Development"),
		required("Department of the Interior"),
		required("Department of Justice"),
		required("Department of Labor"),
		required("Department of State"),
		required("Department of Transportation"),
		required("Department of the Treasury"),
		required("Department of Veterans Affairs"),
		{
			Name:  "Corps of Engineers-Civil Works",
			Match: [][]string{{"corps of engineers", "civil"}},
		},
		{
			Name:  "Other Defense Civil Programs",
			Match: [][]string{{"other defense", "civil"}},
		},
		optional("Environmental Protection Agency"),
		optional("Executive Office of the President"),
		optional("General Services Administration"),
		optional("International Assistance Programs"),
		optional("National Aeronautics and Space Administration"),
		optional("National Science Foundation"),
		optional("Office of Personnel Management"),
		optional("Small Business Administration"),
		optional("Social Security Administration"),
		optional("Other Independent Agencies"),
	}
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.Sheets.RawData == "" {
		return fmt.Errorf("%w: sheets.raw_data is empty", ErrInvalidConfig)
	}
	if c.Columns.LineNumber == "" || c.Columns.FundSymbol == "" {
		return fmt.Errorf("%w: line_number and fund_symbol columns are required", ErrInvalidConfig)
	}
	if len(c.MonthColumns) == 0 && len(c.QuarterColumns) == 0 {
		return fmt.Errorf("%w: no month or quarter columns configured", ErrInvalidConfig)
	}
	if c.Lines.Min <= 0 || c.Lines.Max < c.Lines.Min {
		return fmt.Errorf("%w: invalid line range %d-%d", ErrInvalidConfig, c.Lines.Min, c.Lines.Max)
	}
	if c.CompressionWarningRatio <= 0 {
		return fmt.Errorf("%w: compression_warning_ratio must be positive", ErrInvalidConfig)
	}
	return nil
}

// YearConfigFor looks a fiscal year up by its two-digit key, then by the
// four-digit one.
func (c *Config) YearConfigFor(fiscalYear int) (YearConfig, bool) {
	if yc, ok := c.Years[fmt.Sprintf("%02d", fiscalYear%100)]; ok {
		return yc, true
	}
	yc, ok := c.Years[strconv.Itoa(fiscalYear)]
	return yc, ok
}

// IsCatchAll reports whether agency uses the catch-all layout.
func (c *Config) IsCatchAll(agency string) bool {
	for _, name := range c.CatchAllAgencies {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(agency)) {
			return true
		}
	}
	return false
}

// RequiredAgencies returns the agencies every completed year must contain.
func (c *Config) RequiredAgencies() []string {
	var out []string
	for _, a := range c.Agencies {
		if a.Required {
			out = append(out, a.Name)
		}
	}
	return out
}

// NormalizeFiscalYear accepts "2024", "24" or 24 style input.
func NormalizeFiscalYear(year int) int {
	if year >= 0 && year < 100 {
		return 2000 + year
	}
	return year
}
