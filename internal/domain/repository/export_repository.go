package repository

import (
	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

// ExportRepository writes the per-year artifacts. Every method replaces its
// file atomically and returns the absolute path written.
type ExportRepository interface {
	ExportNormalizedTable(table *entity.YearTable, outputDir string) (string, error)

	ExportSummaryToCSV(records []entity.AccountSummaryRecord, fiscalYear int, outputDir string) (string, error)
	ExportSummaryToJSON(records []entity.AccountSummaryRecord, fiscalYear int, outputDir string) (string, error)
	ExportSummaryToPDF(records []entity.AccountSummaryRecord, report *entity.RunReport, outputDir string) (string, error)

	ExportRunReport(report *entity.RunReport, outputDir string) (string, error)
	UpdateMonthMetadata(metadata entity.MonthMetadata, outputDir string) (string, error)

	// LoadFundSymbols reads back a normalized table written earlier:
	// agency -> set of fund symbol texts. Used for baseline coverage.
	LoadFundSymbols(fiscalYear int, outputDir string) (map[string]map[string]bool, error)
}
