package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
	"github.com/abigailhaddad/apportionment/internal/domain/repository"
)

// MetadataFile is shared by every fiscal year of an output directory.
const MetadataFile = "month_metadata.json"

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// MasterFileName é o nome da tabela normalizada do ano fiscal.
func MasterFileName(fy int) string {
	return fmt.Sprintf("sf133_%d_master.csv", fy)
}

func SummaryCSVFileName(fy int) string {
	return fmt.Sprintf("all_agencies_obligation_summary_%d.csv", fy)
}

func SummaryJSONFileName(fy int) string {
	return fmt.Sprintf("all_agencies_summary_%d.json", fy)
}

func SummaryPDFFileName(fy int) string {
	return fmt.Sprintf("all_agencies_summary_%d.pdf", fy)
}

func RunReportFileName(fy int) string {
	return fmt.Sprintf("summary_%d.json", fy)
}

// --- Tabela normalizada ---

func (r *ExportRepositoryImpl) ExportNormalizedTable(table *entity.YearTable, outputDir string) (string, error) {
	attrs := attributeColumns(table.Accounts)
	discs := discriminatorColumns(table.Accounts)

	headers := []string{
		"Agency", "Bureau", "Account Code", "Account Number", "TAFS",
		"Begin Period", "End Period", "Allocation", "Line Number", "Layout",
	}
	headers = append(headers, discs...)
	for _, m := range entity.FiscalMonths() {
		headers = append(headers, m.String())
	}
	headers = append(headers, "Row Count", "Source File")
	headers = append(headers, attrs...)

	rows := make([][]string, 0, len(table.Accounts))
	for _, acct := range table.Accounts {
		row := []string{
			acct.Key.Agency,
			acct.Key.Bureau,
			acct.AccountCode,
			acct.Key.AccountNumber,
			acct.FundSymbol.Text,
			acct.Key.BeginPeriod,
			acct.Key.EndPeriod,
			acct.Key.AllocationCode,
			strconv.Itoa(acct.Key.LineNumber),
			acct.Layout.String(),
		}
		values := map[string]string{}
		for _, d := range acct.Discriminators {
			values[d.Column] = d.Value
		}
		for _, col := range discs {
			row = append(row, values[col])
		}
		for _, m := range entity.FiscalMonths() {
			if v, ok := acct.Amounts.Get(m); ok {
				row = append(row, v.String())
			} else {
				row = append(row, "")
			}
		}
		row = append(row, strconv.Itoa(acct.RowCount), acct.SourceFile)
		for _, col := range attrs {
			row = append(row, acct.Attributes[col])
		}
		rows = append(rows, row)
	}

	return writeCSV(filepath.Join(outputDir, MasterFileName(table.FiscalYear)), headers, rows)
}

// LoadFundSymbols lê de volta a tabela mestre de um ano anterior.
func (r *ExportRepositoryImpl) LoadFundSymbols(fiscalYear int, outputDir string) (map[string]map[string]bool, error) {
	f, err := os.Open(filepath.Join(outputDir, MasterFileName(fiscalYear)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading master CSV header: %w", err)
	}
	agencyIdx, tafsIdx := -1, -1
	for i, h := range header {
		switch h {
		case "Agency":
			agencyIdx = i
		case "TAFS":
			tafsIdx = i
		}
	}
	if agencyIdx < 0 || tafsIdx < 0 {
		return nil, fmt.Errorf("master CSV for FY%d has no Agency/TAFS columns", fiscalYear)
	}

	out := map[string]map[string]bool{}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading master CSV: %w", err)
		}
		agency := rec[agencyIdx]
		if out[agency] == nil {
			out[agency] = map[string]bool{}
		}
		out[agency][rec[tafsIdx]] = true
	}
	return out, nil
}

// --- Resumo por conta ---

func (r *ExportRepositoryImpl) ExportSummaryToCSV(records []entity.AccountSummaryRecord, fiscalYear int, outputDir string) (string, error) {
	headers := []string{
		"Agency", "Bureau", "Account", "Account Number", "Period of Performance",
		"Expiration Year", "TAFS", "Unobligated Balance (M)", "Budget Authority (M)",
		"Percentage Unobligated", "Unobligated Balance", "Budget Authority", "Percent Unobligated",
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Agency,
			rec.Bureau,
			rec.AccountDisplayName,
			rec.AccountNumber,
			rec.PeriodOfPerformance,
			rec.ExpirationYear,
			rec.FundSymbol,
			rec.UnobligatedBalanceDisplay,
			rec.BudgetAuthorityDisplay,
			rec.PercentUnobligatedDisplay,
			rec.UnobligatedBalance.String(),
			rec.BudgetAuthority.String(),
			rec.PercentUnobligated.StringFixed(4),
		})
	}
	return writeCSV(filepath.Join(outputDir, SummaryCSVFileName(fiscalYear)), headers, rows)
}

func (r *ExportRepositoryImpl) ExportSummaryToJSON(records []entity.AccountSummaryRecord, fiscalYear int, outputDir string) (string, error) {
	if records == nil {
		records = []entity.AccountSummaryRecord{}
	}
	return writeJSON(filepath.Join(outputDir, SummaryJSONFileName(fiscalYear)), records)
}

// --- Relatório da execução e metadados ---

func (r *ExportRepositoryImpl) ExportRunReport(report *entity.RunReport, outputDir string) (string, error) {
	return writeJSON(filepath.Join(outputDir, RunReportFileName(report.FiscalYear)), report)
}

// UpdateMonthMetadata merges metadata into the existing file; years not in
// metadata keep their previous month.
func (r *ExportRepositoryImpl) UpdateMonthMetadata(metadata entity.MonthMetadata, outputDir string) (string, error) {
	path := filepath.Join(outputDir, MetadataFile)
	merged := entity.MonthMetadata{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &merged); err != nil {
			return "", fmt.Errorf("error decoding %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("error reading %s: %w", path, err)
	}
	for fy, m := range metadata {
		merged[fy] = m
	}
	return writeJSON(path, merged)
}

// --- Funções Auxiliares ---

func writeCSV(path string, headers []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(headers); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return "", fmt.Errorf("error writing CSV record: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func writeJSON(path string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}

// writeAtomic grava num arquivo temporário do mesmo diretório e renomeia,
// de forma que leitores nunca vejam um artefato pela metade.
func writeAtomic(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("error replacing %s: %w", path, err)
	}
	return filepath.Abs(path)
}

func attributeColumns(accounts []entity.AggregatedAccount) []string {
	seen := map[string]bool{}
	for _, acct := range accounts {
		for k := range acct.Attributes {
			seen[k] = true
		}
	}
	return sortedKeys(seen)
}

func discriminatorColumns(accounts []entity.AggregatedAccount) []string {
	seen := map[string]bool{}
	for _, acct := range accounts {
		for _, d := range acct.Discriminators {
			seen[d.Column] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Regex para limpar formatação pterm (rich tags) e sequências ANSI de cor/estilo.
var richTagRegex = regexp.MustCompile(`\[/?([a-zA-Z]+|#[0-9a-fA-F]{6})\]`)
var ansiRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

// cleanRichTags remove tags de formatação do pterm e sequências ANSI.
func cleanRichTags(text string) string {
	text = richTagRegex.ReplaceAllString(text, "")
	text = ansiRegex.ReplaceAllString(text, "")
	return text
}
