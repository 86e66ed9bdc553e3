package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

type pdfColumn struct {
	title string
	width float64
	align string
	value func(rec entity.AccountSummaryRecord) string
}

var summaryColumns = []pdfColumn{
	{"Bureau", 55, "L", func(r entity.AccountSummaryRecord) string { return r.Bureau }},
	{"Account", 80, "L", func(r entity.AccountSummaryRecord) string { return r.AccountDisplayName }},
	{"TAFS", 40, "L", func(r entity.AccountSummaryRecord) string { return r.FundSymbol }},
	{"Period", 30, "L", func(r entity.AccountSummaryRecord) string { return r.PeriodOfPerformance }},
	{"Unobligated", 25, "R", func(r entity.AccountSummaryRecord) string { return r.UnobligatedBalanceDisplay }},
	{"Authority", 25, "R", func(r entity.AccountSummaryRecord) string { return r.BudgetAuthorityDisplay }},
	{"%", 20, "R", func(r entity.AccountSummaryRecord) string { return r.PercentUnobligatedDisplay }},
}

// ExportSummaryToPDF renders the summary records grouped by agency, after a
// page with the run statistics.
func (r *ExportRepositoryImpl) ExportSummaryToPDF(records []entity.AccountSummaryRecord, report *entity.RunReport, outputDir string) (string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if !report.FinishedAt.IsZero() {
		pdf.SetCreationDate(report.FinishedAt)
	}
	pdf.SetTitle(fmt.Sprintf("SF133 Unobligated Balances FY%d", report.FiscalYear), false)

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}
	pageWidth := 0.0
	for _, c := range summaryColumns {
		pageWidth += c.width
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("SF133 FY%d | as of %s | run %s", report.FiscalYear, report.Merge.AsOfMonth, report.RunID)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	drawSection := func(title string, content string) {
		content = cleanRichTags(content)
		if content == "" {
			return
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+pageWidth, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.MultiCell(pageWidth, 5, tr(content), "", "L", false)
		pdf.Ln(6)
	}

	// Capa com as estatísticas da execução
	pdf.AddPage()
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Unobligated Balances FY%d (as of %s)", report.FiscalYear, report.Merge.AsOfMonth)), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	stats := []string{
		fmt.Sprintf("Workbooks ingested: %d of %d", report.IngestedFiles(), len(report.Files)),
		fmt.Sprintf("Rows in: %d, accounts out: %d (ratio %.1f)", report.RowsIn, report.GroupsOut, report.CompressionRatio),
		fmt.Sprintf("Summary records: %d (only 2490: %d, only 2500: %d, month missing: %d)",
			len(records), report.Merge.OnlyUnobligated, report.Merge.OnlyAuthority, report.Merge.MissingMonth),
	}
	drawSection("Run Summary", strings.Join(stats, "\n"))
	if report.Gate != nil {
		drawSection("Completeness", strings.Join(append(append([]string{}, report.Gate.Failures...), report.Gate.Warnings...), "\n"))
	}
	drawSection("Warnings", strings.Join(report.Warnings, "\n"))

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for _, c := range summaryColumns {
			pdf.CellFormat(c.width, 7, c.title, "B", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	agency := ""
	for _, rec := range records {
		if rec.Agency != agency {
			agency = rec.Agency
			pdf.AddPage()
			pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
			pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 10, tr("  "+agency), "", 1, "L", true, 0, "")
			pdf.Ln(2)
			drawHeader()
		}
		if pdf.GetY() > 185 {
			pdf.AddPage()
			drawHeader()
		}
		for _, c := range summaryColumns {
			pdf.CellFormat(c.width, 5, tr(fit(pdf, c.value(rec), c.width-1)), "", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	path := filepath.Join(outputDir, SummaryPDFFileName(report.FiscalYear))
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

// fit trunca o texto com "..." até caber na largura da coluna.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
