package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/printfleet/internal/entity"
)

const (
	SummarySheet = "Folders"
	JobsSheet    = "Jobs"
)

var (
	summaryHeaders = []string{"Folder", "Jobs", "Grams", "Production cost", "Price", "Profit"}
	summaryWidths  = []float64{28, 8, 10, 16, 14, 14}
	jobHeaders     = []string{"Date", "Folder", "Job", "Grams", "Print hours", "Production cost", "Price", "Profit"}
	jobWidths      = []float64{20, 24, 32, 10, 12, 16, 14, 14}
)

// Workbook builds a spreadsheet with one row per folder summary and one row per job. The
// caller closes the returned file.
func Workbook(folders []entity.Folder, projects []entity.Project, currency string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(JobsSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	moneyFormat := fmt.Sprintf(`"%s "#,##0.00`, currency)
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	if err := writeHeader(f, SummarySheet, summaryHeaders, summaryWidths, headerStyle); err != nil {
		return nil, err
	}
	summaries := Summaries(folders, projects)
	for i, s := range summaries {
		row := i + 2
		if err := f.SetSheetRow(SummarySheet, cell("A", row), &[]any{
			s.FolderName, s.Jobs, s.Grams, s.ProductionCost, s.Price, s.Profit,
		}); err != nil {
			return nil, err
		}
	}
	if n := len(summaries); n > 0 {
		if err := f.SetCellStyle(SummarySheet, "D2", cell("F", n+1), moneyStyle); err != nil {
			return nil, err
		}
	}

	if err := writeHeader(f, JobsSheet, jobHeaders, jobWidths, headerStyle); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(folders))
	for _, fo := range folders {
		names[fo.ID] = fo.Name
	}
	sorted := append([]entity.Project(nil), projects...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	for i, p := range sorted {
		row := i + 2
		folder, ok := names[p.FolderID]
		if !ok {
			folder = UnfiledName
		}
		if err := f.SetSheetRow(JobsSheet, cell("A", row), &[]any{
			p.CreatedAt.Format("2006-01-02 15:04"), folder, p.Name, p.WeightGrams,
			p.Results.Breakdown.TotalPrintHours,
			p.Results.Totals.TotalProductionCost, p.Results.Totals.FinalPrice, p.Results.Totals.Profit,
		}); err != nil {
			return nil, err
		}
	}
	if n := len(sorted); n > 0 {
		if err := f.SetCellStyle(JobsSheet, "F2", cell("H", n+1), moneyStyle); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, widths []float64, style int) error {
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell(col, 1), h); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return err
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetCellStyle(sheet, "A1", cell(last, 1), style)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
