package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/pricing"
)

func project(id, folderID string, grams, cost, price float64, at time.Time) entity.Project {
	return entity.Project{
		ID:          id,
		FolderID:    folderID,
		Name:        "job " + id,
		CreatedAt:   at,
		WeightGrams: grams,
		Results: pricing.Result{Totals: pricing.Totals{
			TotalProductionCost: cost,
			FinalPrice:          price,
			Profit:              price - cost,
		}},
	}
}

var (
	day     = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	folders = []entity.Folder{{ID: "f2", Name: "Zeta"}, {ID: "f1", Name: "Alpha"}, {ID: "f3", Name: "Empty"}}
	jobs    = []entity.Project{
		project("a", "f1", 50, 10, 20, day),
		project("b", "f1", 25, 5, 7.5, day.Add(time.Hour)),
		project("c", "f2", 100, 30, 45, day.Add(2*time.Hour)),
		project("d", "", 10, 1, 2, day.Add(3*time.Hour)),
		project("e", "gone", 5, 1, 1, day.Add(4*time.Hour)),
	}
)

func TestSummaries(t *testing.T) {
	got := Summaries(folders, jobs)
	want := []Summary{
		{FolderID: "f1", FolderName: "Alpha", Jobs: 2, Grams: 75, ProductionCost: 15, Price: 27.5, Profit: 12.5},
		{FolderID: "f3", FolderName: "Empty"},
		{FolderID: "f2", FolderName: "Zeta", Jobs: 1, Grams: 100, ProductionCost: 30, Price: 45, Profit: 15},
		{FolderID: "", FolderName: UnfiledName, Jobs: 2, Grams: 15, ProductionCost: 2, Price: 3, Profit: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summaries mismatch (-want +got):\n%s", diff)
	}
}

func TestSummariesWithoutUnfiledJobs(t *testing.T) {
	got := Summaries(folders[:1], jobs[2:3])
	if len(got) != 1 || got[0].Jobs != 1 {
		t.Fatalf("unexpected summaries: %+v", got)
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(folders, jobs, "R$")
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	_ = f.Close()

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer book.Close()

	if sheets := book.GetSheetList(); !cmp.Equal(sheets, []string{SummarySheet, JobsSheet}) {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := book.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 summary rows, got %d", len(rows))
	}
	if rows[1][0] != "Alpha" || rows[1][1] != "2" {
		t.Fatalf("unexpected first summary row: %v", rows[1])
	}

	rows, err = book.GetRows(JobsSheet)
	if err != nil {
		t.Fatalf("job rows: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected header + 5 job rows, got %d", len(rows))
	}
	if rows[0][2] != "Job" || rows[1][2] != "job e" || rows[1][1] != UnfiledName {
		t.Fatalf("unexpected newest job row: %v / %v", rows[0], rows[1])
	}
}
