package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Simplici0/printfleet/internal/editor"
	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/inventory"
	"github.com/Simplici0/printfleet/internal/pricing"
	"github.com/Simplici0/printfleet/internal/report"
	"github.com/Simplici0/printfleet/internal/session"
	"github.com/Simplici0/printfleet/internal/store"
	"github.com/Simplici0/printfleet/internal/store/storetest"
)

type testApp struct {
	handler http.Handler
	backend *storetest.Backend
	token   string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := storetest.New()
	backend.Equipment.Seed(entity.Equipment{ID: "p1", Name: "Ender", AcquisitionCost: 2000, LifespanHours: 3000, PowerWatts: 300, MaintenanceCostPerHour: 2})
	backend.Materials.Seed(entity.Material{ID: "m1", Kind: entity.KindPLA, Name: "PLA", SpoolPrice: 120, SpoolWeight: 1000, CurrentStock: 300})
	backend.Folders.Seed(entity.Folder{ID: "f1", Name: "Orders", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	open := func(string) (store.Store, error) { return backend.Store(), nil }
	sessions := session.NewRegistry(open, zap.NewNop(), session.Options{Interval: time.Hour})
	t.Cleanup(sessions.CloseAll)

	auth := newAuthService("test-secret")
	srv := &server{auth: auth, sessions: sessions, log: zap.NewNop()}
	return &testApp{handler: srv.routes(), backend: backend, token: auth.createToken("acct")}
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+a.token)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

var referenceJob = pricing.RawJob{PrintHours: "2", WeightGrams: "50", FailureRate: "10", Markup: "100"}

func TestHealthNeedsNoToken(t *testing.T) {
	app := newTestApp(t)

	rr := httptest.NewRecorder()
	app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	app.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
}

func TestCalculate(t *testing.T) {
	app := newTestApp(t)

	job := referenceJob
	job.LaborRate = "abc"
	rr := app.do(t, http.MethodPost, "/api/calculate", calculateRequest{EquipmentID: "p1", MaterialID: "m1", Job: job})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decode[calculateResponse](t, rr)
	if !nearlyEqual(resp.Results.Totals.FinalPrice, 24.886666666666667) {
		t.Fatalf("final price = %v", resp.Results.Totals.FinalPrice)
	}
	if resp.Currency != entity.DefaultCurrencySymbol {
		t.Fatalf("currency = %q", resp.Currency)
	}
	if len(resp.Invalid) != 1 || resp.Invalid[0] != "labor_rate" {
		t.Fatalf("invalid = %v", resp.Invalid)
	}
	if len(resp.Lines) == 0 || !strings.HasPrefix(resp.Lines[len(resp.Lines)-1].Value, entity.DefaultCurrencySymbol) {
		t.Fatalf("unexpected lines: %+v", resp.Lines)
	}
}

func TestCompareTie(t *testing.T) {
	app := newTestApp(t)

	side := sideRequest{EquipmentID: "p1", MaterialID: "m1", PrintHours: "1,5", WeightGrams: "20"}
	rr := app.do(t, http.MethodPost, "/api/compare", compareRequest{A: side, B: side})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[compareResponse](t, rr)
	if resp.Winner != pricing.WinnerTie || resp.Diff != 0 {
		t.Fatalf("unexpected comparison: %+v", resp)
	}

	rr = app.do(t, http.MethodPost, "/api/compare", compareRequest{A: side, B: sideRequest{EquipmentID: "p1"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing material, got %d", rr.Code)
	}
}

func TestSaveProjectConsumesStockAndRefreshesAlerts(t *testing.T) {
	app := newTestApp(t)

	job := referenceJob
	job.WeightGrams = "150"
	rr := app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		FolderID: "f1", Name: "Vase", EquipmentID: "p1", MaterialID: "m1", Job: job,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	saved := decode[saveProjectResponse](t, rr)
	if saved.Warning != "" || saved.Project.ID == "" {
		t.Fatalf("unexpected response: %+v", saved)
	}
	if stock := app.backend.Materials.Items()[0].CurrentStock; stock != 150 {
		t.Fatalf("stock = %v, want 150", stock)
	}

	alerts := decode[[]inventory.Alert](t, app.do(t, http.MethodGet, "/api/alerts", nil))
	if len(alerts) != 1 || alerts[0].MaterialID != "m1" {
		t.Fatalf("expected a low-stock alert, got %+v", alerts)
	}

	rr = app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		FolderID: "f1", Name: "Second vase", EquipmentID: "p1", MaterialID: "m1", Job: job,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("exact remaining stock must be accepted, got %d", rr.Code)
	}

	rr = app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		FolderID: "f1", Name: "Third vase", EquipmentID: "p1", MaterialID: "m1", Job: referenceJob,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for insufficient stock, got %d", rr.Code)
	}
}

func TestSaveProjectValidation(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		Name: "No folder", EquipmentID: "p1", MaterialID: "m1", Job: referenceJob,
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without folder, got %d", rr.Code)
	}

	job := referenceJob
	job.WeightGrams = "lots"
	rr = app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		FolderID: "f1", Name: "Bad", EquipmentID: "p1", MaterialID: "m1", Job: job,
	})
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), `"weight"`) {
		t.Fatalf("expected 422 naming the weight field, got %d: %s", rr.Code, rr.Body.String())
	}
	if writes := app.backend.Writes(); writes != 0 {
		t.Fatalf("expected no writes, got %d", writes)
	}
}

func TestSaveProjectStockNotAdjustedIsAWarning(t *testing.T) {
	app := newTestApp(t)
	app.backend.Materials.FailOn("update", "m1", errors.New("timeout"))

	rr := app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		FolderID: "f1", Name: "Gear", EquipmentID: "p1", MaterialID: "m1", Job: referenceJob,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if resp := decode[saveProjectResponse](t, rr); resp.Warning == "" {
		t.Fatalf("expected a warning, got %+v", resp)
	}
}

func TestProjectDetailReadsFrozenResults(t *testing.T) {
	app := newTestApp(t)
	frozen := pricing.Result{Totals: pricing.Totals{TotalProductionCost: 10, FinalPrice: 999.99, Profit: 989.99}}
	app.backend.Projects.Seed(entity.Project{ID: "j1", FolderID: "f1", Name: "Old job", EquipmentID: "p1", MaterialID: "m1", Results: frozen})

	rr := app.do(t, http.MethodGet, "/api/projects/j1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	detail := decode[projectDetail](t, rr)
	if detail.Project.Results != frozen {
		t.Fatalf("results were recalculated: %+v", detail.Project.Results)
	}
	if !strings.Contains(rr.Body.String(), "R$ 999.99") {
		t.Fatalf("expected formatted final price, got %s", rr.Body.String())
	}

	if rr := app.do(t, http.MethodGet, "/api/projects/missing", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := app.do(t, http.MethodDelete, "/api/projects/j1", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestProjectTextReturnsPlainText(t *testing.T) {
	app := newTestApp(t)
	frozen := pricing.Result{Totals: pricing.Totals{TotalProductionCost: 10, FinalPrice: 999.99, Profit: 989.99}}
	app.backend.Projects.Seed(entity.Project{ID: "j1", FolderID: "f1", Name: "Lamp shade", EquipmentID: "p1", MaterialID: "m1", Results: frozen})

	rr := app.do(t, http.MethodGet, "/api/projects/j1/text", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{"Lamp shade\n", "Final price: R$ 999.99\n", "Profit: R$ 989.99\n"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}

func TestProjectListFilters(t *testing.T) {
	app := newTestApp(t)
	app.backend.Projects.Seed(
		entity.Project{ID: "a", FolderID: "f1", Name: "Keychain", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		entity.Project{ID: "b", FolderID: "f2", Name: "Key holder", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		entity.Project{ID: "c", FolderID: "f1", Name: "Vase", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	)

	got := decode[[]entity.Project](t, app.do(t, http.MethodGet, "/api/projects?folder_id=f1", nil))
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("unexpected folder listing: %+v", got)
	}

	got = decode[[]entity.Project](t, app.do(t, http.MethodGet, "/api/projects?q=KEY", nil))
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected search listing: %+v", got)
	}
}

func TestAssetsRoundTrip(t *testing.T) {
	app := newTestApp(t)

	assets := decode[editor.Assets](t, app.do(t, http.MethodGet, "/api/assets", nil))
	if len(assets.Printers) != 1 || len(assets.Materials) != 1 {
		t.Fatalf("unexpected assets: %+v", assets)
	}

	assets.Printers = nil
	// the client sends the new weight with the stock it last saw
	assets.Materials[0].SpoolWeight = 750
	assets.Materials = append(assets.Materials, entity.Material{Kind: entity.KindABS, Name: "ABS", SpoolPrice: 90, SpoolWeight: 1000})
	assets.Settings.CurrencySymbol = "€"
	rr := app.do(t, http.MethodPut, "/api/assets", assets)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if calls := app.backend.Equipment.Calls(); len(calls) != 1 || calls[0] != "delete:p1" {
		t.Fatalf("equipment calls = %v", calls)
	}
	materials := app.backend.Materials.Items()
	if len(materials) != 2 {
		t.Fatalf("expected 2 materials, got %+v", materials)
	}
	if materials[0].SpoolWeight != 750 || materials[0].CurrentStock != 750 {
		t.Fatalf("resized spool = %+v, want weight and stock 750", materials[0])
	}
	if materials[1].ID == "" || materials[1].CurrentStock != 1000 {
		t.Fatalf("new material = %+v, want a full spool", materials[1])
	}
	if upserts := app.backend.Settings.Upserts(); upserts != 1 {
		t.Fatalf("settings upserts = %d, want 1", upserts)
	}
}

func TestAssetsPutRejectsInvalidAndReportsPartialFailure(t *testing.T) {
	app := newTestApp(t)

	assets := decode[editor.Assets](t, app.do(t, http.MethodGet, "/api/assets", nil))
	bad := assets
	bad.Printers = []entity.Equipment{{ID: "p1", Name: "Ender", LifespanHours: 0}}
	if rr := app.do(t, http.MethodPut, "/api/assets", bad); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if writes := app.backend.Writes(); writes != 0 {
		t.Fatalf("expected no writes, got %d", writes)
	}

	app.backend.Equipment.FailOn("delete", "p1", errors.New("forbidden"))
	assets.Printers = nil
	assets.Settings.ElectricityCostPerKWh = 1.1
	rr := app.do(t, http.MethodPut, "/api/assets", assets)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if len(body.Failures) != 1 || !strings.Contains(body.Failures[0], "delete printer p1") {
		t.Fatalf("unexpected failures: %+v", body)
	}
	if upserts := app.backend.Settings.Upserts(); upserts != 1 {
		t.Fatalf("settings write must still be applied, got %d upserts", upserts)
	}
}

func TestFoldersAndReports(t *testing.T) {
	app := newTestApp(t)

	rr := app.do(t, http.MethodPost, "/api/folders", map[string]string{"name": "Client B"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	created := decode[entity.Folder](t, rr)

	if rr := app.do(t, http.MethodPost, "/api/folders", map[string]string{"name": ""}); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty name, got %d", rr.Code)
	}

	app.do(t, http.MethodPost, "/api/projects", saveProjectRequest{
		FolderID: created.ID, Name: "Bracket", EquipmentID: "p1", MaterialID: "m1", Job: referenceJob,
	})

	summaries := decode[[]report.Summary](t, app.do(t, http.MethodGet, "/api/reports/folders", nil))
	if len(summaries) != 2 || summaries[0].FolderName != "Client B" || summaries[0].Jobs != 1 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	rr = app.do(t, http.MethodGet, "/api/reports/folders.xlsx", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}
	book, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows(report.JobsSheet)
	if err != nil || len(rows) != 2 {
		t.Fatalf("expected one job row, got %v (err=%v)", rows, err)
	}

	if rr := app.do(t, http.MethodDelete, "/api/folders/"+created.ID, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	summaries = decode[[]report.Summary](t, app.do(t, http.MethodGet, "/api/reports/folders", nil))
	if last := summaries[len(summaries)-1]; last.FolderID != "" || last.Jobs != 1 {
		t.Fatalf("expected the job to be reported as unfiled, got %+v", summaries)
	}
}

func TestBackendFailureIsBadGateway(t *testing.T) {
	app := newTestApp(t)
	app.backend.Folders.FailOn("list", "", errors.New("connection reset"))

	rr := app.do(t, http.MethodGet, "/api/folders", nil)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "connection reset") {
		t.Fatalf("backend details must not leak: %s", rr.Body.String())
	}
}

func nearlyEqual(a, b float64) bool {
	const eps = 1e-9
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}
