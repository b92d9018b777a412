package main

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/printfleet/internal/editor"
	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/jobs"
	"github.com/Simplici0/printfleet/internal/pricing"
	"github.com/Simplici0/printfleet/internal/report"
	"github.com/Simplici0/printfleet/internal/session"
)

type server struct {
	auth     *authService
	sessions *session.Registry
	log      *zap.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.middleware)
		r.Post("/calculate", s.handleCalculate)
		r.Post("/compare", s.handleCompare)
		r.Get("/assets", s.handleAssetsGet)
		r.Put("/assets", s.handleAssetsPut)
		r.Get("/projects", s.handleProjectsList)
		r.Post("/projects", s.handleProjectsCreate)
		r.Get("/projects/{id}", s.handleProjectDetail)
		r.Get("/projects/{id}/text", s.handleProjectText)
		r.Delete("/projects/{id}", s.handleProjectDelete)
		r.Get("/folders", s.handleFoldersList)
		r.Post("/folders", s.handleFoldersCreate)
		r.Delete("/folders/{id}", s.handleFolderDelete)
		r.Get("/reports/folders", s.handleFolderReport)
		r.Get("/reports/folders.xlsx", s.handleFolderReportXLSX)
		r.Get("/alerts", s.handleAlerts)
	})
	return r
}

// session returns the caller's session, answering the request itself on failure.
func (s *server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), accountFrom(r.Context()))
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type calculateRequest struct {
	EquipmentID string         `json:"equipment_id"`
	MaterialID  string         `json:"material_id"`
	Job         pricing.RawJob `json:"job"`
}

type calculateResponse struct {
	Results  pricing.Result `json:"results"`
	Lines    []pricing.Line `json:"lines"`
	Currency string         `json:"currency"`
	Invalid  []string       `json:"invalid,omitempty"`
}

func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	job, invalid := pricing.ParseJob(req.Job)
	result, settings, err := sess.Jobs.Quote(r.Context(), req.EquipmentID, req.MaterialID, job)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calculateResponse{
		Results:  result,
		Lines:    pricing.FormatResult(settings.CurrencySymbol, result),
		Currency: settings.CurrencySymbol,
		Invalid:  invalid,
	})
}

type sideRequest struct {
	EquipmentID  string `json:"equipment_id"`
	MaterialID   string `json:"material_id"`
	PrintHours   string `json:"print_hours"`
	PrintMinutes string `json:"print_minutes"`
	WeightGrams  string `json:"weight"`
	FailureRate  string `json:"failure_rate"`
}

func (sr sideRequest) side(prefix string, invalid *[]string) jobs.Side {
	field := func(name, raw string) float64 {
		n := pricing.ParseNumber(raw)
		if !n.Valid && strings.TrimSpace(raw) != "" {
			*invalid = append(*invalid, prefix+"."+name)
		}
		return n.Value
	}
	return jobs.Side{
		EquipmentID:  sr.EquipmentID,
		MaterialID:   sr.MaterialID,
		PrintHours:   field("print_hours", sr.PrintHours),
		PrintMinutes: field("print_minutes", sr.PrintMinutes),
		WeightGrams:  field("weight", sr.WeightGrams),
		FailureRate:  field("failure_rate", sr.FailureRate),
	}
}

type compareRequest struct {
	A sideRequest `json:"a"`
	B sideRequest `json:"b"`
}

type compareResponse struct {
	pricing.Comparison
	Invalid []string `json:"invalid,omitempty"`
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var invalid []string
	a, b := req.A.side("a", &invalid), req.B.side("b", &invalid)
	cmp, err := sess.Jobs.Compare(r.Context(), a, b)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{Comparison: cmp, Invalid: invalid})
}

func (s *server) handleAssetsGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	assets, err := sess.Editor.Reload(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *server) handleAssetsPut(w http.ResponseWriter, r *http.Request) {
	var assets editor.Assets
	if err := decodeJSON(r, &assets); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.Editor.Sync(r.Context(), assets); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.refreshAlerts(r, sess)
	writeJSON(w, http.StatusOK, sess.Editor.Working())
}

func (s *server) handleProjectsList(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	projects, err := sess.Jobs.List(r.Context(), r.URL.Query().Get("folder_id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filterProjects(projects, r.URL.Query().Get("q")))
}

// filterProjects keeps the projects whose name contains query, ignoring case.
func filterProjects(projects []entity.Project, query string) []entity.Project {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return projects
	}
	out := make([]entity.Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out
}

type saveProjectRequest struct {
	FolderID    string         `json:"folder_id"`
	Name        string         `json:"name"`
	EquipmentID string         `json:"equipment_id"`
	MaterialID  string         `json:"material_id"`
	Job         pricing.RawJob `json:"job"`
}

type saveProjectResponse struct {
	Project entity.Project `json:"project"`
	Warning string         `json:"warning,omitempty"`
}

func (s *server) handleProjectsCreate(w http.ResponseWriter, r *http.Request) {
	var req saveProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	job, invalid := pricing.ParseJob(req.Job)
	if len(invalid) > 0 {
		fields := make([]entity.FieldError, 0, len(invalid))
		for _, name := range invalid {
			fields = append(fields, entity.FieldError{Field: name, Message: "is not a number"})
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid job fields", Fields: fields})
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	p, err := sess.Jobs.Save(r.Context(), jobs.Draft{
		FolderID:    req.FolderID,
		Name:        req.Name,
		EquipmentID: req.EquipmentID,
		MaterialID:  req.MaterialID,
		Job:         job,
	})
	switch {
	case errors.Is(err, jobs.ErrStockNotAdjusted):
		writeJSON(w, http.StatusCreated, saveProjectResponse{Project: p, Warning: err.Error()})
		return
	case err != nil:
		s.writeFailure(w, r, err)
		return
	}
	s.refreshAlerts(r, sess)
	writeJSON(w, http.StatusCreated, saveProjectResponse{Project: p})
}

type projectDetail struct {
	Project entity.Project `json:"project"`
	Lines   []pricing.Line `json:"lines"`
}

func (s *server) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	p, lines, ok := s.projectLines(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projectDetail{Project: p, Lines: lines})
}

// handleProjectText renders the frozen breakdown as plain text for pasting into a message.
func (s *server) handleProjectText(w http.ResponseWriter, r *http.Request) {
	p, lines, ok := s.projectLines(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, p.Name+"\n"+pricing.Text(lines))
}

// projectLines loads the project named in the route and formats its saved results.
func (s *server) projectLines(w http.ResponseWriter, r *http.Request) (entity.Project, []pricing.Line, bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return entity.Project{}, nil, false
	}
	p, err := sess.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return entity.Project{}, nil, false
	}
	settings, err := sess.Store.Settings.Get(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return entity.Project{}, nil, false
	}
	return p, pricing.FormatResult(settings.CurrencySymbol, p.Results), true
}

func (s *server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Jobs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleFoldersList(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	folders, err := sess.Jobs.Folders(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (s *server) handleFoldersCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	f, err := sess.Jobs.CreateFolder(r.Context(), req.Name)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *server) handleFolderDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Jobs.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleFolderReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	folders, projects, err := s.reportData(r, sess)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summaries(folders, projects))
}

func (s *server) handleFolderReportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	folders, projects, err := s.reportData(r, sess)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	settings, err := sess.Store.Settings.Get(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	book, err := report.Workbook(folders, projects, settings.CurrencySymbol)
	if err != nil {
		s.log.Error("build workbook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	defer book.Close()

	filename := "folders-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := book.Write(w); err != nil {
		s.log.Warn("write workbook", zap.Error(err))
	}
}

func (s *server) reportData(r *http.Request, sess *session.Session) ([]entity.Folder, []entity.Project, error) {
	folders, err := sess.Jobs.Folders(r.Context())
	if err != nil {
		return nil, nil, err
	}
	projects, err := sess.Jobs.List(r.Context(), "")
	if err != nil {
		return nil, nil, err
	}
	return folders, projects, nil
}

func (s *server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Alerts())
}

// refreshAlerts recomputes alerts after a write touched stock. Failures only delay the
// alerts until the next background refresh.
func (s *server) refreshAlerts(r *http.Request, sess *session.Session) {
	if err := sess.RefreshAlerts(r.Context()); err != nil {
		s.log.Warn("refresh alerts", zap.String("account_id", sess.AccountID), zap.Error(err))
	}
}
