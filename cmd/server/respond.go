package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/Simplici0/printfleet/internal/editor"
	"github.com/Simplici0/printfleet/internal/entity"
	"github.com/Simplici0/printfleet/internal/jobs"
	"github.com/Simplici0/printfleet/internal/pricing"
	"github.com/Simplici0/printfleet/internal/store"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error    string              `json:"error"`
	Fields   []entity.FieldError `json:"fields,omitempty"`
	Failures []string            `json:"failures,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// writeFailure maps a service error onto a response. Backend errors are logged and
// answered with a generic message.
func (s *server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var verr *entity.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, jobs.ErrInsufficientStock),
		errors.Is(err, jobs.ErrFolderRequired),
		errors.Is(err, jobs.ErrNameRequired),
		errors.Is(err, jobs.ErrSelectionRequired),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, editor.ErrUnknownAsset):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, editor.ErrSaveFailed):
		body := errorBody{Error: "save failed; some changes may have been applied"}
		var merr *multierror.Error
		if errors.As(err, &merr) {
			for _, e := range merr.Errors {
				body.Failures = append(body.Failures, e.Error())
			}
		}
		s.log.Warn("bulk save failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, body)
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusBadGateway, "storage backend unavailable")
	}
}
