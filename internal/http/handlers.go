package http

import (
	"errors"
	"net/http"
	"strconv"

	"gastos/internal/backup"
	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/prefs"
)

// fail maps err to a status and writes the error envelope. Unexpected
// errors are logged and hidden from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, backup.ErrInvalidFormat):
		logger.DebugContext(ctx, "Rejected request", applog.FieldOperation, op, applog.FieldError, err.Error())
		BadRequestError(err.Error()).Write(w)
	case core.IsValidation(err), errors.Is(err, prefs.ErrInvalidTheme):
		logger.DebugContext(ctx, "Validation failed", applog.FieldOperation, op, applog.FieldError, err.Error())
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(err.Error()).Write(w)
	case errors.Is(err, backup.ErrImportFailed):
		s.access.LogError(ctx, "Import failed", err, applog.ComponentHTTP, op, nil)
		InternalServerError(err.Error()).Write(w)
	default:
		s.access.LogError(ctx, "Request failed", err, applog.ComponentHTTP, op,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
		InternalServerError("internal error").Write(w)
	}
}

func parseBoolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list := s.ledger.ActiveCategories
	if parseBoolQuery(r, "include_deleted") {
		list = s.ledger.AllCategories
	}
	cats, err := list(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	if cats == nil {
		cats = core.Categories{}
	}
	NewJSONResponse().Data(cats).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	id, err := s.ledger.AddCategory(r.Context(), req.category())
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	Created(id).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	var patch core.CategoryPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	sanitizePtr(patch.Name)
	sanitizePtr(patch.Color)
	if err := s.ledger.UpdateCategory(r.Context(), id, patch); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NoContent().Write(w)
}

// handleDeleteCategory soft deletes: the record stays so existing expenses
// keep resolving their name and color.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), id); err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	NoContent().Write(w)
}
