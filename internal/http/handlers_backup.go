package http

import (
	"net/http"

	"gastos/internal/backup"
	applog "gastos/internal/log"
	"gastos/internal/prefs"
)

// handleExport sends the whole dataset as a downloadable snapshot.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.ExportSnapshot(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.OpExport)
		return
	}
	body, err := backup.Encode(snap)
	if err != nil {
		s.fail(w, r, err, applog.OpExport)
		return
	}
	NewJSONResponse().
		Attachment(backup.Filename(snap.ExportedAt)).
		Raw(body).
		Write(w)
}

// handleImport replaces every collection with the uploaded snapshot.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := ReadImportBody(w, r)
	if err != nil {
		s.fail(w, r, err, applog.OpImport)
		return
	}
	if err := s.ledger.ImportSnapshot(r.Context(), data); err != nil {
		s.fail(w, r, err, applog.OpImport)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(themeBody{Theme: string(s.prefs.Theme())}).Write(w)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	t, err := prefs.ParseTheme(sanitizeInput(req.Theme))
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	if err := s.prefs.SetTheme(r.Context(), t); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Data(themeBody{Theme: string(t)}).Write(w)
}
