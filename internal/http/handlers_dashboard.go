package http

import (
	"net/http"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

type budgetResponse struct {
	Period core.Period         `json:"period"`
	Budget *core.MonthlyBudget `json:"budget"`
}

// handleGetBudget returns {"budget": null} for a month without one.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query(), s.ledger.Now())
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	b, err := s.ledger.Budget(r.Context(), p.Year, p.Month)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Data(budgetResponse{Period: p, Budget: b}).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	if req.Month == nil {
		s.fail(w, r, core.ErrInvalidMonth, applog.OpUpdate)
		return
	}
	b, err := s.ledger.SetBudget(r.Context(), req.Year, *req.Month, req.TotalBudget)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NewJSONResponse().Data(b).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(r.URL.Query(), s.ledger.Now())
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	ov, err := s.ledger.Dashboard(r.Context(), p)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Data(ov).Write(w)
}
