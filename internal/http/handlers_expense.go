package http

import (
	"fmt"
	"net/http"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

// handleListExpenses lists every expense, or one month's with ?year=&month=.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		items []core.Expense
		err   error
	)
	if q := r.URL.Query(); hasPeriod(q) {
		var p core.Period
		if p, err = ParsePeriod(q, s.ledger.Now()); err != nil {
			s.fail(w, r, err, applog.OpList)
			return
		}
		items, err = s.ledger.MonthExpenses(ctx, p)
	} else {
		items, err = s.ledger.ListExpenses(ctx)
	}
	if err != nil {
		s.fail(w, r, err, applog.OpList)
		return
	}
	if items == nil {
		items = []core.Expense{}
	}
	NewJSONResponse().Data(items).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	e, ok, err := s.ledger.GetExpense(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	if !ok {
		s.fail(w, r, fmt.Errorf("expense %d: %w", id, core.ErrNotFound), applog.OpRead)
		return
	}
	NewJSONResponse().Data(e).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	e, err := req.expense(s.ledger.Location())
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	id, err := s.ledger.AddExpense(r.Context(), e)
	if err != nil {
		s.fail(w, r, err, applog.OpCreate)
		return
	}
	Created(id).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	var req expensePatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	patch, err := req.patch(s.ledger.Location())
	if err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	if err := s.ledger.UpdateExpense(r.Context(), id, patch); err != nil {
		s.fail(w, r, err, applog.OpUpdate)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		s.fail(w, r, err, applog.OpDelete)
		return
	}
	NoContent().Write(w)
}

// handleRepeatExpense copies an expense to {"date": ...}, or to now when the
// body is empty.
func (s *Server) handleRepeatExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		s.fail(w, r, err, applog.OpRepeat)
		return
	}
	var req repeatRequest
	if err := DecodeOptionalJSON(w, r, &req); err != nil {
		s.fail(w, r, err, applog.OpRepeat)
		return
	}
	date, err := ParseDate(req.Date, s.ledger.Location())
	if err != nil {
		s.fail(w, r, err, applog.OpRepeat)
		return
	}
	newID, err := s.ledger.RepeatExpense(r.Context(), id, date)
	if err != nil {
		s.fail(w, r, err, applog.OpRepeat)
		return
	}
	Created(newID).Write(w)
}
