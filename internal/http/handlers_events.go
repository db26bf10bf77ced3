package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gastos/internal/dashboard"
	"gastos/internal/events"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

const streamBuffer = 64

type streamEvent struct {
	name string
	data any
}

// parseCollections reads ?collections=a,b. Empty means all of them.
func parseCollections(raw string) ([]events.Collection, error) {
	if strings.TrimSpace(raw) == "" {
		return events.AllCollections, nil
	}
	var out []events.Collection
	for _, part := range strings.Split(raw, ",") {
		c := events.Collection(strings.TrimSpace(part))
		switch c {
		case events.Categories, events.Expenses, events.MonthlyBudgets:
			out = append(out, c)
		default:
			return nil, fmt.Errorf("%w: unknown collection %q", errBadRequest, string(c))
		}
	}
	return out, nil
}

// handleEvents streams committed changes as Server-Sent Events. With
// ?year=&month= it also pushes a "dashboard" event holding the recomputed
// overview after each change, starting with the current one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalServerError("streaming unsupported").Write(w)
		return
	}
	collections, err := parseCollections(r.URL.Query().Get("collections"))
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}

	queue := make(chan streamEvent, streamBuffer)
	send := func(ev streamEvent) {
		select {
		case queue <- ev:
		default:
			logger.Warn("Event stream full, dropping event", "event", ev.name)
		}
	}

	unsubscribe := s.ledger.Bus().Subscribe(func(c events.Change) {
		send(streamEvent{name: "change", data: c})
	}, collections...)
	defer unsubscribe()

	if q := r.URL.Query(); hasPeriod(q) {
		p, err := ParsePeriod(q, s.ledger.Now())
		if err != nil {
			s.fail(w, r, err, applog.OpRead)
			return
		}
		live, err := services.NewLiveOverview(ctx, s.ledger, p, func(ov dashboard.Overview) {
			send(streamEvent{name: "dashboard", data: ov})
		})
		if err != nil {
			s.fail(w, r, err, applog.OpRead)
			return
		}
		// The constructor already queued the initial overview.
		defer live.Close()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.DebugContext(ctx, "Event stream closed by client")
			return
		case <-s.closing:
			return
		case ev := <-queue:
			if err := writeStreamEvent(w, ev); err != nil {
				logger.WarnContext(ctx, "Event stream write failed", applog.FieldError, err.Error())
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, ev streamEvent) error {
	data, err := json.Marshal(ev.data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, data)
	return err
}
