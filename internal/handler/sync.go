package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/ovn-pools/internal/exchanger"
	"github.com/web3-frozen/ovn-pools/internal/pool"
	"github.com/web3-frozen/ovn-pools/internal/store"
)

// SyncTrigger starts reconciliation runs.
type SyncTrigger interface {
	Resolve(ctx context.Context, t pool.ExchangerType) error
	Trigger(ctx context.Context, types ...pool.ExchangerType) string
	LastSummary() (exchanger.Summary, bool)
}

// ExchangerLister reads the exchanger configuration rows.
type ExchangerLister interface {
	ListExchangers(ctx context.Context) ([]store.Exchanger, error)
}

type syncAccepted struct {
	RunID      string               `json:"run_id"`
	Exchangers []pool.ExchangerType `json:"exchangers,omitempty"`
}

// SyncAll serves GET /exchanger/sync/all. The run continues after the response.
func SyncAll(s SyncTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := s.Trigger(r.Context())
		writeJSON(w, http.StatusAccepted, syncAccepted{RunID: id})
	}
}

// SyncExchanger serves GET /exchanger/sync/{exchanger}.
func SyncExchanger(s SyncTrigger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := pool.ParseExchanger(chi.URLParam(r, "exchanger"))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown exchanger")
			return
		}

		if err := s.Resolve(r.Context(), t); err != nil {
			switch {
			case errors.Is(err, exchanger.ErrUnknownExchanger):
				writeError(w, http.StatusBadRequest, "unknown exchanger")
			case errors.Is(err, exchanger.ErrExchangerDisabled):
				writeError(w, http.StatusConflict, "exchanger is disabled")
			default:
				logger.Error("resolve exchanger", "exchanger", t, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to resolve exchanger")
			}
			return
		}

		id := s.Trigger(r.Context(), t)
		writeJSON(w, http.StatusAccepted, syncAccepted{RunID: id, Exchangers: []pool.ExchangerType{t}})
	}
}

type exchangerStatus struct {
	store.Exchanger
	Registered bool `json:"registered"`
}

type statusResponse struct {
	Exchangers []exchangerStatus  `json:"exchangers"`
	LastRun    *exchanger.Summary `json:"last_run"`
}

// Status serves GET /exchanger/status: configuration rows plus the last run.
func Status(ex ExchangerLister, registered func(pool.ExchangerType) bool, s SyncTrigger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := ex.ListExchangers(r.Context())
		if err != nil {
			logger.Error("list exchangers", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list exchangers")
			return
		}

		resp := statusResponse{Exchangers: make([]exchangerStatus, 0, len(rows))}
		for _, e := range rows {
			resp.Exchangers = append(resp.Exchangers, exchangerStatus{Exchanger: e, Registered: registered(e.Type)})
		}
		if sum, ok := s.LastSummary(); ok {
			resp.LastRun = &sum
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
