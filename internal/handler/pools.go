package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/ovn-pools/internal/store"
)

// PoolReader reads persisted pools.
type PoolReader interface {
	ListPools(ctx context.Context, enabledOnly bool) ([]store.Pool, error)
	GetPool(ctx context.Context, address string) (*store.Pool, error)
}

// ListPools serves GET /pools/all. ?enabled=true limits to enabled pools.
func ListPools(s PoolReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabledOnly := r.URL.Query().Get("enabled") == "true"
		pools, err := s.ListPools(r.Context(), enabledOnly)
		if err != nil {
			logger.Error("list pools", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list pools")
			return
		}
		if pools == nil {
			pools = []store.Pool{}
		}
		writeJSON(w, http.StatusOK, pools)
	}
}

// GetPool serves GET /pools/{address}.
func GetPool(s PoolReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := chi.URLParam(r, "address")
		if !common.IsHexAddress(address) {
			writeError(w, http.StatusBadRequest, "invalid pool address")
			return
		}

		p, err := s.GetPool(r.Context(), strings.ToLower(address))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pool not found")
			return
		}
		if err != nil {
			logger.Error("get pool", "address", address, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get pool")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
