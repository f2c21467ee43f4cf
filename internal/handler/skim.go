package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/web3-frozen/ovn-pools/internal/skim"
)

// SkimChecker runs the payout listener reconciliation.
type SkimChecker interface {
	Check(ctx context.Context) (skim.Report, error)
}

// SkimCheck serves GET /skim/check and runs the check synchronously.
func SkimCheck(c SkimChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := c.Check(r.Context())
		if err != nil {
			logger.Error("skim check", "error", err)
			writeError(w, http.StatusInternalServerError, "skim check failed")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
