package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/openforecast/marketd/internal/domain"
)

// DisputeLedger defines the ledger methods that the dispute handler requires.
type DisputeLedger interface {
	DisputeMarket(ctx context.Context, disputer string, marketID int64, proposedWinner int, reason string, bond float64) (domain.Dispute, error)
	ResolveDispute(ctx context.Context, caller string, marketID int64, index int, valid bool) error
	GetMarketDisputes(ctx context.Context, marketID int64) ([]domain.Dispute, error)
	IsInDisputePeriod(ctx context.Context, marketID int64) (bool, error)
}

// DisputeHandler serves dispute HTTP endpoints.
type DisputeHandler struct {
	ledger DisputeLedger
	logger *slog.Logger
}

// NewDisputeHandler creates a DisputeHandler with the given ledger and logger.
func NewDisputeHandler(ledger DisputeLedger, logger *slog.Logger) *DisputeHandler {
	return &DisputeHandler{
		ledger: ledger,
		logger: logger,
	}
}

type openDisputeRequest struct {
	ProposedWinner int     `json:"proposed_winner"`
	Reason         string  `json:"reason"`
	Bond           float64 `json:"bond"`
}

// OpenDispute challenges a market's recorded outcome with a bond.
// POST /api/markets/{id}/disputes
func (h *DisputeHandler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	disputer := identity(r)
	if disputer == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req openDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.ledger.DisputeMarket(r.Context(), disputer, id, req.ProposedWinner, req.Reason, req.Bond)
	if err != nil {
		h.respondError(w, r, "open dispute", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ListDisputes returns a market's disputes in index order, along with whether
// the dispute window is still open.
// GET /api/markets/{id}/disputes
func (h *DisputeHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	disputes, err := h.ledger.GetMarketDisputes(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "list disputes", err)
		return
	}
	inWindow, err := h.ledger.IsInDisputePeriod(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "check dispute window", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"disputes":          disputes,
		"in_dispute_period": inWindow,
	})
}

type resolveDisputeRequest struct {
	Valid bool `json:"valid"`
}

// ResolveDispute adjudicates a dispute. Admin only.
// POST /api/markets/{id}/disputes/{index}/resolve
func (h *DisputeHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "invalid dispute index")
		return
	}
	caller := identity(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req resolveDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.ResolveDispute(r.Context(), caller, id, index, req.Valid); err != nil {
		h.respondError(w, r, "resolve dispute", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DisputeHandler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if isClientError(err) {
		writeError(w, status, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: "+op+" failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, status, "failed to "+op)
}
