package handler

import (
	"log/slog"
	"net/http"

	"github.com/openforecast/marketd/internal/domain"
)

// TreasuryHandler serves operational account endpoints backed by the
// treasury. Production deployments put a real wallet gateway in front of
// these; they exist so operators and tests can fund and inspect accounts.
type TreasuryHandler struct {
	treasury domain.Treasury
	logger   *slog.Logger
}

// NewTreasuryHandler creates a TreasuryHandler with the given treasury.
func NewTreasuryHandler(treasury domain.Treasury, logger *slog.Logger) *TreasuryHandler {
	return &TreasuryHandler{
		treasury: treasury,
		logger:   logger,
	}
}

type depositRequest struct {
	Amount float64 `json:"amount"`
}

// Deposit funds the caller's account.
// POST /api/treasury/deposit
func (h *TreasuryHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req depositRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.treasury.Deposit(r.Context(), userID, req.Amount); err != nil {
		h.respondError(w, r, "deposit", err)
		return
	}

	balance, err := h.treasury.Balance(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, "get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

// Balance returns the caller's account balance.
// GET /api/treasury/balance
func (h *TreasuryHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	balance, err := h.treasury.Balance(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, "get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

func (h *TreasuryHandler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
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
