package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/openforecast/marketd/internal/domain"
)

// MarketLedger defines the ledger methods that the market handler requires.
// It is declared locally so the handler package does not depend on the
// concrete ledger implementation.
type MarketLedger interface {
	CreateMarket(ctx context.Context, creator, question, option1, option2 string, duration time.Duration) (domain.Market, error)
	GetMarket(ctx context.Context, marketID int64) (domain.Market, error)
	ListMarkets(ctx context.Context, filter domain.MarketFilter, opts domain.ListOpts) ([]domain.Market, error)
	CountMarkets(ctx context.Context) (int64, error)
	GetMarketOdds(ctx context.Context, marketID int64) (domain.MarketOdds, error)
	PriceImpact(ctx context.Context, marketID int64, option int, amount float64) (float64, error)
	BuyPosition(ctx context.Context, userID string, marketID int64, option int, amount float64) error
	GetUserPosition(ctx context.Context, marketID int64, userID string) (domain.Position, error)
	ListMarketPositions(ctx context.Context, marketID int64) ([]domain.Position, error)
	ResolveMarket(ctx context.Context, caller string, marketID int64, winner int) error
	ClaimRewards(ctx context.Context, userID string, marketID int64) (float64, error)
	CanClaimRewards(ctx context.Context, marketID int64) (bool, error)
}

// MarketHandler serves market lifecycle and trading HTTP endpoints.
type MarketHandler struct {
	ledger MarketLedger
	events domain.EventStore
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given ledger and logger.
func NewMarketHandler(ledger MarketLedger, events domain.EventStore, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		ledger: ledger,
		events: events,
		logger: logger,
	}
}

type createMarketRequest struct {
	Question string `json:"question"`
	Option1  string `json:"option1"`
	Option2  string `json:"option2"`
	Duration string `json:"duration"`
}

// CreateMarket opens a new binary market.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	creator := identity(r)
	if creator == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req createMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" || req.Option1 == "" || req.Option2 == "" {
		writeError(w, http.StatusBadRequest, "question, option1, and option2 are required")
		return
	}
	dur, err := time.ParseDuration(req.Duration)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid duration")
		return
	}

	m, err := h.ledger.CreateMarket(r.Context(), creator, req.Question, req.Option1, req.Option2, dur)
	if err != nil {
		h.respondError(w, r, "create market", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ListMarkets returns markets with pagination, optionally filtered by state.
// GET /api/markets?status=open&limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	filter := domain.MarketFilter(r.URL.Query().Get("status"))
	switch filter {
	case domain.MarketFilterAll, domain.MarketFilterOpen, domain.MarketFilterResolved:
	default:
		writeError(w, http.StatusBadRequest, "invalid status filter (valid: open, resolved)")
		return
	}

	markets, err := h.ledger.ListMarkets(r.Context(), filter, opts)
	if err != nil {
		h.respondError(w, r, "list markets", err)
		return
	}
	total, err := h.ledger.CountMarkets(r.Context())
	if err != nil {
		h.respondError(w, r, "count markets", err)
		return
	}

	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: markets,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	m, err := h.ledger.GetMarket(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get market", err)
		return
	}

	claimable, err := h.ledger.CanClaimRewards(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "check claimable", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		domain.Market
		Claimable bool `json:"claimable"`
	}{Market: m, Claimable: claimable})
}

// GetOdds returns the pricing view of a market.
// GET /api/markets/{id}/odds
func (h *MarketHandler) GetOdds(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	odds, err := h.ledger.GetMarketOdds(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get odds", err)
		return
	}
	writeJSON(w, http.StatusOK, odds)
}

// GetImpact returns the advisory price impact of a hypothetical stake.
// GET /api/markets/{id}/impact?option=1&amount=25
func (h *MarketHandler) GetImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	option, err := strconv.Atoi(r.URL.Query().Get("option"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid option")
		return
	}
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	impact, err := h.ledger.PriceImpact(r.Context(), id, option, amount)
	if err != nil {
		h.respondError(w, r, "price impact", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"impact": impact})
}

type buyPositionRequest struct {
	Option int     `json:"option"`
	Amount float64 `json:"amount"`
}

// BuyPosition stakes the caller on a market option.
// POST /api/markets/{id}/position
func (h *MarketHandler) BuyPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req buyPositionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.BuyPosition(r.Context(), userID, id, req.Option, req.Amount); err != nil {
		h.respondError(w, r, "buy position", err)
		return
	}

	pos, err := h.ledger.GetUserPosition(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, r, "get position", err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// GetPosition returns the caller's position in a market.
// GET /api/markets/{id}/position
func (h *MarketHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	pos, err := h.ledger.GetUserPosition(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, r, "get position", err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// ListPositions returns every position in a market.
// GET /api/markets/{id}/positions
func (h *MarketHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	positions, err := h.ledger.ListMarketPositions(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "list positions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

type resolveMarketRequest struct {
	Winner int `json:"winner"`
}

// ResolveMarket records the outcome of an ended market. Admin only.
// POST /api/markets/{id}/resolve
func (h *MarketHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	caller := identity(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	var req resolveMarketRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.ledger.ResolveMarket(r.Context(), caller, id, req.Winner); err != nil {
		h.respondError(w, r, "resolve market", err)
		return
	}

	m, err := h.ledger.GetMarket(r.Context(), id)
	if err != nil {
		h.respondError(w, r, "get market", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ClaimRewards pays out the caller's winning position.
// POST /api/markets/{id}/claim
func (h *MarketHandler) ClaimRewards(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}
	userID := identity(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing X-User-ID header")
		return
	}

	payout, err := h.ledger.ClaimRewards(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, "claim rewards", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"payout": payout})
}

// ListEvents returns a market's ledger events in append order.
// GET /api/markets/{id}/events
func (h *MarketHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := marketID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	events, err := h.events.ListByMarket(r.Context(), id, parseListOpts(r))
	if err != nil {
		h.respondError(w, r, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// respondError maps a ledger error to an HTTP response, logging server-side
// failures.
func (h *MarketHandler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
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
