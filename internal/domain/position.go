package domain

import "time"

// Position is a user's accumulated stake per option within a market.
// It is created lazily on first stake and unique per (market, user).
type Position struct {
	MarketID      int64     `json:"market_id"`
	UserID        string    `json:"user_id"`
	Option1Amount float64   `json:"option1_amount"`
	Option2Amount float64   `json:"option2_amount"`
	Claimed       bool      `json:"claimed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AmountOn returns the user's stake on the given option.
func (p Position) AmountOn(option int) float64 {
	if option == Option1 {
		return p.Option1Amount
	}
	return p.Option2Amount
}
