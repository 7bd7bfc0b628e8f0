package domain

import "time"

// DisputeStatus is the adjudication state of a dispute.
type DisputeStatus string

const (
	// DisputeOpen means the challenge has been posted but not adjudicated.
	DisputeOpen DisputeStatus = "open"
	// DisputeValid means an admin upheld the challenge: the proposed winner
	// replaced the market winner and the bond was refunded.
	DisputeValid DisputeStatus = "valid"
	// DisputeInvalid means an admin rejected the challenge: the bond was
	// slashed and the winner left unchanged.
	DisputeInvalid DisputeStatus = "invalid"
)

// Dispute is a bonded challenge against a market resolution, keyed by
// (MarketID, Index) with Index assigned sequentially per market.
type Dispute struct {
	MarketID       int64         `json:"market_id"`
	Index          int           `json:"index"`
	Disputer       string        `json:"disputer"`
	ProposedWinner int           `json:"proposed_winner"`
	BondAmount     float64       `json:"bond_amount"`
	Reason         string        `json:"reason"`
	Status         DisputeStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
}

// Resolved reports whether the dispute has been adjudicated either way.
func (d Dispute) Resolved() bool {
	return d.Status != DisputeOpen
}
