package domain

import "time"

// EventType identifies a ledger event for observers and indexers.
type EventType string

const (
	EventMarketCreated     EventType = "market_created"
	EventPositionTaken     EventType = "position_taken"
	EventLiquidityInjected EventType = "liquidity_injected"
	EventMarketResolved    EventType = "market_resolved"
	EventMarketDisputed    EventType = "market_disputed"
	EventDisputeResolved   EventType = "dispute_resolved"
	EventRewardsClaimed    EventType = "rewards_claimed"
	EventAdminAdded        EventType = "admin_added"
	EventAdminRemoved      EventType = "admin_removed"
)

// Event is a single ledger event. Payload carries the event-specific fields
// (option, amount, winner, bond, ...) as flat JSON-friendly values.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	MarketID  int64          `json:"market_id,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
