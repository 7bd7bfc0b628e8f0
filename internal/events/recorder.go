// Package events records ledger events for indexers and live observers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openforecast/marketd/internal/domain"
)

// Pub/sub channels by event class. The WebSocket hub subscribes to these.
const (
	ChannelMarkets  = "ch:markets"
	ChannelDisputes = "ch:disputes"
	ChannelClaims   = "ch:claims"
	ChannelAdmins   = "ch:admins"
)

// Recorder appends ledger events to the durable event log and fans them out
// on the event bus. Recording is best-effort: ledger state is canonical, so
// a failed append or publish is logged and never fails the operation that
// produced the event.
type Recorder struct {
	store  domain.EventStore
	bus    domain.EventBus
	clock  domain.Clock
	logger *slog.Logger
}

// NewRecorder creates a Recorder. The bus may be nil when no live fan-out is
// configured.
func NewRecorder(store domain.EventStore, bus domain.EventBus, clock domain.Clock, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		bus:    bus,
		clock:  clock,
		logger: logger.With(slog.String("component", "events")),
	}
}

// Record assigns the event ID and timestamp, appends the event to the log,
// and publishes it on the class channel.
func (r *Recorder) Record(ctx context.Context, e domain.Event) {
	e.ID = uuid.New().String()
	e.CreatedAt = r.clock.Now()

	if err := r.store.Append(ctx, e); err != nil {
		r.logger.WarnContext(ctx, "event append failed",
			slog.String("type", string(e.Type)),
			slog.Int64("market_id", e.MarketID),
			slog.String("error", err.Error()),
		)
	}

	if r.bus == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		r.logger.WarnContext(ctx, "event marshal failed",
			slog.String("type", string(e.Type)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := r.bus.Publish(ctx, channelFor(e.Type), payload); err != nil {
		r.logger.WarnContext(ctx, "event publish failed",
			slog.String("type", string(e.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// channelFor maps an event type to its pub/sub channel.
func channelFor(t domain.EventType) string {
	switch t {
	case domain.EventMarketDisputed, domain.EventDisputeResolved:
		return ChannelDisputes
	case domain.EventRewardsClaimed:
		return ChannelClaims
	case domain.EventAdminAdded, domain.EventAdminRemoved:
		return ChannelAdmins
	default:
		return ChannelMarkets
	}
}
