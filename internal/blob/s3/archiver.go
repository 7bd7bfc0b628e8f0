package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/openforecast/marketd/internal/domain"
)

// BlobWriter is the narrow upload interface the archiver requires.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// KeyChecker reports whether an archive object already exists.
type KeyChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// ArchiverConfig controls the archive sweep.
type ArchiverConfig struct {
	Interval time.Duration
	Prefix   string
}

// Archiver periodically snapshots finalized markets to object storage. A
// snapshot bundles the market record with its positions, disputes, and event
// log so the primary store can eventually be pruned.
//
// Deletion of archived markets from the primary store is intentionally NOT
// performed here.
type Archiver struct {
	cfg       ArchiverConfig
	writer    BlobWriter
	checker   KeyChecker
	markets   domain.MarketStore
	positions domain.PositionStore
	disputes  domain.DisputeStore
	events    domain.EventStore
	clock     domain.Clock
	logger    *slog.Logger
}

// NewArchiver creates an Archiver.
func NewArchiver(
	cfg ArchiverConfig,
	writer BlobWriter,
	checker KeyChecker,
	markets domain.MarketStore,
	positions domain.PositionStore,
	disputes domain.DisputeStore,
	events domain.EventStore,
	clock domain.Clock,
	logger *slog.Logger,
) *Archiver {
	if cfg.Prefix == "" {
		cfg.Prefix = "markets"
	}
	return &Archiver{
		cfg:       cfg,
		writer:    writer,
		checker:   checker,
		markets:   markets,
		positions: positions,
		disputes:  disputes,
		events:    events,
		clock:     clock,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// marketSnapshot is the archived representation of a finalized market.
type marketSnapshot struct {
	Market     domain.Market     `json:"market"`
	Positions  []domain.Position `json:"positions"`
	Disputes   []domain.Dispute  `json:"disputes"`
	Events     []domain.Event    `json:"events"`
	ArchivedAt time.Time         `json:"archived_at"`
}

// Run sweeps finalized markets on the configured interval until ctx is
// cancelled. It should be called in a goroutine.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := a.ArchiveFinalized(ctx)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive sweep failed",
					slog.String("error", err.Error()),
				)
				continue
			}
			if n > 0 {
				a.logger.InfoContext(ctx, "archive sweep complete",
					slog.Int("archived", n),
				)
			}
		}
	}
}

// ArchiveFinalized uploads a snapshot for every finalized market that has not
// been archived yet and returns how many snapshots were written.
func (a *Archiver) ArchiveFinalized(ctx context.Context) (int, error) {
	resolved, err := a.markets.List(ctx, domain.MarketFilterResolved, domain.ListOpts{})
	if err != nil {
		return 0, fmt.Errorf("s3blob: list resolved markets: %w", err)
	}

	now := a.clock.Now()
	archived := 0
	for _, m := range resolved {
		if !m.Finalized(now) {
			continue
		}

		key := a.snapshotKey(m.ID)
		exists, err := a.checker.Exists(ctx, key)
		if err != nil {
			return archived, fmt.Errorf("s3blob: check archive %s: %w", key, err)
		}
		if exists {
			continue
		}

		if err := a.archiveMarket(ctx, m, key, now); err != nil {
			return archived, err
		}
		archived++
	}
	return archived, nil
}

// archiveMarket assembles and uploads one market snapshot.
func (a *Archiver) archiveMarket(ctx context.Context, m domain.Market, key string, now time.Time) error {
	positions, err := a.positions.ListByMarket(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("s3blob: archive market %d positions: %w", m.ID, err)
	}
	disputes, err := a.disputes.ListByMarket(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("s3blob: archive market %d disputes: %w", m.ID, err)
	}
	events, err := a.events.ListByMarket(ctx, m.ID, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("s3blob: archive market %d events: %w", m.ID, err)
	}

	snap := marketSnapshot{
		Market:     m,
		Positions:  positions,
		Disputes:   disputes,
		Events:     events,
		ArchivedAt: now,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("s3blob: archive market %d marshal: %w", m.ID, err)
	}

	if err := a.writer.Put(ctx, key, &buf, "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive market %d upload: %w", m.ID, err)
	}

	a.logger.InfoContext(ctx, "market archived",
		slog.Int64("market_id", m.ID),
		slog.String("key", key),
	)
	return nil
}

// snapshotKey builds the object key for a market snapshot, partitioned by
// market ID:
//
//	markets/42.json
func (a *Archiver) snapshotKey(marketID int64) string {
	return fmt.Sprintf("%s/%d.json", a.cfg.Prefix, marketID)
}
