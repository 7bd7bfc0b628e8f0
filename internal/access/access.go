// Package access implements the owner/admin authorization model used by
// resolution and dispute-adjudication operations.
package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openforecast/marketd/internal/domain"
	"github.com/openforecast/marketd/internal/events"
)

// Controller answers authorization questions against an immutable owner and
// a persisted, mutable admin set. The owner is always an admin and can never
// be removed.
type Controller struct {
	owner  string
	admins domain.AdminStore
	rec    *events.Recorder
	logger *slog.Logger
}

// NewController creates a Controller for the given owner identity.
func NewController(owner string, admins domain.AdminStore, rec *events.Recorder, logger *slog.Logger) *Controller {
	return &Controller{
		owner:  owner,
		admins: admins,
		rec:    rec,
		logger: logger.With(slog.String("component", "access")),
	}
}

// Owner returns the owner identity.
func (c *Controller) Owner() string {
	return c.owner
}

// IsAdmin reports whether identity is the owner or a member of the admin set.
func (c *Controller) IsAdmin(ctx context.Context, identity string) (bool, error) {
	if identity == c.owner {
		return true, nil
	}
	ok, err := c.admins.IsAdmin(ctx, identity)
	if err != nil {
		return false, fmt.Errorf("access: check admin %q: %w", identity, err)
	}
	return ok, nil
}

// RequireAdmin returns ErrOnlyAdmin unless identity passes IsAdmin.
func (c *Controller) RequireAdmin(ctx context.Context, identity string) error {
	ok, err := c.IsAdmin(ctx, identity)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrOnlyAdmin
	}
	return nil
}

// AddAdmin adds identity to the admin set. Only the owner may call it.
func (c *Controller) AddAdmin(ctx context.Context, caller, identity string) error {
	if caller != c.owner {
		return domain.ErrOnlyOwner
	}
	if err := c.admins.Add(ctx, identity); err != nil {
		return fmt.Errorf("access: add admin %q: %w", identity, err)
	}

	c.logger.InfoContext(ctx, "admin added", slog.String("identity", identity))
	c.rec.Record(ctx, domain.Event{
		Type:    domain.EventAdminAdded,
		Actor:   caller,
		Payload: map[string]any{"identity": identity},
	})
	return nil
}

// RemoveAdmin removes identity from the admin set. Only the owner may call
// it, and the owner itself can never be removed.
func (c *Controller) RemoveAdmin(ctx context.Context, caller, identity string) error {
	if caller != c.owner {
		return domain.ErrOnlyOwner
	}
	if identity == c.owner {
		return domain.ErrCannotRemoveOwner
	}
	if err := c.admins.Remove(ctx, identity); err != nil {
		return fmt.Errorf("access: remove admin %q: %w", identity, err)
	}

	c.logger.InfoContext(ctx, "admin removed", slog.String("identity", identity))
	c.rec.Record(ctx, domain.Event{
		Type:    domain.EventAdminRemoved,
		Actor:   caller,
		Payload: map[string]any{"identity": identity},
	})
	return nil
}

// ListAdmins returns the owner followed by the stored admin identities.
func (c *Controller) ListAdmins(ctx context.Context) ([]string, error) {
	stored, err := c.admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("access: list admins: %w", err)
	}
	out := make([]string, 0, len(stored)+1)
	out = append(out, c.owner)
	for _, id := range stored {
		if id != c.owner {
			out = append(out, id)
		}
	}
	return out, nil
}
