package access

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openforecast/marketd/internal/domain"
	"github.com/openforecast/marketd/internal/events"
	"github.com/openforecast/marketd/internal/store/memory"
)

func newController() *Controller {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := events.NewRecorder(memory.NewEventStore(), nil, domain.NewSystemClock(), logger)
	return NewController("owner", memory.NewAdminStore(), rec, logger)
}

func TestOwnerIsAlwaysAdmin(t *testing.T) {
	c := newController()
	ctx := context.Background()

	ok, err := c.IsAdmin(ctx, "owner")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, c.RequireAdmin(ctx, "owner"))
	assert.ErrorIs(t, c.RequireAdmin(ctx, "stranger"), domain.ErrOnlyAdmin)
}

func TestAddAdmin(t *testing.T) {
	c := newController()
	ctx := context.Background()

	err := c.AddAdmin(ctx, "stranger", "judge")
	assert.ErrorIs(t, err, domain.ErrOnlyOwner)

	require.NoError(t, c.AddAdmin(ctx, "owner", "judge"))
	ok, err := c.IsAdmin(ctx, "judge")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemoveAdmin(t *testing.T) {
	c := newController()
	ctx := context.Background()
	require.NoError(t, c.AddAdmin(ctx, "owner", "judge"))

	err := c.RemoveAdmin(ctx, "judge", "judge")
	assert.ErrorIs(t, err, domain.ErrOnlyOwner)

	err = c.RemoveAdmin(ctx, "owner", "owner")
	assert.ErrorIs(t, err, domain.ErrCannotRemoveOwner)

	require.NoError(t, c.RemoveAdmin(ctx, "owner", "judge"))
	ok, err := c.IsAdmin(ctx, "judge")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListAdmins(t *testing.T) {
	c := newController()
	ctx := context.Background()
	require.NoError(t, c.AddAdmin(ctx, "owner", "judge"))
	require.NoError(t, c.AddAdmin(ctx, "owner", "arbiter"))

	admins, err := c.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 3)
	assert.Equal(t, "owner", admins[0])
	assert.ElementsMatch(t, []string{"judge", "arbiter"}, admins[1:])
}
