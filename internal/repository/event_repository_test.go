package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/testutil"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRepository_CRUD(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := repository.NewEventRepository(pool)
	tickets := repository.NewTicketRepository(pool)
	ctx := context.Background()

	organizerID := testutil.CreateUser(t, pool, "organizer", true)
	buyerID := testutil.CreateUser(t, pool, "buyer", false)

	event, errs := model.NewEvent(organizerID, model.CreateEventParams{
		Title:       "Concert",
		Description: "Open air",
		ScheduledAt: time.Now().Add(48 * time.Hour),
	})
	require.Empty(t, errs)

	created, err := repo.Create(ctx, event)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, event.EventID, created.EventID)
	assert.Equal(t, model.DefaultGeneralCapacity, created.GeneralCapacity)
	assert.Nil(t, created.VenueID)

	found, err := repo.FindByEventID(ctx, created.EventID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	found.State = model.EventStateSoldOut
	found.VipCapacity = 0
	updated, err := repo.Update(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, model.EventStateSoldOut, updated.State)
	assert.Equal(t, 0, updated.VipCapacity)

	events, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	ticketID := testutil.CreateTicket(t, pool, created.ID, buyerID, 1, model.TicketTypeGeneral)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	_, err = tickets.FindByID(ctx, ticketID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	_, err = repo.FindByEventID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestEventRepository_ForUpdateRequiresTransaction(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := repository.NewEventRepository(pool)
	tx := repository.NewTxManager(pool)
	ctx := context.Background()

	organizerID := testutil.CreateUser(t, pool, "organizer", true)
	event := testutil.CreateEvent(t, pool, organizerID, 10, 5, model.EventStateAvailable)

	rollback := errors.New("rollback")
	err := tx.WithTx(ctx, func(ctx context.Context) error {
		locked, err := repo.FindByIDForUpdate(ctx, event.ID)
		require.NoError(t, err)

		locked.Title = "Changed inside tx"
		_, err = repo.Update(ctx, locked)
		require.NoError(t, err)
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	found, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, found.Title)
}
