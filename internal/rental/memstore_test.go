package rental

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tcw0/lendit-sub000/internal/models"
)

func TestMemoryStore_SaveRentalCAS(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	r := &models.Rental{RenterID: 1, LenderID: 2, State: models.RentalStateOffer}
	require.NoError(t, store.CreateRental(ctx, r))

	first, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	second, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)

	first.State = models.RentalStateAccepted
	require.NoError(t, store.SaveRental(ctx, first))
	require.Equal(t, int64(1), first.Version)

	// The second copy was read at version 0 and must lose the race
	second.State = models.RentalStateDeclined
	err = store.SaveRental(ctx, second)
	require.True(t, errors.Is(err, errStaleRecord))

	stored, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStateAccepted, stored.State)
}

func TestMemoryStore_SaveHandoverCAS(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	h := &models.Handover{RentalID: 1, Type: models.HandoverTypePickup, Pictures: []string{"a.jpg"}}
	require.NoError(t, store.CreateHandover(ctx, h))

	first, err := store.GetHandover(ctx, h.ID)
	require.NoError(t, err)
	second, err := store.GetHandover(ctx, h.ID)
	require.NoError(t, err)

	now := time.Now()
	first.AgreedRenter = &now
	require.NoError(t, store.SaveHandover(ctx, first))

	second.AgreedLender = &now
	err = store.SaveHandover(ctx, second)
	require.True(t, errors.Is(err, errStaleRecord))
}

func TestMemoryStore_TransactionRollback(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	r := &models.Rental{RenterID: 1, LenderID: 2, State: models.RentalStatePaid}
	require.NoError(t, store.CreateRental(ctx, r))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx Store) error {
		h := &models.Handover{RentalID: r.ID, Type: models.HandoverTypePickup, Pictures: []string{"a.jpg"}}
		if err := tx.CreateHandover(ctx, h); err != nil {
			return err
		}
		r.State = models.RentalStatePickedUp
		r.PickUpHandoverID = &h.ID
		if err := tx.SaveRental(ctx, r); err != nil {
			return err
		}
		return boom
	})
	require.True(t, errors.Is(err, boom))

	// Nothing from the failed transaction is visible
	stored, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePaid, stored.State)
	require.Nil(t, stored.PickUpHandoverID)
}

func TestMemoryStore_GetReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	h := &models.Handover{RentalID: 1, Type: models.HandoverTypeReturn, Pictures: []string{"a.jpg"}}
	require.NoError(t, store.CreateHandover(ctx, h))

	loaded, err := store.GetHandover(ctx, h.ID)
	require.NoError(t, err)
	loaded.Pictures[0] = "tampered.jpg"
	loaded.Comment = "tampered"

	fresh, err := store.GetHandover(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg"}, fresh.Pictures)
	require.Empty(t, fresh.Comment)
}

func TestMemoryStore_ListRentalsByUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRental(ctx, &models.Rental{RenterID: 1, LenderID: 2}))
	require.NoError(t, store.CreateRental(ctx, &models.Rental{RenterID: 3, LenderID: 1}))
	require.NoError(t, store.CreateRental(ctx, &models.Rental{RenterID: 3, LenderID: 4}))

	mine, err := store.ListRentalsByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	none, err := store.ListRentalsByUser(ctx, 42)
	require.NoError(t, err)
	require.Empty(t, none)
}
