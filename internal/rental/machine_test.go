package rental

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tcw0/lendit-sub000/internal/models"
)

const (
	renterID   = uint(1)
	lenderID   = uint(2)
	strangerID = uint(99)
	itemID     = uint(10)
)

type fakeGateway struct {
	succeeded bool
	err       error
}

func (g *fakeGateway) PaymentSucceeded(ctx context.Context, rentalID uint) (bool, error) {
	return g.succeeded, g.err
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *fakeGateway) {
	t.Helper()
	store := NewMemoryStore()
	gateway := &fakeGateway{succeeded: true}
	return NewService(store, gateway), store, gateway
}

func seedRental(t *testing.T, store *MemoryStore, state models.RentalState) *models.Rental {
	t.Helper()
	r := &models.Rental{
		RenterID:  renterID,
		LenderID:  lenderID,
		ItemID:    itemID,
		StartDate: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC),
		Price:     40,
		State:     state,
	}
	require.NoError(t, store.CreateRental(context.Background(), r))
	return r
}

// seedHandover puts a submitted but not yet agreed handover in place, the
// way it would exist after a creation whose creator's agreement was cleared.
func seedHandover(t *testing.T, store *MemoryStore, r *models.Rental, typ models.HandoverType) *models.Handover {
	t.Helper()
	ctx := context.Background()
	h := &models.Handover{
		RentalID: r.ID,
		Type:     typ,
		Pictures: []string{"https://cdn.example.com/pics/1.jpg"},
		Comment:  "scratch on the left side",
	}
	require.NoError(t, store.CreateHandover(ctx, h))
	if typ == models.HandoverTypePickup {
		r.PickUpHandoverID = &h.ID
	} else {
		r.ReturnHandoverID = &h.ID
	}
	require.NoError(t, store.SaveRental(ctx, r))
	return h
}

func pickupInput() HandoverInput {
	return HandoverInput{
		Pictures: []string{"https://cdn.example.com/pics/1.jpg", "https://cdn.example.com/pics/2.jpg"},
		Comment:  "item handed over in good condition",
	}
}

func TestCreateOffer(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.CreateOffer(ctx, renterID, lenderID, OfferInput{
		ItemID:    itemID,
		StartDate: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC),
		Price:     40,
	})
	require.NoError(t, err)
	require.Equal(t, models.RentalStateOffer, r.State)
	require.Equal(t, models.InsuranceNone, r.InsuranceType)
}

func TestCreateOffer_SameUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateOffer(context.Background(), renterID, renterID, OfferInput{
		ItemID:    itemID,
		StartDate: time.Now(),
		EndDate:   time.Now().Add(24 * time.Hour),
	})
	require.Error(t, err)
	require.Equal(t, CodeInvalid, CodeOf(err))
}

// Scenario A: the lender accepts an offer; the renter may not.
func TestAcceptOffer(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateOffer)

	updated, err := svc.AcceptOffer(ctx, lenderID, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStateAccepted, updated.State)

	_, err = svc.AcceptOffer(ctx, renterID, r.ID)
	require.Equal(t, CodeForbidden, CodeOf(err))
}

func TestAcceptOffer_Stranger(t *testing.T) {
	svc, store, _ := newTestService(t)
	r := seedRental(t, store, models.RentalStateOffer)

	_, err := svc.AcceptOffer(context.Background(), strangerID, r.ID)
	require.Equal(t, CodeForbidden, CodeOf(err))
}

func TestDeclineOffer_Terminal(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateOffer)

	declined, err := svc.DeclineOffer(ctx, lenderID, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStateDeclined, declined.State)
	require.True(t, declined.State.Terminal())

	// DECLINED is terminal: no transition may leave it
	_, err = svc.AcceptOffer(ctx, lenderID, r.ID)
	require.Equal(t, CodeConflict, CodeOf(err))
	_, err = svc.MarkPaid(ctx, r.ID)
	require.Equal(t, CodeConflict, CodeOf(err))
}

func TestConfirmPayment(t *testing.T) {
	svc, store, gateway := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateAccepted)

	// The gateway has not seen the money yet
	gateway.succeeded = false
	_, err := svc.ConfirmPayment(ctx, renterID, r.ID)
	require.Equal(t, CodeConflict, CodeOf(err))

	gateway.succeeded = true
	updated, err := svc.ConfirmPayment(ctx, renterID, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePaid, updated.State)
}

func TestConfirmPayment_LenderForbidden(t *testing.T) {
	svc, store, _ := newTestService(t)
	r := seedRental(t, store, models.RentalStateAccepted)

	_, err := svc.ConfirmPayment(context.Background(), lenderID, r.ID)
	require.Equal(t, CodeForbidden, CodeOf(err))
}

// Scenario B: a duplicate payment-success event leaves the rental at PAID.
func TestMarkPaid_Idempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateAccepted)

	first, err := svc.MarkPaid(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePaid, first.State)

	second, err := svc.MarkPaid(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePaid, second.State)
}

func TestMarkPaid_BeforeAccept(t *testing.T) {
	svc, store, _ := newTestService(t)
	r := seedRental(t, store, models.RentalStateOffer)

	_, err := svc.MarkPaid(context.Background(), r.ID)
	require.Equal(t, CodeConflict, CodeOf(err))
}

// Scenario C: creating a pickup handover advances the rental and pre-sets
// the creator's agreement.
func TestCreateHandover_Pickup(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)
	require.NotNil(t, h.AgreedRenter)
	require.Nil(t, h.AgreedLender)
	require.False(t, h.FullyAgreed())

	updated, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePickedUp, updated.State)
	require.NotNil(t, updated.PickUpHandoverID)
	require.Equal(t, h.ID, *updated.PickUpHandoverID)
}

// Scenario F: a return handover before pickup confirmation is rejected and
// the error names the required state.
func TestCreateHandover_ReturnTooEarly(t *testing.T) {
	svc, store, _ := newTestService(t)
	r := seedRental(t, store, models.RentalStatePaid)

	_, err := svc.CreateHandover(context.Background(), renterID, r.ID, models.HandoverTypeReturn, pickupInput())
	require.Equal(t, CodeConflict, CodeOf(err))
	require.Contains(t, err.Error(), string(models.RentalStatePickUpConfirmed))
}

func TestCreateHandover_Validation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	_, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, HandoverInput{
		Comment: "no pictures attached",
	})
	require.Equal(t, CodeInvalid, CodeOf(err))

	_, err = svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, HandoverInput{
		Pictures: []string{"https://cdn.example.com/pics/1.jpg"},
		Comment:  "   ",
	})
	require.Equal(t, CodeInvalid, CodeOf(err))
}

func TestCreateHandover_AlreadySubmitted(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	_, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)

	_, err = svc.CreateHandover(ctx, lenderID, r.ID, models.HandoverTypePickup, pickupInput())
	require.Equal(t, CodeConflict, CodeOf(err))
}

// Scenario D: the counterparty's accept completes the agreement and promotes
// the rental in the same step.
func TestAcceptHandover_FullyAgrees(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)

	accepted, err := svc.AcceptHandover(ctx, lenderID, h.ID)
	require.NoError(t, err)
	require.True(t, accepted.FullyAgreed())

	updated, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePickUpConfirmed, updated.State)
}

func TestAcceptHandover_Idempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)
	firstAgreed := *h.AgreedRenter

	// Re-accepting with the same role changes nothing
	again, err := svc.AcceptHandover(ctx, renterID, h.ID)
	require.NoError(t, err)
	require.Equal(t, firstAgreed, *again.AgreedRenter)
	require.Nil(t, again.AgreedLender)

	updated, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePickedUp, updated.State)
}

func TestAcceptHandover_AlreadyFullyAgreed(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)
	_, err = svc.AcceptHandover(ctx, lenderID, h.ID)
	require.NoError(t, err)

	_, err = svc.AcceptHandover(ctx, lenderID, h.ID)
	require.Equal(t, CodeConflict, CodeOf(err))
}

func TestAcceptHandover_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AcceptHandover(context.Background(), renterID, 12345)
	require.Equal(t, CodeNotFound, CodeOf(err))
}

func TestAcceptHandover_Stranger(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)

	_, err = svc.AcceptHandover(ctx, strangerID, h.ID)
	require.Equal(t, CodeForbidden, CodeOf(err))
}

// Scenario E: a decline clears the handover in place, leaves the rental at
// PICKED_UP, and a fresh submission reuses the same record.
func TestDeclineHandover_Resubmission(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)

	declined, err := svc.DeclineHandover(ctx, lenderID, h.ID)
	require.NoError(t, err)
	require.Nil(t, declined.AgreedRenter)
	require.Nil(t, declined.AgreedLender)
	require.Empty(t, declined.Pictures)
	require.Empty(t, declined.Comment)

	// The rental does not regress
	updated, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePickedUp, updated.State)

	// The renter re-submits into the same record
	resubmitted, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)
	require.Equal(t, h.ID, resubmitted.ID)
	require.NotNil(t, resubmitted.AgreedRenter)
	require.Nil(t, resubmitted.AgreedLender)

	updated, err = store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStatePickedUp, updated.State)
}

func TestDeclineHandover_FullyAgreed(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStatePaid)

	h, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)
	_, err = svc.AcceptHandover(ctx, lenderID, h.ID)
	require.NoError(t, err)

	_, err = svc.DeclineHandover(ctx, renterID, h.ID)
	require.Equal(t, CodeConflict, CodeOf(err))
}

// Two racing accepts from both roles must yield exactly one promotion.
func TestAcceptHandover_ConcurrentAccepts(t *testing.T) {
	for i := 0; i < 100; i++ {
		svc, store, _ := newTestService(t)
		ctx := context.Background()
		r := seedRental(t, store, models.RentalStatePickedUp)
		h := seedHandover(t, store, r, models.HandoverTypePickup)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = svc.AcceptHandover(ctx, renterID, h.ID)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = svc.AcceptHandover(ctx, lenderID, h.ID)
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		stored, err := store.GetHandover(ctx, h.ID)
		require.NoError(t, err)
		require.True(t, stored.FullyAgreed())

		updated, err := store.GetRental(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, models.RentalStatePickUpConfirmed, updated.State)
	}
}

// A decline racing an accept must leave the handover in a consistent state:
// either fully cleared (decline won) or promoted (accept won), never
// half-agreed garbage.
func TestDeclineHandover_RacingAccept(t *testing.T) {
	for i := 0; i < 100; i++ {
		svc, store, _ := newTestService(t)
		ctx := context.Background()
		r := seedRental(t, store, models.RentalStatePickedUp)
		h := seedHandover(t, store, r, models.HandoverTypePickup)

		// The renter has already agreed, the lender's accept and decline race
		_, err := svc.AcceptHandover(ctx, renterID, h.ID)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.AcceptHandover(ctx, lenderID, h.ID)
		}()
		go func() {
			defer wg.Done()
			svc.DeclineHandover(ctx, lenderID, h.ID)
		}()
		wg.Wait()

		stored, err := store.GetHandover(ctx, h.ID)
		require.NoError(t, err)
		updated, err := store.GetRental(ctx, r.ID)
		require.NoError(t, err)

		if stored.FullyAgreed() {
			require.Equal(t, models.RentalStatePickUpConfirmed, updated.State)
		} else {
			require.Nil(t, stored.AgreedRenter)
			require.Nil(t, stored.AgreedLender)
			require.Equal(t, models.RentalStatePickedUp, updated.State)
		}
	}
}

func TestSubmitRating_WrongState(t *testing.T) {
	svc, store, _ := newTestService(t)
	r := seedRental(t, store, models.RentalStatePickedUp)

	_, err := svc.SubmitRating(context.Background(), renterID, r.ID, RatingInput{
		TargetType: models.RatingTargetItem,
		Stars:      5,
	})
	require.Equal(t, CodeConflict, CodeOf(err))
}

func TestSubmitRating_LenderCannotRateItem(t *testing.T) {
	svc, store, _ := newTestService(t)
	r := seedRental(t, store, models.RentalStateReturnConfirmed)

	_, err := svc.SubmitRating(context.Background(), lenderID, r.ID, RatingInput{
		TargetType: models.RatingTargetItem,
		Stars:      4,
	})
	require.Equal(t, CodeForbidden, CodeOf(err))
}

func TestSubmitRating_Duplicate(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateReturnConfirmed)

	_, err := svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 5})
	require.NoError(t, err)

	_, err = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 1})
	require.Equal(t, CodeConflict, CodeOf(err))
}

// The renter's set is item + lender; completing it moves the rental to
// RATED. The lender's rating then satisfies the default close policy.
func TestSubmitRating_Progression(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateReturnConfirmed)

	updated, err := svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 5})
	require.NoError(t, err)
	require.Equal(t, models.RentalStateReturnConfirmed, updated.State)

	updated, err = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetUser, Stars: 4})
	require.NoError(t, err)
	require.Equal(t, models.RentalStateRated, updated.State)

	updated, err = svc.SubmitRating(ctx, lenderID, r.ID, RatingInput{TargetType: models.RatingTargetUser, Stars: 5})
	require.NoError(t, err)
	require.Equal(t, models.RentalStateClosed, updated.State)
	require.True(t, updated.State.Terminal())
}

func TestSubmitRating_EitherPartyClosePolicy(t *testing.T) {
	svc, store, _ := newTestService(t)
	svc.SetClosePolicy(CloseWhenEitherPartyRated)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateReturnConfirmed)

	_, err := svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 5})
	require.NoError(t, err)

	updated, err := svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetUser, Stars: 4})
	require.NoError(t, err)
	require.Equal(t, models.RentalStateClosed, updated.State)
}

// The renter's ITEM and USER ratings racing each other must still promote
// the rental: the loser of the version race re-reads the rating list and
// sees the completed set.
func TestSubmitRating_ConcurrentCompletion(t *testing.T) {
	for i := 0; i < 100; i++ {
		svc, store, _ := newTestService(t)
		ctx := context.Background()
		r := seedRental(t, store, models.RentalStateReturnConfirmed)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 5})
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetUser, Stars: 4})
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		stored, err := store.GetRental(ctx, r.ID)
		require.NoError(t, err)
		require.Equal(t, models.RentalStateRated, stored.State)
	}
}

// Two identical submissions racing must yield exactly one stored rating.
func TestSubmitRating_ConcurrentDuplicates(t *testing.T) {
	for i := 0; i < 100; i++ {
		svc, store, _ := newTestService(t)
		ctx := context.Background()
		r := seedRental(t, store, models.RentalStateReturnConfirmed)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		for j := 0; j < 2; j++ {
			go func(j int) {
				defer wg.Done()
				_, errs[j] = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 3})
			}(j)
		}
		wg.Wait()

		var conflicts int
		for _, err := range errs {
			if err != nil {
				require.Equal(t, CodeConflict, CodeOf(err))
				conflicts++
			}
		}
		require.Equal(t, 1, conflicts)

		ratings, err := store.ListRatings(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, ratings, 1)
	}
}

// The full happy path from offer to closed.
func TestFullLifecycle(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateOffer)

	_, err := svc.AcceptOffer(ctx, lenderID, r.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, renterID, r.ID)
	require.NoError(t, err)

	pickup, err := svc.CreateHandover(ctx, renterID, r.ID, models.HandoverTypePickup, pickupInput())
	require.NoError(t, err)
	_, err = svc.AcceptHandover(ctx, lenderID, pickup.ID)
	require.NoError(t, err)

	ret, err := svc.CreateHandover(ctx, lenderID, r.ID, models.HandoverTypeReturn, HandoverInput{
		Pictures: []string{"https://cdn.example.com/pics/3.jpg"},
		Comment:  "returned with minor wear",
	})
	require.NoError(t, err)
	require.NotNil(t, ret.AgreedLender)
	require.Nil(t, ret.AgreedRenter)

	_, err = svc.AcceptHandover(ctx, renterID, ret.ID)
	require.NoError(t, err)

	state, err := store.GetRental(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.RentalStateReturnConfirmed, state.State)

	_, err = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetItem, Stars: 5})
	require.NoError(t, err)
	_, err = svc.SubmitRating(ctx, renterID, r.ID, RatingInput{TargetType: models.RatingTargetUser, Stars: 5})
	require.NoError(t, err)
	final, err := svc.SubmitRating(ctx, lenderID, r.ID, RatingInput{TargetType: models.RatingTargetUser, Stars: 5})
	require.NoError(t, err)
	require.Equal(t, models.RentalStateClosed, final.State)
}

// Every transition attempt not in the table leaves state unchanged and
// reports a Conflict.
func TestIllegalTransitionsLeaveStateUnchanged(t *testing.T) {
	cases := []struct {
		name  string
		state models.RentalState
		call  func(svc *Service, rentalID uint) error
	}{
		{"accept from paid", models.RentalStatePaid, func(svc *Service, id uint) error {
			_, err := svc.AcceptOffer(context.Background(), lenderID, id)
			return err
		}},
		{"pay from offer", models.RentalStateOffer, func(svc *Service, id uint) error {
			_, err := svc.ConfirmPayment(context.Background(), renterID, id)
			return err
		}},
		{"pickup from accepted", models.RentalStateAccepted, func(svc *Service, id uint) error {
			_, err := svc.CreateHandover(context.Background(), renterID, id, models.HandoverTypePickup, pickupInput())
			return err
		}},
		{"rate from closed", models.RentalStateClosed, func(svc *Service, id uint) error {
			_, err := svc.SubmitRating(context.Background(), renterID, id, RatingInput{TargetType: models.RatingTargetItem, Stars: 3})
			return err
		}},
		{"decline from closed", models.RentalStateClosed, func(svc *Service, id uint) error {
			_, err := svc.DeclineOffer(context.Background(), lenderID, id)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			r := seedRental(t, store, tc.state)

			err := tc.call(svc, r.ID)
			require.Equal(t, CodeConflict, CodeOf(err))

			stored, err := store.GetRental(context.Background(), r.ID)
			require.NoError(t, err)
			require.Equal(t, tc.state, stored.State)
		})
	}
}

func TestGetRental_Authorization(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	r := seedRental(t, store, models.RentalStateOffer)

	_, err := svc.GetRental(ctx, renterID, r.ID)
	require.NoError(t, err)

	_, err = svc.GetRental(ctx, strangerID, r.ID)
	require.Equal(t, CodeForbidden, CodeOf(err))

	_, err = svc.GetRental(ctx, renterID, 4242)
	require.Equal(t, CodeNotFound, CodeOf(err))
}
