package rental

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tcw0/lendit-sub000/internal/models"
)

// casAttempts bounds how often a read-validate-write cycle is retried after
// losing an optimistic-concurrency race before surfacing a Conflict.
const casAttempts = 3

// PaymentGateway is the narrow signal the lifecycle consumes from the
// payment integration: whether payment for a rental has succeeded.
type PaymentGateway interface {
	PaymentSucceeded(ctx context.Context, rentalID uint) (bool, error)
}

// ClosePolicy decides when a RATED rental closes. The trigger is not fixed
// by the product yet, so it is injected rather than hard-coded.
type ClosePolicy func(renterRated, lenderRated bool) bool

func CloseWhenBothPartiesRated(renterRated, lenderRated bool) bool {
	return renterRated && lenderRated
}

func CloseWhenEitherPartyRated(renterRated, lenderRated bool) bool {
	return renterRated || lenderRated
}

// Service drives the rental lifecycle: every legal state transition, the
// two-party handover agreement protocol, and rating completion. All state
// lives in the store; the service itself is stateless and safe for
// concurrent use.
type Service struct {
	store       Store
	gateway     PaymentGateway
	closePolicy ClosePolicy
	now         func() time.Time
}

func NewService(store Store, gateway PaymentGateway) *Service {
	return &Service{
		store:       store,
		gateway:     gateway,
		closePolicy: CloseWhenBothPartiesRated,
		now:         time.Now,
	}
}

// SetClosePolicy overrides when a RATED rental moves to CLOSED.
func (s *Service) SetClosePolicy(p ClosePolicy) {
	if p != nil {
		s.closePolicy = p
	}
}

// OfferInput carries the monetary terms fixed at offer time.
type OfferInput struct {
	ItemID         uint
	StartDate      time.Time
	EndDate        time.Time
	Price          float64
	InsurancePrice float64
	InsuranceType  models.InsuranceType
}

// HandoverInput is the content of a handover submission.
type HandoverInput struct {
	Pictures []string
	Comment  string
}

// RatingInput is a single rating submission; the target id is derived from
// the acting role, never taken from the caller.
type RatingInput struct {
	TargetType models.RatingTarget
	Stars      int
	Comment    string
}

// CreateOffer opens a rental in OFFER state between a renter and the item's
// lender.
func (s *Service) CreateOffer(ctx context.Context, renterID, lenderID uint, in OfferInput) (*models.Rental, error) {
	if renterID == lenderID {
		return nil, Invalidf("renter and lender must be different users")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, Invalidf("rental end date must be after the start date")
	}
	if in.Price < 0 || in.InsurancePrice < 0 {
		return nil, Invalidf("price and insurance price must be non-negative")
	}
	if in.InsuranceType == "" {
		in.InsuranceType = models.InsuranceNone
	}

	r := &models.Rental{
		RenterID:       renterID,
		LenderID:       lenderID,
		ItemID:         in.ItemID,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Price:          in.Price,
		InsurancePrice: in.InsurancePrice,
		InsuranceType:  in.InsuranceType,
		State:          models.RentalStateOffer,
	}
	if err := s.store.CreateRental(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRental returns a rental to one of its two participants.
func (s *Service) GetRental(ctx context.Context, userID, rentalID uint) (*models.Rental, error) {
	r, err := s.store.GetRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if _, ok := ResolveRole(userID, r); !ok {
		return nil, Forbiddenf("user %d is neither renter nor lender on rental %d", userID, rentalID)
	}
	return r, nil
}

// ListRentals returns every rental the user participates in, on either side.
func (s *Service) ListRentals(ctx context.Context, userID uint) ([]models.Rental, error) {
	return s.store.ListRentalsByUser(ctx, userID)
}

// AcceptOffer moves OFFER to ACCEPTED. Lender only.
func (s *Service) AcceptOffer(ctx context.Context, userID, rentalID uint) (*models.Rental, error) {
	return s.transition(ctx, userID, rentalID, RoleLender,
		models.RentalStateOffer, models.RentalStateAccepted, "accept the offer")
}

// DeclineOffer moves OFFER to the terminal DECLINED state. Lender only.
func (s *Service) DeclineOffer(ctx context.Context, userID, rentalID uint) (*models.Rental, error) {
	return s.transition(ctx, userID, rentalID, RoleLender,
		models.RentalStateOffer, models.RentalStateDeclined, "decline the offer")
}

// ConfirmPayment is the renter-triggered path from ACCEPTED to PAID. The
// transition only fires once the payment gateway reports success.
func (s *Service) ConfirmPayment(ctx context.Context, userID, rentalID uint) (*models.Rental, error) {
	var out *models.Rental
	err := s.withRetry(func() error {
		r, err := s.store.GetRental(ctx, rentalID)
		if err != nil {
			return err
		}
		role, ok := ResolveRole(userID, r)
		if !ok {
			return Forbiddenf("user %d is neither renter nor lender on rental %d", userID, rentalID)
		}
		if role != RoleRenter {
			return Forbiddenf("only the renter may confirm payment")
		}
		if r.State != models.RentalStateAccepted {
			return Conflictf("rental must be %s before payment, current state is %s",
				models.RentalStateAccepted, r.State)
		}
		paid, err := s.gateway.PaymentSucceeded(ctx, r.ID)
		if err != nil {
			return Internalf("payment gateway lookup failed for rental %d: %v", r.ID, err)
		}
		if !paid {
			return Conflictf("payment for rental %d has not succeeded yet", r.ID)
		}
		r.State = models.RentalStatePaid
		if err := s.store.SaveRental(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// MarkPaid consumes an externally delivered payment-success event and
// executes ACCEPTED -> PAID exactly once. Re-delivery of the event while the
// rental is already at or past PAID is a no-op.
func (s *Service) MarkPaid(ctx context.Context, rentalID uint) (*models.Rental, error) {
	var out *models.Rental
	err := s.withRetry(func() error {
		r, err := s.store.GetRental(ctx, rentalID)
		if err != nil {
			return err
		}
		if r.State != models.RentalStateAccepted {
			if atOrPastPaid(r.State) {
				out = r
				return nil
			}
			return Conflictf("rental must be %s before payment confirmation, current state is %s",
				models.RentalStateAccepted, r.State)
		}
		r.State = models.RentalStatePaid
		if err := s.store.SaveRental(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// CreateHandover submits a handover for the rental. The creator's agreement
// timestamp is pre-set, so creation is an implicit self-agreement. The first
// submission of a type advances the rental (PAID -> PICKED_UP or
// PICK_UP_CONFIRMED -> RETURNED); a re-submission after a decline fills the
// reset record in place and leaves the rental state where it is.
func (s *Service) CreateHandover(ctx context.Context, userID, rentalID uint, typ models.HandoverType, in HandoverInput) (*models.Handover, error) {
	if typ != models.HandoverTypePickup && typ != models.HandoverTypeReturn {
		return nil, Invalidf("unknown handover type %q", typ)
	}
	if len(in.Pictures) == 0 {
		return nil, Invalidf("a handover requires at least one picture")
	}
	if strings.TrimSpace(in.Comment) == "" {
		return nil, Invalidf("a handover requires a comment")
	}

	var out *models.Handover
	err := s.withRetry(func() error {
		r, err := s.store.GetRental(ctx, rentalID)
		if err != nil {
			return err
		}
		role, ok := ResolveRole(userID, r)
		if !ok {
			return Forbiddenf("user %d is neither renter nor lender on rental %d", userID, rentalID)
		}

		required, created, _ := handoverStates(typ)
		switch r.State {
		case required:
			h := &models.Handover{
				RentalID: r.ID,
				Type:     typ,
				Pictures: in.Pictures,
				Comment:  in.Comment,
			}
			s.agree(h, role)
			return s.store.Transaction(ctx, func(tx Store) error {
				if err := tx.CreateHandover(ctx, h); err != nil {
					return err
				}
				r.State = created
				if typ == models.HandoverTypePickup {
					r.PickUpHandoverID = &h.ID
				} else {
					r.ReturnHandoverID = &h.ID
				}
				if err := tx.SaveRental(ctx, r); err != nil {
					return err
				}
				out = h
				return nil
			})
		case created:
			h, err := s.handoverForType(ctx, r, typ)
			if err != nil {
				return err
			}
			if h.Submitted() {
				return Conflictf("a %s handover is already submitted for rental %d",
					strings.ToLower(string(typ)), r.ID)
			}
			h.Pictures = in.Pictures
			h.Comment = in.Comment
			s.agree(h, role)
			if err := s.store.SaveHandover(ctx, h); err != nil {
				return err
			}
			out = h
			return nil
		default:
			return Conflictf("rental must be %s before a %s handover may be created, current state is %s",
				required, strings.ToLower(string(typ)), r.State)
		}
	})
	return out, err
}

// AcceptHandover records the caller's agreement. Re-accepting with the same
// role is a no-op. The moment both agreement timestamps are set, the rental
// is promoted in the same atomic unit (PICKED_UP -> PICK_UP_CONFIRMED or
// RETURNED -> RETURN_CONFIRMED), so two racing accepts yield exactly one
// promotion.
func (s *Service) AcceptHandover(ctx context.Context, userID, handoverID uint) (*models.Handover, error) {
	var out *models.Handover
	err := s.withRetry(func() error {
		h, r, role, err := s.loadHandover(ctx, userID, handoverID)
		if err != nil {
			return err
		}
		if h.FullyAgreed() {
			return Conflictf("handover %d is already fully agreed", h.ID)
		}
		_, created, confirmed := handoverStates(h.Type)
		if r.State != created {
			return Conflictf("rental must be %s to accept the %s handover, current state is %s",
				created, strings.ToLower(string(h.Type)), r.State)
		}
		if !h.Submitted() {
			return Conflictf("handover %d was declined and awaits re-submission", h.ID)
		}
		if s.agreedBy(h, role) {
			out = h
			return nil
		}
		s.agree(h, role)
		if !h.FullyAgreed() {
			if err := s.store.SaveHandover(ctx, h); err != nil {
				return err
			}
			out = h
			return nil
		}
		return s.store.Transaction(ctx, func(tx Store) error {
			if err := tx.SaveHandover(ctx, h); err != nil {
				return err
			}
			r.State = confirmed
			if err := tx.SaveRental(ctx, r); err != nil {
				return err
			}
			out = h
			return nil
		})
	})
	return out, err
}

// DeclineHandover reopens a not-yet-fully-agreed handover: both agreement
// timestamps and the submitted pictures/comment are cleared in place, and
// the rental stays at the handover-created state so the same type can be
// re-submitted. It never regresses the rental.
func (s *Service) DeclineHandover(ctx context.Context, userID, handoverID uint) (*models.Handover, error) {
	var out *models.Handover
	err := s.withRetry(func() error {
		h, _, _, err := s.loadHandover(ctx, userID, handoverID)
		if err != nil {
			return err
		}
		if h.FullyAgreed() {
			return Conflictf("handover %d is already fully agreed and can no longer be declined", h.ID)
		}
		if !h.Submitted() {
			return Conflictf("handover %d has no submission to decline", h.ID)
		}
		h.Reset()
		if err := s.store.SaveHandover(ctx, h); err != nil {
			return err
		}
		out = h
		return nil
	})
	return out, err
}

// SubmitRating records a rating and advances the rental when the acting
// role's required set is complete: the renter rates the item and the lender,
// the lender rates the renter. RETURN_CONFIRMED -> RATED fires on the first
// completed set; RATED -> CLOSED fires system-driven once the close policy
// is satisfied.
func (s *Service) SubmitRating(ctx context.Context, userID, rentalID uint, in RatingInput) (*models.Rental, error) {
	if in.Stars < 1 || in.Stars > 5 {
		return nil, Invalidf("rating must be between 1 and 5 stars")
	}

	var out *models.Rental
	err := s.withRetry(func() error {
		r, err := s.store.GetRental(ctx, rentalID)
		if err != nil {
			return err
		}
		role, ok := ResolveRole(userID, r)
		if !ok {
			return Forbiddenf("user %d is neither renter nor lender on rental %d", userID, rentalID)
		}
		if r.State != models.RentalStateReturnConfirmed && r.State != models.RentalStateRated {
			return Conflictf("rental must be %s before ratings may be submitted, current state is %s",
				models.RentalStateReturnConfirmed, r.State)
		}

		var targetID uint
		switch role {
		case RoleRenter:
			switch in.TargetType {
			case models.RatingTargetItem:
				targetID = r.ItemID
			case models.RatingTargetUser:
				targetID = r.LenderID
			default:
				return Invalidf("unknown rating target type %q", in.TargetType)
			}
		case RoleLender:
			if in.TargetType != models.RatingTargetUser {
				return Forbiddenf("the lender may only rate the renter")
			}
			targetID = r.RenterID
		}

		existing, err := s.store.ListRatings(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, rt := range existing {
			if rt.RaterID == userID && rt.TargetType == in.TargetType {
				return Conflictf("user %d already submitted a %s rating on rental %d",
					userID, strings.ToLower(string(in.TargetType)), r.ID)
			}
		}

		rating := &models.Rating{
			RentalID:   r.ID,
			RaterID:    userID,
			TargetType: in.TargetType,
			TargetID:   targetID,
			Stars:      in.Stars,
			Comment:    in.Comment,
		}
		return s.store.Transaction(ctx, func(tx Store) error {
			if err := tx.CreateRating(ctx, rating); err != nil {
				return err
			}
			renterDone, lenderDone := ratingProgress(r, append(existing, *rating))
			next := r.State
			actorDone := (role == RoleRenter && renterDone) || (role == RoleLender && lenderDone)
			if next == models.RentalStateReturnConfirmed && actorDone {
				next = models.RentalStateRated
			}
			if next == models.RentalStateRated && s.closePolicy(renterDone, lenderDone) {
				next = models.RentalStateClosed
			}
			r.State = next
			// Save unconditionally: the version bump serializes concurrent
			// submissions, so a racer that listed ratings before this commit
			// loses the compare-and-swap and re-reads the full set.
			if err := tx.SaveRental(ctx, r); err != nil {
				return err
			}
			out = r
			return nil
		})
	})
	return out, err
}

// transition executes a simple single-row state change guarded by role and
// current state.
func (s *Service) transition(ctx context.Context, userID, rentalID uint, need Role, from, to models.RentalState, action string) (*models.Rental, error) {
	var out *models.Rental
	err := s.withRetry(func() error {
		r, err := s.store.GetRental(ctx, rentalID)
		if err != nil {
			return err
		}
		role, ok := ResolveRole(userID, r)
		if !ok {
			return Forbiddenf("user %d is neither renter nor lender on rental %d", userID, rentalID)
		}
		if role != need {
			return Forbiddenf("only the %s may %s", strings.ToLower(string(need)), action)
		}
		if r.State != from {
			return Conflictf("rental must be %s to %s, current state is %s", from, action, r.State)
		}
		r.State = to
		if err := s.store.SaveRental(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// withRetry re-runs a read-validate-write cycle after a lost
// compare-and-swap race and surfaces a Conflict after bounded attempts.
func (s *Service) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < casAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, errStaleRecord) {
			return err
		}
	}
	return Conflictf("the record was modified concurrently, please retry")
}

func (s *Service) loadHandover(ctx context.Context, userID, handoverID uint) (*models.Handover, *models.Rental, Role, error) {
	h, err := s.store.GetHandover(ctx, handoverID)
	if err != nil {
		return nil, nil, "", err
	}
	r, err := s.store.GetRental(ctx, h.RentalID)
	if err != nil {
		return nil, nil, "", err
	}
	role, ok := ResolveRole(userID, r)
	if !ok {
		return nil, nil, "", Forbiddenf("user %d is neither renter nor lender on rental %d", userID, r.ID)
	}
	return h, r, role, nil
}

// handoverForType resolves the rental's existing handover record of the
// given type.
func (s *Service) handoverForType(ctx context.Context, r *models.Rental, typ models.HandoverType) (*models.Handover, error) {
	id := r.PickUpHandoverID
	if typ == models.HandoverTypeReturn {
		id = r.ReturnHandoverID
	}
	if id == nil {
		return nil, NotFoundf("rental %d has no %s handover", r.ID, strings.ToLower(string(typ)))
	}
	return s.store.GetHandover(ctx, *id)
}

// GetHandover returns the rental's handover of the given type to one of its
// participants.
func (s *Service) GetHandover(ctx context.Context, userID, rentalID uint, typ models.HandoverType) (*models.Handover, error) {
	r, err := s.GetRental(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}
	return s.handoverForType(ctx, r, typ)
}

func (s *Service) agree(h *models.Handover, role Role) {
	now := s.now()
	switch role {
	case RoleRenter:
		if h.AgreedRenter == nil {
			h.AgreedRenter = &now
		}
	case RoleLender:
		if h.AgreedLender == nil {
			h.AgreedLender = &now
		}
	}
}

func (s *Service) agreedBy(h *models.Handover, role Role) bool {
	if role == RoleRenter {
		return h.AgreedRenter != nil
	}
	return h.AgreedLender != nil
}

// handoverStates maps a handover type to the rental state required for its
// creation, the state the creation advances to, and the state reached once
// both parties agreed.
func handoverStates(typ models.HandoverType) (required, created, confirmed models.RentalState) {
	if typ == models.HandoverTypePickup {
		return models.RentalStatePaid, models.RentalStatePickedUp, models.RentalStatePickUpConfirmed
	}
	return models.RentalStatePickUpConfirmed, models.RentalStateReturned, models.RentalStateReturnConfirmed
}

// ratingProgress reports whether each role has completed its required
// rating set: renter rates item + lender, lender rates renter.
func ratingProgress(r *models.Rental, ratings []models.Rating) (renterDone, lenderDone bool) {
	var renterItem, renterLender bool
	for _, rt := range ratings {
		switch {
		case rt.RaterID == r.RenterID && rt.TargetType == models.RatingTargetItem:
			renterItem = true
		case rt.RaterID == r.RenterID && rt.TargetType == models.RatingTargetUser:
			renterLender = true
		case rt.RaterID == r.LenderID && rt.TargetType == models.RatingTargetUser:
			lenderDone = true
		}
	}
	return renterItem && renterLender, lenderDone
}

func atOrPastPaid(s models.RentalState) bool {
	switch s {
	case models.RentalStatePaid, models.RentalStatePickedUp, models.RentalStatePickUpConfirmed,
		models.RentalStateReturned, models.RentalStateReturnConfirmed,
		models.RentalStateRated, models.RentalStateClosed:
		return true
	}
	return false
}
