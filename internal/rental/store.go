package rental

import (
	"context"
	"errors"

	"github.com/tcw0/lendit-sub000/internal/models"
	"gorm.io/gorm"
)

// Store is the persistence boundary of the rental lifecycle. Save methods
// perform an atomic compare-and-swap on the record's version column and
// report errStaleRecord when the record changed since it was read; the
// service retries the whole read-validate-write cycle.
type Store interface {
	GetRental(ctx context.Context, id uint) (*models.Rental, error)
	CreateRental(ctx context.Context, r *models.Rental) error
	SaveRental(ctx context.Context, r *models.Rental) error
	ListRentalsByUser(ctx context.Context, userID uint) ([]models.Rental, error)

	GetHandover(ctx context.Context, id uint) (*models.Handover, error)
	CreateHandover(ctx context.Context, h *models.Handover) error
	SaveHandover(ctx context.Context, h *models.Handover) error

	CreateRating(ctx context.Context, rt *models.Rating) error
	ListRatings(ctx context.Context, rentalID uint) ([]models.Rating, error)

	// Transaction runs fn against a store bound to a single transaction.
	// Any error aborts the transaction with no partial application.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// GormStore persists rentals, handovers, and ratings through GORM.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetRental(ctx context.Context, id uint) (*models.Rental, error) {
	var r models.Rental
	err := s.db.WithContext(ctx).
		Preload("PickUpHandover").
		Preload("ReturnHandover").
		First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("rental %d not found", id)
		}
		return nil, Internalf("failed to load rental %d: %v", id, err)
	}
	return &r, nil
}

func (s *GormStore) CreateRental(ctx context.Context, r *models.Rental) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return Internalf("failed to create rental: %v", err)
	}
	return nil
}

func (s *GormStore) SaveRental(ctx context.Context, r *models.Rental) error {
	next := *r
	next.Version = r.Version + 1
	res := s.db.WithContext(ctx).Model(&models.Rental{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Select("State", "PickUpHandoverID", "ReturnHandoverID", "Version").
		Updates(&next)
	if res.Error != nil {
		return Internalf("failed to save rental %d: %v", r.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleRecord
	}
	r.Version = next.Version
	return nil
}

func (s *GormStore) ListRentalsByUser(ctx context.Context, userID uint) ([]models.Rental, error) {
	var rentals []models.Rental
	err := s.db.WithContext(ctx).
		Where("renter_id = ? OR lender_id = ?", userID, userID).
		Preload("Item").
		Preload("PickUpHandover").
		Preload("ReturnHandover").
		Order("created_at DESC").
		Find(&rentals).Error
	if err != nil {
		return nil, Internalf("failed to list rentals for user %d: %v", userID, err)
	}
	return rentals, nil
}

func (s *GormStore) GetHandover(ctx context.Context, id uint) (*models.Handover, error) {
	var h models.Handover
	if err := s.db.WithContext(ctx).First(&h, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundf("handover %d not found", id)
		}
		return nil, Internalf("failed to load handover %d: %v", id, err)
	}
	return &h, nil
}

func (s *GormStore) CreateHandover(ctx context.Context, h *models.Handover) error {
	if err := s.db.WithContext(ctx).Create(h).Error; err != nil {
		return Internalf("failed to create handover: %v", err)
	}
	return nil
}

func (s *GormStore) SaveHandover(ctx context.Context, h *models.Handover) error {
	next := *h
	next.Version = h.Version + 1
	res := s.db.WithContext(ctx).Model(&models.Handover{}).
		Where("id = ? AND version = ?", h.ID, h.Version).
		Select("Pictures", "Comment", "AgreedRenter", "AgreedLender", "Version").
		Updates(&next)
	if res.Error != nil {
		return Internalf("failed to save handover %d: %v", h.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleRecord
	}
	h.Version = next.Version
	return nil
}

func (s *GormStore) CreateRating(ctx context.Context, rt *models.Rating) error {
	if err := s.db.WithContext(ctx).Create(rt).Error; err != nil {
		return Internalf("failed to create rating: %v", err)
	}
	return nil
}

func (s *GormStore) ListRatings(ctx context.Context, rentalID uint) ([]models.Rating, error) {
	var ratings []models.Rating
	err := s.db.WithContext(ctx).
		Where("rental_id = ?", rentalID).
		Find(&ratings).Error
	if err != nil {
		return nil, Internalf("failed to list ratings for rental %d: %v", rentalID, err)
	}
	return ratings, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
