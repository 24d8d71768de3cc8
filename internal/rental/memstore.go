package rental

import (
	"context"
	"sync"

	"github.com/tcw0/lendit-sub000/internal/models"
)

// MemoryStore keeps rentals, handovers, and ratings in process memory with
// the same compare-and-swap semantics as the GORM store. It backs the core
// tests and local development without a database.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memState{
			rentals:   make(map[uint]models.Rental),
			handovers: make(map[uint]models.Handover),
			ratings:   make(map[uint][]models.Rating),
		},
	}
}

func (s *MemoryStore) GetRental(ctx context.Context, id uint) (*models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getRental(id)
}

func (s *MemoryStore) CreateRental(ctx context.Context, r *models.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createRental(r)
}

func (s *MemoryStore) SaveRental(ctx context.Context, r *models.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.saveRental(r)
}

func (s *MemoryStore) ListRentalsByUser(ctx context.Context, userID uint) ([]models.Rental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listRentalsByUser(userID)
}

func (s *MemoryStore) GetHandover(ctx context.Context, id uint) (*models.Handover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getHandover(id)
}

func (s *MemoryStore) CreateHandover(ctx context.Context, h *models.Handover) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createHandover(h)
}

func (s *MemoryStore) SaveHandover(ctx context.Context, h *models.Handover) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.saveHandover(h)
}

func (s *MemoryStore) CreateRating(ctx context.Context, rt *models.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createRating(rt)
}

func (s *MemoryStore) ListRatings(ctx context.Context, rentalID uint) ([]models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listRatings(rentalID)
}

// Transaction holds the store lock for the whole callback, so the enclosed
// writes become a single atomic unit. A failed callback rolls the state back.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&memTx{state: &s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// memTx exposes the already-locked state inside a Transaction callback.
type memTx struct {
	state *memState
}

var _ Store = (*memTx)(nil)

func (t *memTx) GetRental(ctx context.Context, id uint) (*models.Rental, error) {
	return t.state.getRental(id)
}

func (t *memTx) CreateRental(ctx context.Context, r *models.Rental) error {
	return t.state.createRental(r)
}

func (t *memTx) SaveRental(ctx context.Context, r *models.Rental) error {
	return t.state.saveRental(r)
}

func (t *memTx) ListRentalsByUser(ctx context.Context, userID uint) ([]models.Rental, error) {
	return t.state.listRentalsByUser(userID)
}

func (t *memTx) GetHandover(ctx context.Context, id uint) (*models.Handover, error) {
	return t.state.getHandover(id)
}

func (t *memTx) CreateHandover(ctx context.Context, h *models.Handover) error {
	return t.state.createHandover(h)
}

func (t *memTx) SaveHandover(ctx context.Context, h *models.Handover) error {
	return t.state.saveHandover(h)
}

func (t *memTx) CreateRating(ctx context.Context, rt *models.Rating) error {
	return t.state.createRating(rt)
}

func (t *memTx) ListRatings(ctx context.Context, rentalID uint) ([]models.Rating, error) {
	return t.state.listRatings(rentalID)
}

func (t *memTx) Transaction(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

type memState struct {
	rentals   map[uint]models.Rental
	handovers map[uint]models.Handover
	ratings   map[uint][]models.Rating
	lastID    uint
}

func (m *memState) nextID() uint {
	m.lastID++
	return m.lastID
}

func (m *memState) clone() memState {
	out := memState{
		rentals:   make(map[uint]models.Rental, len(m.rentals)),
		handovers: make(map[uint]models.Handover, len(m.handovers)),
		ratings:   make(map[uint][]models.Rating, len(m.ratings)),
		lastID:    m.lastID,
	}
	for id, r := range m.rentals {
		out.rentals[id] = r
	}
	for id, h := range m.handovers {
		out.handovers[id] = h
	}
	for id, rs := range m.ratings {
		out.ratings[id] = append([]models.Rating(nil), rs...)
	}
	return out
}

func (m *memState) getRental(id uint) (*models.Rental, error) {
	r, ok := m.rentals[id]
	if !ok {
		return nil, NotFoundf("rental %d not found", id)
	}
	out := r
	return &out, nil
}

func (m *memState) createRental(r *models.Rental) error {
	r.ID = m.nextID()
	m.rentals[r.ID] = *r
	return nil
}

func (m *memState) saveRental(r *models.Rental) error {
	stored, ok := m.rentals[r.ID]
	if !ok {
		return NotFoundf("rental %d not found", r.ID)
	}
	if stored.Version != r.Version {
		return errStaleRecord
	}
	r.Version++
	m.rentals[r.ID] = *r
	return nil
}

func (m *memState) listRentalsByUser(userID uint) ([]models.Rental, error) {
	var out []models.Rental
	for _, r := range m.rentals {
		if r.RenterID == userID || r.LenderID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memState) getHandover(id uint) (*models.Handover, error) {
	h, ok := m.handovers[id]
	if !ok {
		return nil, NotFoundf("handover %d not found", id)
	}
	out := h
	out.Pictures = append([]string(nil), h.Pictures...)
	return &out, nil
}

func (m *memState) createHandover(h *models.Handover) error {
	h.ID = m.nextID()
	stored := *h
	stored.Pictures = append([]string(nil), h.Pictures...)
	m.handovers[h.ID] = stored
	return nil
}

func (m *memState) saveHandover(h *models.Handover) error {
	stored, ok := m.handovers[h.ID]
	if !ok {
		return NotFoundf("handover %d not found", h.ID)
	}
	if stored.Version != h.Version {
		return errStaleRecord
	}
	h.Version++
	next := *h
	next.Pictures = append([]string(nil), h.Pictures...)
	m.handovers[h.ID] = next
	return nil
}

func (m *memState) createRating(rt *models.Rating) error {
	rt.ID = m.nextID()
	m.ratings[rt.RentalID] = append(m.ratings[rt.RentalID], *rt)
	return nil
}

func (m *memState) listRatings(rentalID uint) ([]models.Rating, error) {
	return append([]models.Rating(nil), m.ratings[rentalID]...), nil
}
