// Package store holds Card records for the lifetime of the process. Pure data
// access; lifecycle rules live in the service layer.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardreturn/internal/card/models"
	"cardreturn/pkg/platform/sentinel"
)

// InMemory is the single-process Record Store. A mutex serializes every
// read-modify-write so concurrent handlers cannot lose updates; callers must
// not hold results across collaborator calls expecting them to stay fresh.
// Cards are never deleted.
type InMemory struct {
	mu    sync.RWMutex
	cards map[uuid.UUID]*models.Card
	order []uuid.UUID
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		cards: make(map[uuid.UUID]*models.Card),
	}
}

// Create persists a new card. The id must be unused.
func (s *InMemory) Create(ctx context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[card.ID]; ok {
		return sentinel.ErrConflict
	}

	s.cards[card.ID] = card.Clone()
	s.order = append(s.order, card.ID)
	return nil
}

// GetByID returns a snapshot of the card, or sentinel.ErrNotFound.
func (s *InMemory) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return card.Clone(), nil
}

// GetByReferenceCode matches the derived reference code case-insensitively.
// Truncated ids can collide; the first match in insertion order wins, which is
// the documented degenerate policy.
func (s *InMemory) GetByReferenceCode(ctx context.Context, code string) (*models.Card, error) {
	want := strings.ToUpper(strings.TrimSpace(code))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		if card := s.cards[id]; card.ReferenceCode() == want {
			return card.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// GetByPickupCode matches code and box together; codes are only meaningful
// within one box. Absence is a normal negative outcome, reported as
// sentinel.ErrNotFound. First match in insertion order wins when a box has
// colliding codes.
func (s *InMemory) GetByPickupCode(ctx context.Context, code, boxID string) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		card := s.cards[id]
		if card.BoxID == boxID && card.PickupCode == code && card.PickupCode != "" {
			return card.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Update merges the partial update into the stored card under the store lock,
// so the read-modify-write is atomic with respect to other writers. Returns
// the updated snapshot.
func (s *InMemory) Update(ctx context.Context, id uuid.UUID, update models.CardUpdate) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	update.ApplyTo(card)
	return card.Clone(), nil
}

// MarkPickedUp performs the exactly-once terminal transition: it checks and
// sets status under one lock acquisition so two concurrent pickups cannot
// both succeed. Already-terminal cards return sentinel.ErrAlreadyUsed with
// PickedUpAt untouched.
func (s *InMemory) MarkPickedUp(ctx context.Context, id uuid.UUID, at time.Time) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if card.Status == models.StatusPickedUp {
		return card.Clone(), sentinel.ErrAlreadyUsed
	}

	card.Status = models.StatusPickedUp
	card.PickedUpAt = &at
	return card.Clone(), nil
}

// ListByStatus returns snapshots filtered by status (nil means all), newest
// first by creation time.
func (s *InMemory) ListByStatus(ctx context.Context, status *models.Status) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Card, 0, len(s.order))
	// insertion order tracks creation time, so walking backwards is
	// newest-first without a sort
	for i := len(s.order) - 1; i >= 0; i-- {
		card := s.cards[s.order[i]]
		if status != nil && card.Status != *status {
			continue
		}
		out = append(out, card.Clone())
	}
	return out, nil
}

// Count returns the number of stored cards.
func (s *InMemory) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards), nil
}
