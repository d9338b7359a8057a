// Package service is the card lifecycle engine: intake, identity resolution,
// notification dispatch, pickup-code issuance, and state transitions. It is
// the only writer of card state; the store serializes the writes, and no
// store lock is held while a collaborator call is in flight.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cardreturn/internal/card/models"
	"cardreturn/internal/notify"
	"cardreturn/internal/ocr"
	"cardreturn/internal/platform/metrics"
	dErrors "cardreturn/pkg/domain-errors"
	"cardreturn/pkg/platform/sentinel"
)

// Collaborator timeouts. Expiry is treated the same as failure.
const (
	defaultOCRTimeout    = 8 * time.Second
	defaultNotifyTimeout = 10 * time.Second
)

// CardStore is the record-store surface the engine needs.
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error)
	GetByReferenceCode(ctx context.Context, code string) (*models.Card, error)
	GetByPickupCode(ctx context.Context, code, boxID string) (*models.Card, error)
	Update(ctx context.Context, id uuid.UUID, update models.CardUpdate) (*models.Card, error)
	MarkPickedUp(ctx context.Context, id uuid.UUID, at time.Time) (*models.Card, error)
	ListByStatus(ctx context.Context, status *models.Status) ([]*models.Card, error)
}

// Resolver maps a card identifier to a known owner email.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (email string, ok bool)
}

// Notifier delivers the found-card message. Any returned error means the
// notification failed; the engine keeps going either way.
type Notifier interface {
	Notify(ctx context.Context, owner notify.Owner, card models.Card) error
}

// Extractor reads an optional {identifier, name} pair from image bytes.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (ocr.Extraction, error)
}

// BoxSignaler lets the engine tell the box bridge about code issuance and
// pickups without depending on its transport.
type BoxSignaler interface {
	// CodeIssued announces a freshly generated pickup code for a box.
	CodeIssued(boxID, code string)
	// OpenRequested asks the box to open on its next poll.
	OpenRequested(boxID, code string)
	// PickupConfirmed clears any pending open request for the code.
	PickupConfirmed(boxID, code string)
}

// Service orchestrates the card lifecycle.
type Service struct {
	store         CardStore
	resolver      Resolver
	notifier      Notifier
	extractor     Extractor
	signaler      BoxSignaler
	logger        *slog.Logger
	metrics       *metrics.Metrics
	ocrTimeout    time.Duration
	notifyTimeout time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithBoxSignaler(signaler BoxSignaler) Option {
	return func(s *Service) { s.signaler = signaler }
}

func WithTimeouts(ocrTimeout, notifyTimeout time.Duration) Option {
	return func(s *Service) {
		s.ocrTimeout = ocrTimeout
		s.notifyTimeout = notifyTimeout
	}
}

// New constructs the lifecycle engine.
func New(store CardStore, resolver Resolver, notifier Notifier, extractor Extractor, opts ...Option) *Service {
	s := &Service{
		store:         store,
		resolver:      resolver,
		notifier:      notifier,
		extractor:     extractor,
		logger:        slog.Default(),
		ocrTimeout:    defaultOCRTimeout,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup finds a card by full id or, failing that, by its 8-character
// reference code (case-insensitive). Read-only.
func (s *Service) Lookup(ctx context.Context, token string) (*models.Card, error) {
	if id, err := uuid.Parse(token); err == nil {
		card, err := s.store.GetByID(ctx, id)
		if err == nil {
			return card, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "card lookup failed", err)
		}
	}

	card, err := s.store.GetByReferenceCode(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "card lookup failed", err)
	}
	return card, nil
}

// List returns cards filtered by status (nil means all), newest first.
func (s *Service) List(ctx context.Context, status *models.Status) ([]*models.Card, error) {
	cards, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "card listing failed", err)
	}
	return cards, nil
}
