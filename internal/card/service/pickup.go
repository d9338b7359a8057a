package service

import (
	"context"
	"errors"

	"cardreturn/internal/card/models"
	dErrors "cardreturn/pkg/domain-errors"
	"cardreturn/pkg/platform/sentinel"
	"cardreturn/pkg/requestcontext"
)

// PickupReason labels the negative pickup outcomes. They are expected and
// frequent, so they travel as structured results, not errors.
type PickupReason string

const (
	ReasonInvalidCode     PickupReason = "invalid_code"
	ReasonAlreadyPickedUp PickupReason = "already_picked_up"
)

// PickupResult is the outcome of a pickup request.
type PickupResult struct {
	OK     bool
	Reason PickupReason
	Card   *models.Card
}

// Pickup consumes a pickup code exactly once. It is valid from any
// non-terminal state: the box may accept a code before a notification ever
// succeeded. Calling it again with the same inputs reports already-picked-up
// and mutates nothing, which makes the box's at-least-once confirmations
// safe.
func (s *Service) Pickup(ctx context.Context, code, boxID string) (*PickupResult, error) {
	card, err := s.store.GetByPickupCode(ctx, code, boxID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if s.metrics != nil {
				s.metrics.InvalidPickupCodes.Inc()
			}
			s.logger.InfoContext(ctx, "pickup request with unknown code",
				"request_id", requestcontext.RequestID(ctx),
				"box_id", boxID,
			)
			return &PickupResult{Reason: ReasonInvalidCode}, nil
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "pickup lookup failed", err)
	}

	updated, err := s.store.MarkPickedUp(ctx, card.ID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// duplicate confirmation; let the bridge drop its pending open
			if s.signaler != nil && updated != nil {
				s.signaler.PickupConfirmed(boxID, updated.PickupCode)
			}
			return &PickupResult{Reason: ReasonAlreadyPickedUp, Card: updated}, nil
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "pickup transition failed", err)
	}

	if s.metrics != nil {
		s.metrics.Pickups.Inc()
	}
	if s.signaler != nil {
		s.signaler.OpenRequested(boxID, updated.PickupCode)
	}

	s.logger.InfoContext(ctx, "card picked up",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", updated.ID,
		"box_id", boxID,
	)
	return &PickupResult{OK: true, Card: updated}, nil
}
