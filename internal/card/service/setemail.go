package service

import (
	"context"
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"cardreturn/internal/card/models"
	"cardreturn/internal/card/pickupcode"
	"cardreturn/internal/notify"
	dErrors "cardreturn/pkg/domain-errors"
	"cardreturn/pkg/email"
	"cardreturn/pkg/platform/sentinel"
	"cardreturn/pkg/requestcontext"
)

// AssignEmailResult distinguishes a persisted email from a delivered
// notification: EmailSent=false with no error means the address was stored
// but the owner could not be reached.
type AssignEmailResult struct {
	Card      *models.Card
	EmailSent bool
}

// AssignEmail is the staff override for cards resolution could not handle.
// Only awaiting-resolution cards accept it; anything later is a conflict. A
// box card that somehow missed code generation gets one now, before the
// notification attempt.
func (s *Service) AssignEmail(ctx context.Context, cardID uuid.UUID, ownerEmail string) (*AssignEmailResult, error) {
	ownerEmail = strings.TrimSpace(ownerEmail)
	if !govalidator.IsEmail(ownerEmail) {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}

	card, err := s.store.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "card not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "card lookup failed", err)
	}
	if card.Status != models.StatusAwaitingResolution {
		return nil, dErrors.New(dErrors.CodeConflict, "card is no longer awaiting resolution")
	}

	update := models.CardUpdate{OwnerEmail: &ownerEmail}

	if card.BoxID != "" && card.PickupCode == "" {
		code := pickupcode.Generate()
		update.PickupCode = &code
		card.PickupCode = code
		if s.signaler != nil {
			s.signaler.CodeIssued(card.BoxID, code)
		}
	}

	ownerName := card.OwnerName
	if ownerName == "" {
		ownerName = email.DeriveDisplayName(ownerEmail)
		update.OwnerName = &ownerName
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	notifyErr := s.notifier.Notify(notifyCtx, notify.Owner{Email: ownerEmail, Name: ownerName}, *card)
	cancel()

	if notifyErr == nil {
		notified := models.StatusNotified
		update.Status = &notified
	}

	updated, err := s.store.Update(ctx, cardID, update)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "card update failed", err)
	}

	if notifyErr != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.Inc()
		}
		s.logger.WarnContext(ctx, "staff-assigned notification failed",
			"request_id", requestcontext.RequestID(ctx),
			"card_id", cardID,
			"error", notifyErr.Error(),
		)
		return &AssignEmailResult{Card: updated}, nil
	}

	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
	return &AssignEmailResult{Card: updated, EmailSent: true}, nil
}
