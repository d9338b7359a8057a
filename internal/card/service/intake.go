package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"cardreturn/internal/card/models"
	"cardreturn/internal/card/pickupcode"
	"cardreturn/internal/notify"
	"cardreturn/internal/ocr"
	dErrors "cardreturn/pkg/domain-errors"
	"cardreturn/pkg/email"
	"cardreturn/pkg/requestcontext"
)

// IntakeAppInput carries the app submission: an image plus optional context.
// The HTTP layer enforces that the image is present; everything else is
// optional.
type IntakeAppInput struct {
	Image              []byte
	FinderContact      string
	DropoffDescription string
	BoxID              string
	ManualIdentifier   string
}

// IntakeResult reports what intake did, including whether the owner was
// notified, so callers can surface degraded outcomes without treating them as
// failures.
type IntakeResult struct {
	Card      *models.Card
	EmailSent bool
}

// IntakeFromApp registers a card submitted through the finder app.
//
// A manual identifier always beats the OCR identifier, and OCR failure alone
// never aborts intake. When a box is involved the pickup code is generated
// before any notification attempt, so the card stays retrievable even if
// notification hangs or fails.
func (s *Service) IntakeFromApp(ctx context.Context, in IntakeAppInput) (*IntakeResult, error) {
	var extracted ocr.Extraction
	if len(in.Image) > 0 {
		ocrCtx, cancel := context.WithTimeout(ctx, s.ocrTimeout)
		ex, err := s.extractor.Extract(ocrCtx, in.Image)
		cancel()
		if err != nil {
			s.logger.WarnContext(ctx, "ocr extraction failed, continuing without it",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		} else {
			extracted = ex
		}
	}

	identifier := strings.TrimSpace(in.ManualIdentifier)
	if identifier == "" {
		identifier = strings.TrimSpace(extracted.Identifier)
	}

	return s.intake(ctx, models.NewCardParams{
		Source:             models.SourceApp,
		Identifier:         identifier,
		OwnerName:          extracted.Name,
		FinderContact:      in.FinderContact,
		DropoffDescription: in.DropoffDescription,
		BoxID:              in.BoxID,
	})
}

// IntakeFromBox registers a card dropped into a pickup box whose device
// already scanned the identifier. Both fields are required at the HTTP layer;
// a box submission always gets a pickup code.
func (s *Service) IntakeFromBox(ctx context.Context, identifier, boxID string) (*IntakeResult, error) {
	return s.intake(ctx, models.NewCardParams{
		Source:     models.SourceBox,
		Identifier: identifier,
		BoxID:      boxID,
	})
}

func (s *Service) intake(ctx context.Context, params models.NewCardParams) (*IntakeResult, error) {
	if params.BoxID != "" {
		params.PickupCode = pickupcode.Generate()
	}

	card, err := models.New(uuid.New(), requestcontext.Now(ctx), params)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, card); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "card creation failed", err)
	}

	if s.metrics != nil {
		s.metrics.IncCardsCreated(string(card.Source))
	}
	if s.signaler != nil && card.BoxID != "" {
		s.signaler.CodeIssued(card.BoxID, card.PickupCode)
	}

	s.logger.InfoContext(ctx, "card registered",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", card.ID,
		"source", card.Source,
		"box_id", card.BoxID,
		"has_identifier", card.Identifier != "",
	)

	card, sent := s.resolveAndNotify(ctx, card)
	return &IntakeResult{Card: card, EmailSent: sent}, nil
}

// resolveAndNotify resolves the card's identifier to an owner email and
// attempts notification. The resolved email (and any derived name) is
// persisted even when notification fails, so staff can see it; the card only
// moves to notified on delivery success.
func (s *Service) resolveAndNotify(ctx context.Context, card *models.Card) (*models.Card, bool) {
	if card.Identifier == "" {
		return card, false
	}

	ownerEmail, ok := s.resolver.Resolve(ctx, card.Identifier)
	if !ok {
		return card, false
	}

	ownerName := card.OwnerName
	if ownerName == "" {
		ownerName = email.DeriveDisplayName(ownerEmail)
	}

	notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	notifyErr := s.notifier.Notify(notifyCtx, notify.Owner{Email: ownerEmail, Name: ownerName}, *card)
	cancel()

	update := models.CardUpdate{OwnerEmail: &ownerEmail}
	if ownerName != card.OwnerName {
		update.OwnerName = &ownerName
	}
	if notifyErr == nil {
		notified := models.StatusNotified
		update.Status = &notified
	}

	updated, err := s.store.Update(ctx, card.ID, update)
	if err != nil {
		// the card exists; treat a failed merge as a failed notification
		s.logger.ErrorContext(ctx, "persisting resolution outcome failed",
			"request_id", requestcontext.RequestID(ctx),
			"card_id", card.ID,
			"error", err.Error(),
		)
		return card, false
	}

	if notifyErr != nil {
		if s.metrics != nil {
			s.metrics.NotificationsFailed.Inc()
		}
		s.logger.WarnContext(ctx, "owner notification failed",
			"request_id", requestcontext.RequestID(ctx),
			"card_id", card.ID,
			"error", notifyErr.Error(),
		)
		return updated, false
	}

	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
	s.logger.InfoContext(ctx, "owner notified",
		"request_id", requestcontext.RequestID(ctx),
		"card_id", card.ID,
	)
	return updated, true
}
