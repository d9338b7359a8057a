package handler

import (
	"fmt"
	"strings"
	"time"

	"cardreturn/internal/card/models"
	"cardreturn/internal/card/service"
)

// CardResponse is the full card record returned by lookup, listing, and the
// staff email assignment. Optional fields render as null, not empty strings,
// so clients can tell "absent" from "blank".
type CardResponse struct {
	CardID             string     `json:"cardId"`
	ReferenceCode      string     `json:"referenceCode"`
	Identifier         *string    `json:"identifier"`
	OwnerName          *string    `json:"ownerName"`
	OwnerEmail         *string    `json:"ownerEmail"`
	Source             string     `json:"source"`
	FinderContact      *string    `json:"finderContact"`
	DropoffDescription *string    `json:"dropoffDescription"`
	BoxID              *string    `json:"boxId"`
	PickupCode         *string    `json:"pickupCode"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	PickedUpAt         *time.Time `json:"pickedUpAt"`
}

// FromCard converts a domain card to its HTTP shape.
func FromCard(card *models.Card) *CardResponse {
	return &CardResponse{
		CardID:             card.ID.String(),
		ReferenceCode:      card.ReferenceCode(),
		Identifier:         nullable(card.Identifier),
		OwnerName:          nullable(card.OwnerName),
		OwnerEmail:         nullable(card.OwnerEmail),
		Source:             string(card.Source),
		FinderContact:      nullable(card.FinderContact),
		DropoffDescription: nullable(card.DropoffDescription),
		BoxID:              nullable(card.BoxID),
		PickupCode:         nullable(card.PickupCode),
		Status:             string(card.Status),
		CreatedAt:          card.CreatedAt,
		PickedUpAt:         card.PickedUpAt,
	}
}

// FromCards converts a card list, preserving order.
func FromCards(cards []*models.Card) []*CardResponse {
	out := make([]*CardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, FromCard(card))
	}
	return out
}

// FoundCardPhotoResponse is the HTTP response for POST /found-card-photo.
type FoundCardPhotoResponse struct {
	CardID        string  `json:"cardId"`
	ReferenceCode string  `json:"referenceCode"`
	Message       string  `json:"message"`
	BoxID         *string `json:"boxId"`
	PickupCode    *string `json:"pickupCode"`
	Identifier    *string `json:"identifier"`
	EmailSent     bool    `json:"emailSent"`
	EmailAddress  *string `json:"emailAddress"`
}

// FromIntakeResult converts an app intake outcome to its HTTP shape.
func FromIntakeResult(res *service.IntakeResult) *FoundCardPhotoResponse {
	card := res.Card
	return &FoundCardPhotoResponse{
		CardID:        card.ID.String(),
		ReferenceCode: card.ReferenceCode(),
		Message:       intakeMessage(card, res.EmailSent),
		BoxID:         nullable(card.BoxID),
		PickupCode:    nullable(card.PickupCode),
		Identifier:    nullable(card.Identifier),
		EmailSent:     res.EmailSent,
		EmailAddress:  nullable(card.OwnerEmail),
	}
}

// FoundCardByIdentifierResponse is the HTTP response for
// POST /found-card-by-identifier.
type FoundCardByIdentifierResponse struct {
	CardID     string `json:"cardId"`
	PickupCode string `json:"pickupCode"`
}

// PickupResponse is the HTTP response for POST /pickup-request. Negative
// outcomes are ok:false with a machine-readable reason, never transport
// errors.
type PickupResponse struct {
	OK      bool    `json:"ok"`
	Reason  *string `json:"reason,omitempty"`
	CardID  *string `json:"cardId,omitempty"`
	Message *string `json:"message,omitempty"`
}

// FromPickupResult converts a pickup outcome to its HTTP shape.
func FromPickupResult(res *service.PickupResult) *PickupResponse {
	out := &PickupResponse{OK: res.OK}
	if res.Card != nil {
		id := res.Card.ID.String()
		out.CardID = &id
	}
	switch {
	case res.OK:
		msg := "Pickup confirmed. The box will open shortly."
		out.Message = &msg
	case res.Reason != "":
		reason := string(res.Reason)
		out.Reason = &reason
	}
	return out
}

// SetEmailResponse is the updated card plus the delivery outcome.
type SetEmailResponse struct {
	CardResponse
	EmailSent bool `json:"emailSent"`
}

func intakeMessage(card *models.Card, emailSent bool) string {
	var b strings.Builder
	if card.BoxID != "" {
		fmt.Fprintf(&b, "Card registered. Please drop it into box %s.", card.BoxID)
	} else {
		b.WriteString("Card registered. Please hand it in at the card desk.")
	}
	if emailSent {
		b.WriteString(" The owner has been notified.")
	}
	return b.String()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
