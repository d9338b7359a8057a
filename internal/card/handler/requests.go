package handler

import (
	"strings"

	dErrors "cardreturn/pkg/domain-errors"
)

// FoundCardByIdentifierRequest is the body for POST /found-card-by-identifier,
// used by the box path where the device already scanned the identifier.
type FoundCardByIdentifierRequest struct {
	Identifier string `json:"identifier"`
	BoxID      string `json:"boxId"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *FoundCardByIdentifierRequest) Validate() error {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if r.Identifier == "" {
		return dErrors.New(dErrors.CodeValidation, "identifier is required")
	}
	r.BoxID = strings.TrimSpace(r.BoxID)
	if r.BoxID == "" {
		return dErrors.New(dErrors.CodeValidation, "boxId is required")
	}
	return nil
}

// PickupRequest is the body for POST /pickup-request.
type PickupRequest struct {
	PickupCode string `json:"pickupCode"`
	BoxID      string `json:"boxId"`
}

func (r *PickupRequest) Validate() error {
	r.PickupCode = strings.TrimSpace(r.PickupCode)
	if r.PickupCode == "" {
		return dErrors.New(dErrors.CodeValidation, "pickupCode is required")
	}
	r.BoxID = strings.TrimSpace(r.BoxID)
	if r.BoxID == "" {
		return dErrors.New(dErrors.CodeValidation, "boxId is required")
	}
	return nil
}

// SetEmailRequest is the body for POST /cards/{id}/set-email. Full address
// validation happens in the lifecycle engine; the transport only requires the
// field to be present.
type SetEmailRequest struct {
	Email string `json:"email"`
}

func (r *SetEmailRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}
