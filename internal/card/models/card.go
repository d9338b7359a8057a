// Package models defines the Card entity at the center of the lost-and-found
// lifecycle, plus the explicit partial-update structure applied by the store.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "cardreturn/pkg/domain-errors"
)

// Status is the card lifecycle state. Transitions are monotonic:
// awaiting-resolution -> notified -> picked-up. No card regresses.
type Status string

const (
	StatusAwaitingResolution Status = "awaiting-resolution"
	StatusNotified           Status = "notified"
	StatusPickedUp           Status = "picked-up"
)

// rank orders statuses along the lifecycle for monotonicity checks.
func (s Status) rank() int {
	switch s {
	case StatusNotified:
		return 1
	case StatusPickedUp:
		return 2
	}
	return 0
}

// ParseStatus validates a user-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusAwaitingResolution, StatusNotified, StatusPickedUp:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown status "+strings.TrimSpace(s))
}

// Source records which entry point created the card. Immutable.
type Source string

const (
	SourceApp Source = "submitted-via-app"
	SourceBox Source = "submitted-via-box"
)

// ReferenceCodeLength is the number of leading id characters exposed as the
// human-typable reference code.
const ReferenceCodeLength = 8

// Card is one found physical ID card moving through the lifecycle.
//
// OwnerEmail is set exactly once (resolved or staff-assigned) and only
// corrected explicitly. PickupCode is present iff BoxID is present and is
// never regenerated while unconsumed. PickedUpAt is non-nil iff Status is
// StatusPickedUp.
type Card struct {
	ID                 uuid.UUID
	Identifier         string
	OwnerName          string
	OwnerEmail         string
	Source             Source
	FinderContact      string
	DropoffDescription string
	BoxID              string
	PickupCode         string
	Status             Status
	CreatedAt          time.Time
	PickedUpAt         *time.Time
}

// ReferenceCode derives the short lookup key: the first eight characters of
// the id, uppercased. Truncation means collisions are theoretically possible;
// lookups resolve them first-match-wins rather than assuming uniqueness.
func (c *Card) ReferenceCode() string {
	return strings.ToUpper(c.ID.String()[:ReferenceCodeLength])
}

// NewCardParams carries the creation-time fields for New.
type NewCardParams struct {
	Source             Source
	Identifier         string
	OwnerName          string
	FinderContact      string
	DropoffDescription string
	BoxID              string
	PickupCode         string
}

// New constructs a Card in the initial state, validating creation invariants:
// the source must be known, and a pickup code must accompany a box id and
// nothing else.
func New(id uuid.UUID, now time.Time, p NewCardParams) (*Card, error) {
	if p.Source != SourceApp && p.Source != SourceBox {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown card source")
	}
	if p.BoxID != "" && p.PickupCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "card with a box requires a pickup code")
	}
	if p.BoxID == "" && p.PickupCode != "" {
		return nil, dErrors.New(dErrors.CodeValidation, "pickup code requires a box")
	}

	return &Card{
		ID:                 id,
		Identifier:         strings.TrimSpace(p.Identifier),
		OwnerName:          strings.TrimSpace(p.OwnerName),
		Source:             p.Source,
		FinderContact:      strings.TrimSpace(p.FinderContact),
		DropoffDescription: strings.TrimSpace(p.DropoffDescription),
		BoxID:              strings.TrimSpace(p.BoxID),
		PickupCode:         p.PickupCode,
		Status:             StatusAwaitingResolution,
		CreatedAt:          now,
	}, nil
}

// CardUpdate models every updatable attribute as present-or-absent. A nil
// field leaves the stored value untouched; a set field always overwrites,
// except Status, which only ever advances.
type CardUpdate struct {
	Identifier *string
	OwnerName  *string
	OwnerEmail *string
	PickupCode *string
	Status     *Status
}

// ApplyTo merges the update into c with new-value-wins precedence. The store
// calls this under its lock so read-modify-write sequences stay serialized.
//
// Status merges are monotonic: a Status below the stored one is ignored, so a
// slow collaborator result decided before a concurrent pickup can never
// regress the card.
func (u CardUpdate) ApplyTo(c *Card) {
	if u.Identifier != nil {
		c.Identifier = *u.Identifier
	}
	if u.OwnerName != nil {
		c.OwnerName = *u.OwnerName
	}
	if u.OwnerEmail != nil {
		c.OwnerEmail = *u.OwnerEmail
	}
	if u.PickupCode != nil {
		c.PickupCode = *u.PickupCode
	}
	if u.Status != nil && u.Status.rank() > c.Status.rank() {
		c.Status = *u.Status
	}
}

// Clone returns a snapshot copy safe to hand out past the store lock.
func (c *Card) Clone() *Card {
	out := *c
	if c.PickedUpAt != nil {
		at := *c.PickedUpAt
		out.PickedUpAt = &at
	}
	return &out
}
