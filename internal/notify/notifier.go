// Package notify sends the "card found" message to an owner. Adapters report
// success or failure to the lifecycle engine and never panic across the
// boundary; message wording is a presentation concern kept out of the engine.
package notify

import (
	"fmt"
	"strings"

	"cardreturn/internal/card/models"
)

// Owner is the notification recipient.
type Owner struct {
	Email string
	Name  string
}

// Compose picks the message variant from the card's populated fields:
// box+code means pickup instructions, a finder contact without a box means a
// contact-arrangement message, anything else a generic acknowledgement.
func Compose(owner Owner, card models.Card) (subject, body string) {
	greeting := "Hello,"
	if owner.Name != "" {
		greeting = fmt.Sprintf("Hello %s,", owner.Name)
	}

	var b strings.Builder
	b.WriteString(greeting)
	b.WriteString("\n\nYour campus ID card was found.\n\n")

	switch {
	case card.BoxID != "" && card.PickupCode != "":
		subject = "Your ID card is ready for pickup"
		fmt.Fprintf(&b, "It is waiting in pickup box %s.\n", card.BoxID)
		fmt.Fprintf(&b, "Enter code %s on the box keypad to retrieve it.\n", card.PickupCode)
	case card.FinderContact != "":
		subject = "Your ID card was found"
		fmt.Fprintf(&b, "The finder left contact details so you can arrange a handover: %s\n", card.FinderContact)
	default:
		subject = "Your ID card was found"
		b.WriteString("Check with the campus lost-and-found desk to retrieve it.\n")
	}

	if card.DropoffDescription != "" {
		fmt.Fprintf(&b, "\nDrop-off note: %s\n", card.DropoffDescription)
	}
	fmt.Fprintf(&b, "\nReference code for status lookups: %s\n", card.ReferenceCode())

	return subject, b.String()
}
