// Package box bridges the physical pickup boxes and the card lifecycle
// engine. The box device is a constrained embedded collaborator: it polls on
// a fixed interval, speaks a tiny line protocol, and must be allowed to
// repeat itself.
package box

import (
	"errors"
	"fmt"
	"strings"
)

// Wire protocol: one message per line, fixed field order, '|' delimiter,
// bounded length. Three request shapes reach the server (open-check,
// pickup-confirm) or the box (code-push); replies reuse the same framing.
//
//	CODE|<box>|<code>   code-push: a pickup code the box should accept locally
//	OPEN?|<box>         open-check poll
//	OPEN|<box>|<code>   open-check reply: open now for this code
//	NONE|<box>          open-check reply: nothing pending
//	DONE|<box>|<code>   pickup-confirm after the door opened
//	OK|<box>            pickup-confirm acknowledgement
const (
	delimiter = "|"

	// MaxFrame bounds one encoded message, sized for the device's fixed
	// receive buffer.
	MaxFrame = 64
)

// Kind discriminates the message shapes.
type Kind string

const (
	KindCodePush  Kind = "CODE"
	KindOpenCheck Kind = "OPEN?"
	KindOpen      Kind = "OPEN"
	KindNone      Kind = "NONE"
	KindConfirm   Kind = "DONE"
	KindAck       Kind = "OK"
)

// ErrMalformedMessage covers any frame that does not parse.
var ErrMalformedMessage = errors.New("malformed box message")

// Message is one protocol frame.
type Message struct {
	Kind  Kind
	BoxID string
	Code  string
}

// hasCode reports whether the kind carries a code field.
func (k Kind) hasCode() bool {
	switch k {
	case KindCodePush, KindOpen, KindConfirm:
		return true
	}
	return false
}

func validKind(k Kind) bool {
	switch k {
	case KindCodePush, KindOpenCheck, KindOpen, KindNone, KindConfirm, KindAck:
		return true
	}
	return false
}

// Encode renders the message as one frame, validating shape and length.
func (m Message) Encode() (string, error) {
	if !validKind(m.Kind) {
		return "", fmt.Errorf("%w: unknown kind %q", ErrMalformedMessage, m.Kind)
	}
	if m.BoxID == "" || strings.Contains(m.BoxID, delimiter) {
		return "", fmt.Errorf("%w: bad box id", ErrMalformedMessage)
	}

	fields := []string{string(m.Kind), m.BoxID}
	if m.Kind.hasCode() {
		if m.Code == "" || strings.Contains(m.Code, delimiter) {
			return "", fmt.Errorf("%w: kind %s requires a code", ErrMalformedMessage, m.Kind)
		}
		fields = append(fields, m.Code)
	} else if m.Code != "" {
		return "", fmt.Errorf("%w: kind %s carries no code", ErrMalformedMessage, m.Kind)
	}

	frame := strings.Join(fields, delimiter)
	if len(frame) > MaxFrame {
		return "", fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformedMessage, MaxFrame)
	}
	return frame, nil
}

// Parse decodes one frame.
func Parse(frame string) (Message, error) {
	frame = strings.TrimRight(frame, "\r\n")
	if frame == "" || len(frame) > MaxFrame {
		return Message{}, fmt.Errorf("%w: empty or oversized frame", ErrMalformedMessage)
	}

	fields := strings.Split(frame, delimiter)
	kind := Kind(fields[0])
	if !validKind(kind) {
		return Message{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedMessage, fields[0])
	}

	want := 2
	if kind.hasCode() {
		want = 3
	}
	if len(fields) != want {
		return Message{}, fmt.Errorf("%w: kind %s wants %d fields, got %d", ErrMalformedMessage, kind, want, len(fields))
	}

	msg := Message{Kind: kind, BoxID: fields[1]}
	if msg.BoxID == "" {
		return Message{}, fmt.Errorf("%w: empty box id", ErrMalformedMessage)
	}
	if kind.hasCode() {
		msg.Code = fields[2]
		if msg.Code == "" {
			return Message{}, fmt.Errorf("%w: empty code", ErrMalformedMessage)
		}
	}
	return msg, nil
}
