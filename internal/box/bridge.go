package box

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// maxQueuedCodes caps the undelivered code-push queue per box; the oldest
// entry is dropped first. The box re-learns dropped codes from the server on
// pickup anyway.
const maxQueuedCodes = 32

// openRequest is a pending instruction for a box to open its door.
type openRequest struct {
	code      string
	expiresAt time.Time
}

// Bridge relays open requests and code pushes between the lifecycle engine
// and the polling box devices. All state is per-box, mutex-guarded, and
// expires: the box polls at least once per TTL in normal operation, so a
// stale open request means the box is gone and the door should stay shut.
type Bridge struct {
	mu     sync.Mutex
	open   map[string]openRequest
	queued map[string][]string
	ttl    time.Duration
	logger *slog.Logger
}

// NewBridge builds a bridge whose open requests expire after ttl.
func NewBridge(ttl time.Duration, logger *slog.Logger) *Bridge {
	return &Bridge{
		open:   make(map[string]openRequest),
		queued: make(map[string][]string),
		ttl:    ttl,
		logger: logger,
	}
}

// CodeIssued queues a code-push so the box can accept the code locally even
// while offline from the server.
func (b *Bridge) CodeIssued(boxID, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := append(b.queued[boxID], code)
	if len(q) > maxQueuedCodes {
		q = q[len(q)-maxQueuedCodes:]
	}
	b.queued[boxID] = q
}

// OpenRequested records that the box should open for code on its next poll.
// A newer request replaces an older one; one door, one instruction.
func (b *Bridge) OpenRequested(boxID, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open[boxID] = openRequest{code: code, expiresAt: time.Now().Add(b.ttl)}
}

// PickupConfirmed clears the pending open request once the box (or a
// duplicate pickup request) confirms the door cycle for that code.
func (b *Bridge) PickupConfirmed(boxID, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if req, ok := b.open[boxID]; ok && req.code == code {
		delete(b.open, boxID)
	}
}

// PendingOpen reports the open instruction for a box, if any. Reading does
// not consume it: polls are at-least-once and the same answer must survive a
// repeat poll.
func (b *Bridge) PendingOpen(boxID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.open[boxID]
	if !ok {
		return "", false
	}
	if time.Now().After(req.expiresAt) {
		delete(b.open, boxID)
		return "", false
	}
	return req.code, true
}

// NextQueuedCode pops one undelivered code-push for the box.
func (b *Bridge) NextQueuedCode(boxID string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.queued[boxID]
	if len(q) == 0 {
		return "", false
	}
	code := q[0]
	b.queued[boxID] = q[1:]
	return code, true
}

// Sweep drops expired open requests and returns how many were dropped.
func (b *Bridge) Sweep(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := 0
	for boxID, req := range b.open {
		if now.After(req.expiresAt) {
			delete(b.open, boxID)
			dropped++
		}
	}
	return dropped
}

// Run sweeps on the given interval until the context is cancelled. Meant for
// an errgroup in main.
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if dropped := b.Sweep(now); dropped > 0 && b.logger != nil {
				b.logger.Debug("expired box open requests dropped", "count", dropped)
			}
		}
	}
}
