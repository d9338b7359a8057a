package box

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardreturn/internal/card/service"
	dErrors "cardreturn/pkg/domain-errors"
	"cardreturn/pkg/platform/httputil"
	"cardreturn/pkg/requestcontext"
)

// PickupEngine is the slice of the lifecycle engine the box surface needs.
type PickupEngine interface {
	Pickup(ctx context.Context, code, boxID string) (*service.PickupResult, error)
}

// Handler exposes the box-facing endpoints: a JSON poll for door firmware
// that can speak HTTP, and the raw line-protocol endpoint for devices that
// cannot.
type Handler struct {
	engine PickupEngine
	bridge *Bridge
	logger *slog.Logger
}

// NewHandler constructs a box handler with its dependencies.
func NewHandler(engine PickupEngine, bridge *Bridge, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		bridge: bridge,
		logger: logger,
	}
}

// Register mounts the box endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/box/check-open", h.HandleCheckOpen)
	r.Post("/box/message", h.HandleMessage)
}

type checkOpenResponse struct {
	ShouldOpen bool    `json:"shouldOpen"`
	PickupCode *string `json:"pickupCode,omitempty"`
}

// HandleCheckOpen handles GET /box/check-open?boxId=X poll requests.
func (h *Handler) HandleCheckOpen(w http.ResponseWriter, r *http.Request) {
	boxID := r.URL.Query().Get("boxId")
	if boxID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "boxId is required"))
		return
	}

	resp := checkOpenResponse{}
	if code, ok := h.bridge.PendingOpen(boxID); ok {
		resp.ShouldOpen = true
		resp.PickupCode = &code
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleMessage handles POST /box/message, the plain-text line protocol the
// box device speaks. One frame in, one frame out.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxFrame+1))
	if err != nil {
		http.Error(w, "unreadable message", http.StatusBadRequest)
		return
	}

	msg, err := Parse(string(body))
	if err != nil {
		h.logger.WarnContext(ctx, "malformed box message",
			"request_id", requestID,
			"error", err.Error(),
		)
		http.Error(w, "malformed message", http.StatusBadRequest)
		return
	}

	var reply Message
	switch msg.Kind {
	case KindOpenCheck:
		reply = h.openCheckReply(msg.BoxID)
	case KindConfirm:
		if _, err := h.engine.Pickup(ctx, msg.Code, msg.BoxID); err != nil {
			h.logger.ErrorContext(ctx, "box pickup confirmation failed",
				"request_id", requestID,
				"box_id", msg.BoxID,
				"error", err,
			)
			http.Error(w, "confirmation failed", http.StatusInternalServerError)
			return
		}
		// the door already cycled locally; nothing left to open
		h.bridge.PickupConfirmed(msg.BoxID, msg.Code)
		reply = Message{Kind: KindAck, BoxID: msg.BoxID}
	default:
		// server-to-box shape arriving as a request
		http.Error(w, "unexpected message kind", http.StatusBadRequest)
		return
	}

	frame, err := reply.Encode()
	if err != nil {
		http.Error(w, "reply encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, frame+"\n")
}

// openCheckReply answers an open-check poll. Undelivered code-pushes drain
// first, one per poll, so the box learns its codes before it is ever told to
// open.
func (h *Handler) openCheckReply(boxID string) Message {
	if code, ok := h.bridge.NextQueuedCode(boxID); ok {
		return Message{Kind: KindCodePush, BoxID: boxID, Code: code}
	}
	if code, ok := h.bridge.PendingOpen(boxID); ok {
		return Message{Kind: KindOpen, BoxID: boxID, Code: code}
	}
	return Message{Kind: KindNone, BoxID: boxID}
}
