// Package handler exposes the card lifecycle over HTTP: finder intake,
// pickup requests, status lookup, and the staff surface.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cardreturn/internal/card/models"
	"cardreturn/internal/card/service"
	dErrors "cardreturn/pkg/domain-errors"
	"cardreturn/pkg/platform/httputil"
	"cardreturn/pkg/requestcontext"
)

// maxUploadBytes bounds the multipart photo upload.
const maxUploadBytes = 10 << 20

// Service defines the lifecycle operations the HTTP surface exposes.
type Service interface {
	IntakeFromApp(ctx context.Context, in service.IntakeAppInput) (*service.IntakeResult, error)
	IntakeFromBox(ctx context.Context, identifier, boxID string) (*service.IntakeResult, error)
	Pickup(ctx context.Context, code, boxID string) (*service.PickupResult, error)
	AssignEmail(ctx context.Context, cardID uuid.UUID, email string) (*service.AssignEmailResult, error)
	Lookup(ctx context.Context, token string) (*models.Card, error)
	List(ctx context.Context, status *models.Status) ([]*models.Card, error)
}

// Handler wires the card endpoints to the lifecycle engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a card handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the card endpoints on the router. staffGate guards the
// staff-only routes; pass middleware.RequireStaff (or a pass-through in dev).
func (h *Handler) Register(r chi.Router, staffGate func(http.Handler) http.Handler) {
	r.Post("/found-card-photo", h.HandleFoundCardPhoto)
	r.Post("/found-card-by-identifier", h.HandleFoundCardByIdentifier)
	r.Post("/pickup-request", h.HandlePickup)
	r.Get("/cards/{token}", h.HandleGetCard)

	r.Group(func(g chi.Router) {
		g.Use(staffGate)
		g.Get("/cards", h.HandleListCards)
		g.Post("/cards/{id}/set-email", h.HandleSetEmail)
	})
}

// HandleFoundCardPhoto handles POST /found-card-photo: the finder-app intake
// with a photo and optional context fields.
func (h *Handler) HandleFoundCardPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart form is required"))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "image is required"))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil || len(image) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "image is required"))
		return
	}

	result, err := h.service.IntakeFromApp(ctx, service.IntakeAppInput{
		Image:              image,
		FinderContact:      r.FormValue("finderContact"),
		DropoffDescription: r.FormValue("dropoffDescription"),
		BoxID:              r.FormValue("boxId"),
		ManualIdentifier:   r.FormValue("manualIdentifier"),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "photo intake failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "photo intake accepted",
		"request_id", requestID,
		"card_id", result.Card.ID,
		"email_sent", result.EmailSent,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromIntakeResult(result))
}

// HandleFoundCardByIdentifier handles POST /found-card-by-identifier: the box
// intake where the device already scanned the identifier.
func (h *Handler) HandleFoundCardByIdentifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FoundCardByIdentifierRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.IntakeFromBox(ctx, req.Identifier, req.BoxID)
	if err != nil {
		h.logger.ErrorContext(ctx, "box intake failed",
			"request_id", requestID,
			"box_id", req.BoxID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &FoundCardByIdentifierResponse{
		CardID:     result.Card.ID.String(),
		PickupCode: result.Card.PickupCode,
	})
}

// HandlePickup handles POST /pickup-request from both the retrieval app and
// the box device.
func (h *Handler) HandlePickup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PickupRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Pickup(ctx, req.PickupCode, req.BoxID)
	if err != nil {
		h.logger.ErrorContext(ctx, "pickup request failed",
			"request_id", requestID,
			"box_id", req.BoxID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPickupResult(result))
}

// HandleGetCard handles GET /cards/{token}; the token is a full card id or an
// 8-character reference code.
func (h *Handler) HandleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCard(card))
}

// HandleListCards handles GET /cards?status=X for the staff overview, newest
// first.
func (h *Handler) HandleListCards(w http.ResponseWriter, r *http.Request) {
	var status *models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = &parsed
	}

	cards, err := h.service.List(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCards(cards))
}

// HandleSetEmail handles POST /cards/{id}/set-email, the staff override for
// cards automatic resolution could not handle.
func (h *Handler) HandleSetEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid card id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetEmailRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.AssignEmail(ctx, cardID, req.Email)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "staff email assignment",
		"request_id", requestID,
		"card_id", cardID,
		"staff_id", requestcontext.StaffID(ctx),
		"email_sent", result.EmailSent,
	)
	httputil.WriteJSON(w, http.StatusOK, &SetEmailResponse{
		CardResponse: *FromCard(result.Card),
		EmailSent:    result.EmailSent,
	})
}
