package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardreturn/internal/card/models"
	"cardreturn/internal/card/service"
	dErrors "cardreturn/pkg/domain-errors"
)

var testCardID = uuid.MustParse("deadbeef-0000-4000-8000-000000000001")

type fakeService struct {
	intakeResult *service.IntakeResult
	pickupResult *service.PickupResult
	assignResult *service.AssignEmailResult
	card         *models.Card
	cards        []*models.Card
	err          error

	gotAppInput   *service.IntakeAppInput
	gotIdentifier string
	gotBoxID      string
	gotCode       string
	gotEmail      string
	gotStatus     *models.Status
}

func (f *fakeService) IntakeFromApp(_ context.Context, in service.IntakeAppInput) (*service.IntakeResult, error) {
	f.gotAppInput = &in
	return f.intakeResult, f.err
}

func (f *fakeService) IntakeFromBox(_ context.Context, identifier, boxID string) (*service.IntakeResult, error) {
	f.gotIdentifier, f.gotBoxID = identifier, boxID
	return f.intakeResult, f.err
}

func (f *fakeService) Pickup(_ context.Context, code, boxID string) (*service.PickupResult, error) {
	f.gotCode, f.gotBoxID = code, boxID
	return f.pickupResult, f.err
}

func (f *fakeService) AssignEmail(_ context.Context, _ uuid.UUID, email string) (*service.AssignEmailResult, error) {
	f.gotEmail = email
	return f.assignResult, f.err
}

func (f *fakeService) Lookup(_ context.Context, _ string) (*models.Card, error) {
	return f.card, f.err
}

func (f *fakeService) List(_ context.Context, status *models.Status) ([]*models.Card, error) {
	f.gotStatus = status
	return f.cards, f.err
}

func passThrough(next http.Handler) http.Handler { return next }

func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
}

func newTestRouter(svc Service, staffGate func(http.Handler) http.Handler) http.Handler {
	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r, staffGate)
	return r
}

func boxCard() *models.Card {
	return &models.Card{
		ID:         testCardID,
		Identifier: "s1001",
		OwnerEmail: "jane.doe@campus.edu",
		OwnerName:  "Jane Doe",
		Source:     models.SourceApp,
		BoxID:      "BOX_1",
		PickupCode: "1234",
		Status:     models.StatusNotified,
		CreatedAt:  time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC),
	}
}

func photoRequest(t *testing.T, fields map[string]string, withImage bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if withImage {
		part, err := mw.CreateFormFile("image", "card.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/found-card-photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleFoundCardPhoto(t *testing.T) {
	t.Run("rejects a submission without an image", func(t *testing.T) {
		svc := &fakeService{}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, photoRequest(t, map[string]string{"boxId": "BOX_1"}, false))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "image is required")
		assert.Nil(t, svc.gotAppInput, "intake never ran")
	})

	t.Run("accepts a full submission", func(t *testing.T) {
		svc := &fakeService{intakeResult: &service.IntakeResult{Card: boxCard(), EmailSent: true}}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, photoRequest(t, map[string]string{
			"finderContact":      "finder@campus.edu",
			"dropoffDescription": "library entrance",
			"boxId":              "BOX_1",
			"manualIdentifier":   "s1001",
		}, true))

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp FoundCardPhotoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, testCardID.String(), resp.CardID)
		assert.Equal(t, "DEADBEEF", resp.ReferenceCode)
		require.NotNil(t, resp.PickupCode)
		assert.Equal(t, "1234", *resp.PickupCode)
		require.NotNil(t, resp.EmailAddress)
		assert.Equal(t, "jane.doe@campus.edu", *resp.EmailAddress)
		assert.True(t, resp.EmailSent)
		assert.Contains(t, resp.Message, "BOX_1")

		require.NotNil(t, svc.gotAppInput)
		assert.Equal(t, []byte("jpeg-bytes"), svc.gotAppInput.Image)
		assert.Equal(t, "s1001", svc.gotAppInput.ManualIdentifier)
		assert.Equal(t, "library entrance", svc.gotAppInput.DropoffDescription)
	})
}

func TestHandleFoundCardByIdentifier(t *testing.T) {
	t.Run("both fields are required", func(t *testing.T) {
		router := newTestRouter(&fakeService{}, passThrough)

		for _, body := range []string{`{}`, `{"identifier":"s1001"}`, `{"boxId":"BOX_1"}`} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/found-card-by-identifier", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
		}
	})

	t.Run("returns card id and pickup code", func(t *testing.T) {
		svc := &fakeService{intakeResult: &service.IntakeResult{Card: boxCard()}}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/found-card-by-identifier",
			strings.NewReader(`{"identifier":"s1001","boxId":"BOX_1"}`)))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"cardId":"`+testCardID.String()+`","pickupCode":"1234"}`, rec.Body.String())
		assert.Equal(t, "s1001", svc.gotIdentifier)
		assert.Equal(t, "BOX_1", svc.gotBoxID)
	})
}

func TestHandlePickup(t *testing.T) {
	t.Run("requires code and box", func(t *testing.T) {
		router := newTestRouter(&fakeService{}, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pickup-request", strings.NewReader(`{"pickupCode":"1234"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success carries the card id", func(t *testing.T) {
		card := boxCard()
		svc := &fakeService{pickupResult: &service.PickupResult{OK: true, Card: card}}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pickup-request",
			strings.NewReader(`{"pickupCode":"1234","boxId":"BOX_1"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp PickupResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		require.NotNil(t, resp.CardID)
		assert.Equal(t, testCardID.String(), *resp.CardID)
		assert.Nil(t, resp.Reason)
	})

	t.Run("negative outcomes stay 200 with a reason", func(t *testing.T) {
		svc := &fakeService{pickupResult: &service.PickupResult{Reason: service.ReasonInvalidCode}}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pickup-request",
			strings.NewReader(`{"pickupCode":"4444","boxId":"BOX_1"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp PickupResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		require.NotNil(t, resp.Reason)
		assert.Equal(t, "invalid_code", *resp.Reason)
	})
}

func TestHandleGetCard(t *testing.T) {
	t.Run("known token", func(t *testing.T) {
		svc := &fakeService{card: boxCard()}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards/DEADBEEF", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, testCardID.String(), resp.CardID)
		assert.Equal(t, "notified", resp.Status)
		assert.Nil(t, resp.PickedUpAt)
		assert.Nil(t, resp.FinderContact, "blank optionals render as null")
	})

	t.Run("unknown token", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeNotFound, "card not found")}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards/FFFFFFFF", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "card not found")
	})
}

func TestHandleListCards(t *testing.T) {
	t.Run("filters by a valid status", func(t *testing.T) {
		svc := &fakeService{cards: []*models.Card{boxCard()}}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards?status=notified", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.gotStatus)
		assert.Equal(t, models.StatusNotified, *svc.gotStatus)

		var resp []*CardResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		router := newTestRouter(&fakeService{}, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards?status=lost", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("staff gate applies", func(t *testing.T) {
		router := newTestRouter(&fakeService{}, denyAll)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleSetEmail(t *testing.T) {
	t.Run("invalid card id", func(t *testing.T) {
		router := newTestRouter(&fakeService{}, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cards/not-a-uuid/set-email",
			strings.NewReader(`{"email":"a@b.c"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		svc := &fakeService{err: dErrors.New(dErrors.CodeConflict, "card is no longer awaiting resolution")}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cards/"+testCardID.String()+"/set-email",
			strings.NewReader(`{"email":"owner@campus.edu"}`)))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("returns the updated card", func(t *testing.T) {
		svc := &fakeService{assignResult: &service.AssignEmailResult{Card: boxCard(), EmailSent: true}}
		router := newTestRouter(svc, passThrough)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cards/"+testCardID.String()+"/set-email",
			strings.NewReader(`{"email":"jane.doe@campus.edu"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp SetEmailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.EmailSent)
		assert.Equal(t, testCardID.String(), resp.CardID)
		assert.Equal(t, "jane.doe@campus.edu", svc.gotEmail)
	})

	t.Run("staff gate applies", func(t *testing.T) {
		router := newTestRouter(&fakeService{}, denyAll)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cards/"+testCardID.String()+"/set-email",
			strings.NewReader(`{"email":"a@b.c"}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
