package box

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardreturn/internal/card/service"
)

type fakeEngine struct {
	result *service.PickupResult
	err    error

	calls []string
}

func (f *fakeEngine) Pickup(_ context.Context, code, boxID string) (*service.PickupResult, error) {
	f.calls = append(f.calls, boxID+":"+code)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &service.PickupResult{OK: true}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler(t *testing.T, engine *fakeEngine) (*Bridge, http.Handler) {
	t.Helper()
	bridge := NewBridge(time.Minute, nil)
	h := NewHandler(engine, bridge, discardLogger())
	r := chi.NewRouter()
	h.Register(r)
	return bridge, r
}

func TestHandleCheckOpen(t *testing.T) {
	t.Run("requires boxId", func(t *testing.T) {
		_, router := newTestHandler(t, &fakeEngine{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/box/check-open", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "bad_request")
	})

	t.Run("nothing pending", func(t *testing.T) {
		_, router := newTestHandler(t, &fakeEngine{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/box/check-open?boxId=BOX_1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"shouldOpen":false}`, rec.Body.String())
	})

	t.Run("pending open survives repeat polls", func(t *testing.T) {
		bridge, router := newTestHandler(t, &fakeEngine{})
		bridge.OpenRequested("BOX_1", "1234")

		for i := 0; i < 2; i++ {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/box/check-open?boxId=BOX_1", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"shouldOpen":true,"pickupCode":"1234"}`, rec.Body.String())
		}
	})
}

func postMessage(router http.Handler, frame string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/box/message", strings.NewReader(frame)))
	return rec
}

func TestHandleMessageOpenCheck(t *testing.T) {
	bridge, router := newTestHandler(t, &fakeEngine{})
	bridge.CodeIssued("BOX_1", "1111")
	bridge.OpenRequested("BOX_1", "2222")

	// queued code-pushes drain first, one per poll
	rec := postMessage(router, "OPEN?|BOX_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CODE|BOX_1|1111\n", rec.Body.String())

	rec = postMessage(router, "OPEN?|BOX_1\r\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OPEN|BOX_1|2222\n", rec.Body.String())

	bridge.PickupConfirmed("BOX_1", "2222")

	rec = postMessage(router, "OPEN?|BOX_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NONE|BOX_1\n", rec.Body.String())
}

func TestHandleMessageConfirm(t *testing.T) {
	engine := &fakeEngine{}
	bridge, router := newTestHandler(t, engine)
	bridge.OpenRequested("BOX_1", "1234")

	rec := postMessage(router, "DONE|BOX_1|1234")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK|BOX_1\n", rec.Body.String())
	assert.Equal(t, []string{"BOX_1:1234"}, engine.calls)

	_, pending := bridge.PendingOpen("BOX_1")
	assert.False(t, pending, "confirmation clears the pending open")
}

func TestHandleMessageConfirmEngineFailure(t *testing.T) {
	engine := &fakeEngine{err: io.ErrUnexpectedEOF}
	_, router := newTestHandler(t, engine)

	rec := postMessage(router, "DONE|BOX_1|1234")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleMessageRejects(t *testing.T) {
	_, router := newTestHandler(t, &fakeEngine{})

	frames := []string{
		"",
		"garbage",
		"CODE|BOX_1|1234", // server-to-box shape
		"OK|BOX_1",
		strings.Repeat("A", MaxFrame+10),
	}
	for _, frame := range frames {
		rec := postMessage(router, frame)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "frame %q", frame)
	}
}
