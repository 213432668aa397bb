package togglemeeting

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/services/batch"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

type BatchServiceMock struct {
	mock.Mock
}

func (m *BatchServiceMock) ToggleMeeting(ctx context.Context, id, to string) error {
	args := m.Called(ctx, id, to)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/batches/batch-a/meeting", bytes.NewReader(raw))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "batch-a")
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestToggleMeetingHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockErr        error
		expectCall     bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "start meeting",
			requestBody:    Request{Status: "started"},
			expectCall:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unsupported status value",
			requestBody:    Request{Status: "paused"},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "batch not found",
			requestBody:    Request{Status: "started"},
			mockErr:        storage.ErrNotFound,
			expectCall:     true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "batch not found",
		},
		{
			name:           "invalid transition",
			requestBody:    Request{Status: "started"},
			mockErr:        batch.ErrInvalidTransition,
			expectCall:     true,
			wantStatusCode: http.StatusConflict,
			wantError:      "invalid meeting status transition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(BatchServiceMock)
			if tt.expectCall {
				serviceMock.On("ToggleMeeting", mock.Anything, "batch-a", "started").
					Return(tt.mockErr)
			}

			handler := New(newNoopLogger(), serviceMock)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, newRequest(tt.requestBody))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantError != "" {
				var resp response.Response
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, tt.wantError, resp.Error)
			}
			serviceMock.AssertExpectations(t)
		})
	}
}
