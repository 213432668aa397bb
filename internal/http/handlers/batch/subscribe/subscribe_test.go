package subscribe

import (
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

	"github.com/magabrotheeeer/institute-app/internal/http/middlewarectx"
	"github.com/magabrotheeeer/institute-app/internal/http/response"
	"github.com/magabrotheeeer/institute-app/internal/services/enrollment"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

type EnrollmentServiceMock struct {
	mock.Mock
}

func (m *EnrollmentServiceMock) SubscribeBatch(ctx context.Context, userID, batchID string) error {
	args := m.Called(ctx, userID, batchID)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/batches/batch-a/subscribe", nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "batch-a")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = context.WithValue(ctx, middlewarectx.UserID, userID)
	}
	return req.WithContext(ctx)
}

func TestSubscribeHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		mockErr        error
		expectCall     bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "success",
			userID:         "u-1",
			expectCall:     true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing user in context",
			userID:         "",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
		},
		{
			name:           "batch not found",
			userID:         "u-1",
			mockErr:        storage.ErrNotFound,
			expectCall:     true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "batch not found",
		},
		{
			name:           "already subscribed",
			userID:         "u-1",
			mockErr:        enrollment.ErrAlreadySubscribed,
			expectCall:     true,
			wantStatusCode: http.StatusConflict,
			wantError:      "already subscribed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(EnrollmentServiceMock)
			if tt.expectCall {
				serviceMock.On("SubscribeBatch", mock.Anything, tt.userID, "batch-a").
					Return(tt.mockErr)
			}

			handler := New(newNoopLogger(), serviceMock)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, newRequest(tt.userID))

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
