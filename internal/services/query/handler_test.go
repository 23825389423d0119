package query

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

func newTestRouter(reader ItemReader) http.Handler {
	return NewHandler(NewService(reader, slog.Default()), slog.Default()).Routes()
}

func TestHandleGetItem(t *testing.T) {
	stored, err := item.New("abc", "Widget", item.StatusProcessed)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		getFn      func(context.Context, string) (item.Item, bool, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "found",
			path: "/api/v1/items/abc",
			getFn: func(_ context.Context, id string) (item.Item, bool, error) {
				assert.Equal(t, "abc", id)
				return stored, true, nil
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"id":"abc","name":"Widget","status":"processed"}`,
		},
		{
			name: "not found",
			path: "/api/v1/items/missing",
			getFn: func(context.Context, string) (item.Item, bool, error) {
				return item.Item{}, false, nil
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"item not found"}`,
		},
		{
			name: "store error",
			path: "/api/v1/items/abc",
			getFn: func(context.Context, string) (item.Item, bool, error) {
				return item.Item{}, false, errors.New("connection refused")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			newTestRouter(&mockItemReader{GetFn: tt.getFn}).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestRoutes_UnknownPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	w := httptest.NewRecorder()
	newTestRouter(&mockItemReader{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newTestRouter(&mockItemReader{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
