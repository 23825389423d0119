package query

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cornjacket/item-pipeline/internal/shared/domain/item"
)

func TestNewRouter_LogsServiceKeyOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	reader := &mockItemReader{
		GetFn: func(context.Context, string) (item.Item, bool, error) {
			return item.Item{}, false, errors.New("store down")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/x", nil)
	rec := httptest.NewRecorder()
	newRouter(reader, logger).ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"service":`), line)
	}
	assert.Contains(t, buf.String(), "failed to get item")
}
