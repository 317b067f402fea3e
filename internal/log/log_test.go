package log

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
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, Output: buf})
}

func TestLogger_StampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentFinance)

	l.Info("hello", FieldUserID, "u1")
	assert.Contains(t, buf.String(), "component=finance")
	assert.Contains(t, buf.String(), "user_id=u1")

	buf.Reset()
	l.WithComponent(ComponentHTTP).Warn("switched")
	assert.Contains(t, buf.String(), "component=http")
	assert.NotContains(t, buf.String(), "component=finance")
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	assert.Equal(t, "unknown", fallback.Component())

	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentApp)
	assert.Same(t, l, FromContext(WithLogger(context.Background(), l)))
}

func TestMiddlewareAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentHTTP)

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestStructuredLogger_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentApp))
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard?period=monthly", nil)

	sl.LogHTTPEnd(context.Background(), r, 200, 3, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, 404, 3, "1.2.3.4")
	sl.LogHTTPEnd(context.Background(), r, 503, 3, "1.2.3.4")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 3) {
		assert.Contains(t, lines[0], "level=INFO")
		assert.Contains(t, lines[1], "level=WARN")
		assert.Contains(t, lines[2], "level=ERROR")
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("disk"), ComponentStorage, OpCreate, nil)
	assert.Contains(t, buf.String(), "error=disk")
	assert.Contains(t, buf.String(), "component=storage")
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithUser("").WithError(nil).WithOperation(OpList)
	assert.NotContains(t, f, FieldUserID)
	assert.NotContains(t, f, FieldError)
	assert.Len(t, f.ToSlice(), 2)
}
