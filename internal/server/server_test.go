package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/olehluchkiv/manualchunks/internal/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

var views = []diagram.View{
	{Title: "Before", Mermaid: "flowchart TD\n    chunk0[\"#0\"]"},
	{Title: "After", Mermaid: "flowchart TD\n    chunk0 --> chunk1"},
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_Page(t *testing.T) {
	h, err := NewHandler(views, testLogger())
	require.NoError(t, err)

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<button data-view="0" class="active">Before</button>`)
	assert.Contains(t, body, `<button data-view="1">After</button>`)
	assert.Contains(t, body, "chunk0 --&gt; chunk1", "diagram source is HTML-escaped")
}

func TestHandler_MermaidSource(t *testing.T) {
	h, err := NewHandler(views, testLogger())
	require.NoError(t, err)

	tests := []struct {
		target string
		want   string
	}{
		{"/mermaid.md", views[0].Mermaid},
		{"/mermaid.md?view=1", views[1].Mermaid},
		{"/mermaid.md?view=7", views[0].Mermaid},
		{"/mermaid.md?view=x", views[0].Mermaid},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			body, _ := io.ReadAll(rec.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestHandler_UnknownPath(t *testing.T) {
	h, err := NewHandler(views, testLogger())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/favicon.ico").Code)
}

func TestNewHandler_NoViews(t *testing.T) {
	_, err := NewHandler(nil, testLogger())
	require.Error(t, err)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, views, 0, false, testLogger()) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
