package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/olehluchkiv/manualchunks/internal/diagram"
)

const viewerHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>manualchunks: chunk graph</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }

    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      flex-direction: column;
      align-items: center;
      min-height: 100vh;
      padding: 1rem;
      background-color: #f8f9fa;
      color: #212529;
    }

    @media (prefers-color-scheme: dark) {
      body { background-color: #1a1a2e; color: #e0e0e0; }
      .tabs button, .controls button { background-color: #2d2d44; color: #e0e0e0; border-color: #444; }
    }

    h1 { margin: 1rem 0; font-size: 1.4rem; font-weight: 600; }

    .tabs, .controls {
      display: flex;
      gap: 0.5rem;
      margin-bottom: 1rem;
      flex-wrap: wrap;
      justify-content: center;
    }

    .tabs button, .controls button {
      padding: 0.4rem 0.9rem;
      font-size: 0.9rem;
      border: 1px solid #ccc;
      border-radius: 6px;
      background-color: #ffffff;
      color: #212529;
      cursor: pointer;
    }

    .tabs button.active { border-color: #2374ab; font-weight: 600; }

    .view { display: none; width: 100%; overflow: auto; }
    .view.active { display: block; }
    .diagram { transform-origin: top center; }
  </style>
</head>
<body>
  <h1>Chunk graph</h1>
  <div class="tabs">
    {{range .Views}}<button data-view="{{.Index}}"{{if eq .Index 0}} class="active"{{end}}>{{.Title}}</button>
    {{end}}
  </div>
  <div class="controls">
    <button id="zoom-in">Zoom in</button>
    <button id="zoom-out">Zoom out</button>
    <button id="zoom-reset">Reset</button>
    <button id="copy-src">Copy Mermaid</button>
  </div>
  {{range .Views}}<div class="view{{if eq .Index 0}} active{{end}}" id="view-{{.Index}}">
    <pre class="mermaid diagram">{{.Mermaid}}</pre>
  </div>
  {{end}}
  <script type="module">
    import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs';
    mermaid.initialize({ startOnLoad: true, securityLevel: 'loose', flowchart: { htmlLabels: true } });

    var current = 0;
    var scale = 1;
    var views = document.querySelectorAll('.view');
    var tabs = document.querySelectorAll('.tabs button');

    function show(i) {
      views.forEach(function(v, j) { v.classList.toggle('active', i === j); });
      tabs.forEach(function(t, j) { t.classList.toggle('active', i === j); });
      current = i;
    }
    tabs.forEach(function(t) {
      t.addEventListener('click', function() { show(Number(t.dataset.view)); });
    });

    function applyZoom() {
      document.querySelectorAll('.diagram').forEach(function(d) {
        d.style.transform = 'scale(' + scale + ')';
      });
    }
    document.getElementById('zoom-in').addEventListener('click', function() { scale = Math.min(10, scale + 0.15); applyZoom(); });
    document.getElementById('zoom-out').addEventListener('click', function() { scale = Math.max(0.1, scale - 0.15); applyZoom(); });
    document.getElementById('zoom-reset').addEventListener('click', function() { scale = 1; applyZoom(); });

    document.getElementById('copy-src').addEventListener('click', function() {
      fetch('/mermaid.md?view=' + current).then(function(r) { return r.text(); }).then(function(src) {
        navigator.clipboard.writeText(src).then(function() {
          var btn = document.getElementById('copy-src');
          var orig = btn.textContent;
          btn.textContent = 'Copied!';
          setTimeout(function() { btn.textContent = orig; }, 1500);
        });
      });
    });
  </script>
</body>
</html>
`

// viewEntry holds data for a single tab in the template.
type viewEntry struct {
	Index   int
	Title   string
	Mermaid string
}

// NewHandler serves the viewer page for views and their raw Mermaid source at
// /mermaid.md?view=N.
func NewHandler(views []diagram.View, logger *slog.Logger) (http.Handler, error) {
	if len(views) == 0 {
		return nil, errors.New("no diagrams to serve")
	}
	tmpl, err := template.New("viewer").Parse(viewerHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing viewer HTML template: %w", err)
	}

	entries := make([]viewEntry, len(views))
	for i, v := range views {
		entries[i] = viewEntry{Index: i, Title: v.Title, Mermaid: v.Mermaid}
	}
	data := struct{ Views []viewEntry }{Views: entries}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			logger.Error("failed to render viewer template", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/mermaid.md", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		idx := 0
		if q := r.URL.Query().Get("view"); q != "" {
			if n, err := strconv.Atoi(q); err == nil && n >= 0 && n < len(views) {
				idx = n
			}
		}
		_, _ = w.Write([]byte(views[idx].Mermaid))
	})

	return mux, nil
}

// Serve starts the viewer for views.
// It blocks until the context is cancelled.
func Serve(ctx context.Context, views []diagram.View, port int, openBrowser bool, logger *slog.Logger) error {
	handler, err := NewHandler(views, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d", port)
	logger.Info("starting HTTP server", "addr", url, "views", len(views))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	if openBrowser {
		openInBrowser(url, logger)
	}

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}

// openInBrowser opens the given URL in the default system browser.
func openInBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		logger.Warn("unsupported platform for opening browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "error", err)
	}
}
