package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"informe/internal/config"
	"informe/internal/domain"
	"informe/internal/render"
	"informe/internal/report"
)

type stubConverter struct{}

func (stubConverter) ToPDF(ctx context.Context, src render.Source) (*render.Artifact, error) {
	return render.NewArtifact([]byte("%PDF-1.4\n%%EOF"), 1), nil
}

type stubProber struct{}

func (stubProber) Probe(ctx context.Context, name string) bool { return false }

func minimalConfig() config.Config {
	cfg := config.Default()
	cfg.Server.BaseURL = "http://localhost:3000"
	return cfg
}

func newTestServer(cfg config.Config) Deps {
	return Deps{Config: cfg, Templates: report.MustRenderer(), Converter: stubConverter{}, Prober: stubProber{}}
}

func TestNew_RoutesAndJSON404(t *testing.T) {
	app := New(newTestServer(minimalConfig()))

	for _, path := range []string{"/", "/_template?nombre=Ana", "/health/carlito", "/ops/health", "/ops/monitor"} {
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s request failed: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected %s 200, got %d", path, resp.StatusCode)
		}
	}

	req404, _ := http.NewRequest(http.MethodGet, "/does-not-exist", nil)
	resp404, err := app.Test(req404)
	if err != nil {
		t.Fatalf("404 request failed: %v", err)
	}
	if resp404.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp404.StatusCode)
	}
	if got := resp404.Header.Get("Content-Type"); !strings.Contains(got, "application/json") {
		t.Fatalf("expected JSON error response content type, got %q", got)
	}
}

func TestNew_ErrorEnvelope(t *testing.T) {
	app := New(newTestServer(minimalConfig()))

	req, _ := http.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{"nombre":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, body.Error.Code)
	assert.NotEmpty(t, body.Error.Message)
}

func TestNew_PDFRoute(t *testing.T) {
	app := New(newTestServer(minimalConfig()))

	req, _ := http.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{"nombre":"Ana"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestNew_LongTemplateQueryIsServed(t *testing.T) {
	cfg := minimalConfig()
	cfg.PDF.RenderMode = config.RenderModeNavigate
	app := New(newTestServer(cfg))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	client := &http.Client{Timeout: 5 * time.Second}
	for _, message := range []string{
		strings.Repeat("a", 6000),
		strings.Repeat("Informe con acentuación áéíóú. ", 300),
	} {
		req := domain.ReportRequest{Name: "Pérez, Ana Sofía", Message: message}
		u := "http://" + ln.Addr().String() + "/_template?" + req.Query().Encode()
		require.Greater(t, len(u), 4096)
		require.Less(t, len(u), cfg.Limits.MaxURLBytes)

		resp, err := client.Get(u)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "url of %d bytes", len(u))
		assert.True(t, strings.HasPrefix(string(body), "<!doctype html>"))
	}
}

func TestReadBufferSize(t *testing.T) {
	assert.Equal(t, 0, readBufferSize(0))
	assert.Equal(t, 64<<10+headerAllowance, readBufferSize(64<<10))
}
