package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/nao1215/passkeydir/internal/config"
	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/fetch/fetchtest"
	"github.com/nao1215/passkeydir/internal/icon"
	"github.com/nao1215/passkeydir/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, e *model.Enrichment) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, e *model.Enrichment) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, e)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// pngBytes returns a w x h PNG filled with c, so equally sized icons can
// still be told apart.
func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func serveBytes(contentType string, data []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	})
}

func serveHTML(body string) http.Handler {
	return serveBytes("text/html; charset=utf-8", []byte(body))
}

// testEnv wires an Enricher to a fetchtest server and a temporary public dir.
type testEnv struct {
	srv       *fetchtest.Server
	publicDir string
	enricher  *Enricher
}

func newTestEnv(t *testing.T, hosts fetchtest.HostMux, opts ...EnricherOption) *testEnv {
	t.Helper()

	srv := fetchtest.NewServer(t, hosts)
	client, err := fetch.New(fetch.WithTransport(srv.Transport()))
	if err != nil {
		t.Fatalf("fetch.New() error = %v", err)
	}

	publicDir := filepath.Join(t.TempDir(), "public")
	store := icon.NewStore(filepath.Join(publicDir, config.IconsSubdir))

	return &testEnv{
		srv:       srv,
		publicDir: publicDir,
		enricher:  NewEnricher(client, store, opts...),
	}
}
