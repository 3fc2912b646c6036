package icon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/nao1215/passkeydir/internal/fetch"
	"github.com/nao1215/passkeydir/internal/fetch/fetchtest"
	"github.com/nao1215/passkeydir/internal/model"
	"github.com/nao1215/passkeydir/internal/parser"
)

func newTestResolver(t *testing.T, srv *fetchtest.Server) *Resolver {
	t.Helper()

	client, err := fetch.New(fetch.WithTransport(srv.Transport()))
	if err != nil {
		t.Fatalf("fetch.New() error = %v", err)
	}
	return NewResolver(client, nil)
}

// servePNG answers every request with a w x h PNG.
func servePNG(t *testing.T, w, h int) http.Handler {
	t.Helper()

	data := pngBytes(t, w, h)
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "image/png")
		_, _ = rw.Write(data)
	})
}

func candidates(urls ...string) []model.IconCandidate {
	out := make([]model.IconCandidate, 0, len(urls))
	for _, u := range urls {
		out = append(out, model.IconCandidate{URL: u, Source: model.IconSourceLink})
	}
	return out
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("largest reachable icon wins", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.Handle("/a.png", servePNG(t, 50, 50))
		mux.Handle("/c.png", servePNG(t, 80, 80))
		srv := fetchtest.NewServer(t, fetchtest.HostMux{
			"example.com": mux,
			"b.example":   servePNG(t, 100, 100),
		})
		srv.Unreachable("b.example")

		best, err := newTestResolver(t, srv).Resolve(context.Background(), candidates(
			"https://example.com/a.png",
			"https://b.example/b.png",
			"https://example.com/c.png",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if best.URL != "https://example.com/c.png" {
			t.Errorf("URL = %q, want https://example.com/c.png", best.URL)
		}
		if best.Width != 80 || best.Height != 80 || best.Format != "png" {
			t.Errorf("size = %dx%d %s, want 80x80 png", best.Width, best.Height, best.Format)
		}
		if len(best.Data) == 0 {
			t.Error("expected icon data to be retained")
		}
	})

	t.Run("icon over the body limit is skipped", func(t *testing.T) {
		t.Parallel()

		small := pngBytes(t, 16, 16)
		large := pngBytes(t, 300, 300)
		if len(large) <= len(small) {
			t.Fatalf("test images too similar: %d vs %d bytes", len(large), len(small))
		}

		mux := http.NewServeMux()
		mux.Handle("/large.png", servePNG(t, 300, 300))
		mux.Handle("/small.png", servePNG(t, 16, 16))
		srv := fetchtest.NewServer(t, fetchtest.HostMux{"example.com": mux})

		client, err := fetch.New(
			fetch.WithTransport(srv.Transport()),
			fetch.WithMaxBodySize(int64(len(small))),
		)
		if err != nil {
			t.Fatalf("fetch.New() error = %v", err)
		}

		best, err := NewResolver(client, nil).Resolve(context.Background(), candidates(
			"https://example.com/large.png",
			"https://example.com/small.png",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if best.URL != "https://example.com/small.png" {
			t.Errorf("URL = %q, want the icon that fits the limit", best.URL)
		}
		if !bytes.Equal(best.Data, small) {
			t.Error("expected the complete icon bytes")
		}
	})

	t.Run("ties keep the first discovered", func(t *testing.T) {
		t.Parallel()

		srv := fetchtest.NewServer(t, fetchtest.HostMux{
			"example.com": servePNG(t, 64, 64),
		})

		best, err := newTestResolver(t, srv).Resolve(context.Background(), candidates(
			"https://example.com/first.png",
			"https://example.com/second.png",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if best.URL != "https://example.com/first.png" {
			t.Errorf("URL = %q, want first candidate", best.URL)
		}
	})

	t.Run("probe must answer exactly 200", func(t *testing.T) {
		t.Parallel()

		large := pngBytes(t, 128, 128)
		mux := http.NewServeMux()
		mux.HandleFunc("/forbidden.png", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write(large)
		})
		mux.Handle("/small.png", servePNG(t, 16, 16))
		srv := fetchtest.NewServer(t, fetchtest.HostMux{"example.com": mux})

		best, err := newTestResolver(t, srv).Resolve(context.Background(), candidates(
			"https://example.com/forbidden.png",
			"https://example.com/small.png",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if best.URL != "https://example.com/small.png" {
			t.Errorf("URL = %q, want small.png", best.URL)
		}
	})

	t.Run("undecodable body is skipped", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "<html>soft 404</html>")
		})
		mux.Handle("/icon.png", servePNG(t, 32, 32))
		srv := fetchtest.NewServer(t, fetchtest.HostMux{"example.com": mux})

		best, err := newTestResolver(t, srv).Resolve(context.Background(), candidates(
			"https://example.com/favicon.ico",
			"https://example.com/icon.png",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if best.URL != "https://example.com/icon.png" {
			t.Errorf("URL = %q, want icon.png", best.URL)
		}
	})

	t.Run("duplicates are fetched once", func(t *testing.T) {
		t.Parallel()

		var heads atomic.Int32
		data := pngBytes(t, 10, 10)
		srv := fetchtest.NewServer(t, fetchtest.HostMux{
			"example.com": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodHead {
					heads.Add(1)
				}
				_, _ = w.Write(data)
			}),
		})

		_, err := newTestResolver(t, srv).Resolve(context.Background(), candidates(
			"https://example.com/icon.png",
			"https://example.com/icon.png",
		))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if heads.Load() != 1 {
			t.Errorf("HEAD requests = %d, want 1", heads.Load())
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		srv := fetchtest.NewServer(t, fetchtest.HostMux{})
		if _, err := newTestResolver(t, srv).Resolve(context.Background(), nil); !errors.Is(err, ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
	})

	t.Run("nothing usable", func(t *testing.T) {
		t.Parallel()

		srv := fetchtest.NewServer(t, fetchtest.HostMux{})
		_, err := newTestResolver(t, srv).Resolve(context.Background(), candidates(
			"https://example.com/missing.png",
		))
		if !errors.Is(err, ErrNoUsableIcon) {
			t.Errorf("expected ErrNoUsableIcon, got %v", err)
		}
	})
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	t.Run("collects candidates in order", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/static/site.webmanifest", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"icons":[{"src":"android-192.png"},{"src":"https://cdn.example.net/512.png"}]}`)
		})
		srv := fetchtest.NewServer(t, fetchtest.HostMux{"example.com": mux})

		doc, err := parser.Parse([]byte(`<html><head>
<link rel="icon" href="/icon.svg">
<link rel="manifest" href="/static/site.webmanifest">
<link rel="shortcut icon" href="shortcut.ico">
<link rel="apple-touch-icon" href="https://example.com/apple.png">
<link rel="icon" href="javascript:void(0)">
</head></html>`), "text/html")
		if err != nil {
			t.Fatalf("parser.Parse() error = %v", err)
		}

		got := newTestResolver(t, srv).Discover(context.Background(), doc, "https://example.com/login/")
		want := []model.IconCandidate{
			{URL: "https://example.com/favicon.ico", Source: model.IconSourceFavicon},
			{URL: "https://example.com/apple.png", Source: model.IconSourceAppleTouch},
			{URL: "https://example.com/login/shortcut.ico", Source: model.IconSourceShortcut},
			{URL: "https://example.com/static/android-192.png", Source: model.IconSourceManifest},
			{URL: "https://cdn.example.net/512.png", Source: model.IconSourceManifest},
			{URL: "https://example.com/icon.svg", Source: model.IconSourceLink},
		}
		if !slices.Equal(got, want) {
			t.Errorf("Discover() =\n%v\nwant\n%v", got, want)
		}
	})

	t.Run("mixed-case rel values are discovered", func(t *testing.T) {
		t.Parallel()

		srv := fetchtest.NewServer(t, fetchtest.HostMux{})
		doc, err := parser.Parse([]byte(`<link rel="Shortcut Icon" href="/s.png"><link rel="ICON" href="/i.png">`), "text/html")
		if err != nil {
			t.Fatalf("parser.Parse() error = %v", err)
		}

		got := newTestResolver(t, srv).Discover(context.Background(), doc, "https://example.com")
		want := []model.IconCandidate{
			{URL: "https://example.com/favicon.ico", Source: model.IconSourceFavicon},
			{URL: "https://example.com/s.png", Source: model.IconSourceShortcut},
			{URL: "https://example.com/i.png", Source: model.IconSourceLink},
		}
		if !slices.Equal(got, want) {
			t.Errorf("Discover() = %v, want %v", got, want)
		}
	})

	t.Run("failed manifest contributes nothing", func(t *testing.T) {
		t.Parallel()

		srv := fetchtest.NewServer(t, fetchtest.HostMux{})
		doc, err := parser.Parse([]byte(`<link rel="manifest" href="/missing.json">`), "text/html")
		if err != nil {
			t.Fatalf("parser.Parse() error = %v", err)
		}

		got := newTestResolver(t, srv).Discover(context.Background(), doc, "https://example.com")
		if len(got) != 1 || got[0].Source != model.IconSourceFavicon {
			t.Errorf("Discover() = %v, want only the favicon", got)
		}
	})

	t.Run("nil document yields favicon only", func(t *testing.T) {
		t.Parallel()

		srv := fetchtest.NewServer(t, fetchtest.HostMux{})
		got := newTestResolver(t, srv).Discover(context.Background(), nil, "https://www.example.com/path")
		if len(got) != 1 || got[0].URL != "https://www.example.com/favicon.ico" {
			t.Errorf("Discover() = %v", got)
		}
	})
}
