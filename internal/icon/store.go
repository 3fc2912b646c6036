package icon

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nao1215/passkeydir/internal/config"
	"github.com/nao1215/passkeydir/internal/model"
)

// Store writes icons into the static site's icons directory.
type Store struct {
	dir string
}

// NewStore creates a Store writing to dir, usually config.Config.IconsDir().
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes the icon bytes to <dir>/<key><ext> and returns the path the
// website uses to reference it, "icons/<key><ext>". The extension is taken
// from the icon URL path; a URL without one yields a file named <key>.
// Existing files are overwritten.
func (s *Store) Save(key string, icon *model.ResolvedIcon) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if icon == nil || len(icon.Data) == 0 {
		return "", fmt.Errorf("%w: no icon data for %q", ErrNoUsableIcon, key)
	}

	name := key + extension(icon.URL)

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create icons directory: %w", err)
	}
	//nolint:gosec // Icons are public static site assets
	if err := os.WriteFile(filepath.Join(s.dir, name), icon.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write icon: %w", err)
	}

	return path.Join(config.IconsSubdir, name), nil
}

// extension returns the extension of the URL's last path segment, such as
// ".png", or "" when it has none.
func extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if ext == "." || strings.ContainsAny(ext, `\ `) {
		return ""
	}
	return ext
}
