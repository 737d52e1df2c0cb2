// Package plan reads plan sheet images from disk.
package plan

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/philipparndt/takeoff/pkg/viewer"
)

// Extensions lists the file extensions Dir picks up
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Page is a plan sheet image on disk
type Page struct {
	ID     string
	Path   string
	Format string
	Size   viewer.Size
}

// Open reads the header of a plan image and returns its page. The page id
// is the file name without extension.
func Open(path string) (Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to open plan: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read plan %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Page{}, fmt.Errorf("plan %s has no pixels", path)
	}
	return Page{
		ID:     PageID(path),
		Path:   path,
		Format: format,
		Size:   viewer.NewSize(float64(cfg.Width), float64(cfg.Height)),
	}, nil
}

// Decode reads the full image of a page
func Decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", path, err)
	}
	return img, nil
}

// Dir opens every plan image in a directory, sorted by file name. Files
// that fail to decode are skipped and reported in the returned error list.
func Dir(dir string) ([]Page, []error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read plan directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var pages []Page
	var skipped []error
	for _, name := range names {
		page, err := Open(filepath.Join(dir, name))
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		pages = append(pages, page)
	}
	return pages, skipped, nil
}

// Supported reports whether a file name has a plan image extension
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// PageID derives a page id from a file path
func PageID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
