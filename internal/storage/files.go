// Package storage keeps uploaded images on the local filesystem under a
// media root. Entities only hold the returned relative path.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ImageExtensions are the accepted upload extensions.
var ImageExtensions = []string{"jpg", "jpeg", "png", "gif"}

// Sub directories per upload kind.
const (
	DirProfileImages = "users/profile_images"
	DirPosterImages  = "movies/poster_images"
	DirReviewImages  = "reviews/images"
)

var (
	ErrNoFilename       = errors.New("no filename provided")
	ErrInvalidExtension = errors.New("invalid image extension")
	ErrInvalidPath      = errors.New("invalid media path")
)

// Files stores uploads below Root.
type Files struct {
	Root string
}

func NewFiles(root string) *Files { return &Files{Root: root} }

// splitName splits "a.b.png" into "a.b" and "png", using only the base of
// the client supplied name.
func splitName(filename string) (stem, ext string) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[:i], base[i+1:]
	}
	return base, ""
}

// ValidateImage checks that filename is present and has an image extension.
// It returns the extension.
func ValidateImage(filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrNoFilename
	}
	_, ext := splitName(filename)
	if !slices.Contains(ImageExtensions, strings.ToLower(ext)) {
		return "", fmt.Errorf("%w, allowed: %s", ErrInvalidExtension, strings.Join(ImageExtensions, ", "))
	}
	return ext, nil
}

// Save writes r to <Root>/<dir>/<stem>_<uuidhex>.<ext> and returns the path
// relative to Root, which is what entities store.
func (f *Files) Save(dir, filename string, r io.Reader) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", ErrNoFilename
	}
	stem, ext := splitName(filename)
	name := stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if ext != "" {
		name += "." + ext
	}
	if err := os.MkdirAll(filepath.Join(f.Root, dir), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	rel := path.Join(dir, name)
	out, err := os.Create(filepath.Join(f.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return rel, nil
}

// Delete removes a previously saved file. Empty or missing paths are not
// an error.
func (f *Files) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || clean != strings.TrimPrefix(rel, "/") {
		return ErrInvalidPath
	}
	err := os.Remove(filepath.Join(f.Root, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
