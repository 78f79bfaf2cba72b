package storage

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantExt string
		wantErr error
	}{
		{"png", "poster.png", "png", nil},
		{"upper case", "poster.JPG", "JPG", nil},
		{"double dot", "my.poster.gif", "gif", nil},
		{"empty", "", "", ErrNoFilename},
		{"no ext", "poster", "", ErrInvalidExtension},
		{"pdf", "poster.pdf", "", ErrInvalidExtension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := ValidateImage(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	f := NewFiles(root)

	rel, err := f.Save(DirPosterImages, "poster.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^movies/poster_images/poster_[0-9a-f]{32}\.png$`), rel)

	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "img", string(b))

	require.NoError(t, f.Delete(rel))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	// missing file and empty path are fine
	assert.NoError(t, f.Delete(rel))
	assert.NoError(t, f.Delete(""))
}

func TestSave_StripsDirectories(t *testing.T) {
	f := NewFiles(t.TempDir())
	rel, err := f.Save(DirProfileImages, "../../etc/me.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, DirProfileImages+"/me_"))
}

func TestSave_NoFilename(t *testing.T) {
	_, err := NewFiles(t.TempDir()).Save(DirReviewImages, " ", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoFilename)
}

func TestDelete_RejectsEscapingPaths(t *testing.T) {
	assert.ErrorIs(t, NewFiles(t.TempDir()).Delete("../outside.png"), ErrInvalidPath)
}
