package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
)

// saveImage stores the multipart file sent under field in dir. present is
// false when the request carried no such file.
func saveImage(c echo.Context, files *storage.Files, field, dir string) (path string, present bool, err error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if _, err := storage.ValidateImage(fh.Filename); err != nil {
		return "", true, err
	}
	src, err := fh.Open()
	if err != nil {
		return "", true, err
	}
	defer src.Close()
	path, err = files.Save(dir, fh.Filename, src)
	return path, true, err
}

// removeImage deletes a replaced or orphaned upload. Failures only leave
// a stray file behind, so they are logged.
func removeImage(files *storage.Files, path string) {
	if err := files.Delete(path); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("delete image failed")
	}
}

// reviewImages collects the images of the reviews matching q. Deleting a
// user or movie cascades over those reviews, so the paths must be read
// before the delete.
func reviewImages(ctx context.Context, reviews repository.ReviewRepository, q model.ReviewQuery) ([]string, error) {
	rs, err := reviews.Filter(ctx, q)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, r := range rs {
		if r.ReviewImageURL != "" {
			paths = append(paths, r.ReviewImageURL)
		}
	}
	return paths, nil
}
