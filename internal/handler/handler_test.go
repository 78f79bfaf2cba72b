package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.JSONSerializer = JSONSerializer{}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRespondError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &validation.Error{Fields: []validation.FieldError{{Field: "age"}}}, http.StatusBadRequest},
		{"invalid query", fmt.Errorf("movie: %w", repository.ErrInvalidQuery), http.StatusBadRequest},
		{"password too long", bcrypt.ErrPasswordTooLong, http.StatusBadRequest},
		{"no filename", storage.ErrNoFilename, http.StatusBadRequest},
		{"bad extension", storage.ErrInvalidExtension, http.StatusBadRequest},
		{"missing reference", fmt.Errorf("create review: %w", repository.ErrNotFound), http.StatusNotFound},
		{"forbidden", repository.ErrForbidden, http.StatusForbidden},
		{"username taken", repository.ErrUsernameExists, http.StatusConflict},
		{"conflict", repository.ErrConflict, http.StatusConflict},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext("/")
			require.NoError(t, respondError(c, tt.err))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	c, rec := newContext("/")
	require.NoError(t, respondError(c, errors.New("dial tcp 10.0.0.1:3306: refused")))
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}

func TestParseID(t *testing.T) {
	for raw, want := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false, "": false} {
		c, _ := newContext("/")
		c.SetParamNames("id")
		c.SetParamValues(raw)
		_, ok := parseID(c, "id")
		assert.Equal(t, want, ok, "id %q", raw)
	}
}

func TestMovieQuery(t *testing.T) {
	c, _ := newContext("/movies?title=Heat&playtime=170&genres=Crime,%20Drama,,")
	q, msg := movieQuery(c)
	require.Empty(t, msg)
	require.NotNil(t, q.Title)
	assert.Equal(t, "Heat", *q.Title)
	require.NotNil(t, q.Playtime)
	assert.Equal(t, 170, *q.Playtime)
	assert.Nil(t, q.Genre)
	assert.Equal(t, []string{"Crime", "Drama"}, q.Genres)

	c, _ = newContext("/movies?genre=")
	q, msg = movieQuery(c)
	require.Empty(t, msg)
	assert.Nil(t, q.Genre, "empty genre is no constraint")

	c, _ = newContext("/movies?playtime=-1")
	_, msg = movieQuery(c)
	assert.NotEmpty(t, msg)
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	require.NotNil(t, optional("a.png"))
	assert.Equal(t, "a.png", *optional("a.png"))
}
