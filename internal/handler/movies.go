package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
)

// MovieHandler serves the movie catalogue.
type MovieHandler struct {
	Movies  repository.MovieRepository
	Reviews repository.ReviewRepository
	Files   *storage.Files
}

func NewMovieHandler(set *repository.Set, files *storage.Files) *MovieHandler {
	return &MovieHandler{Movies: set.Movies, Reviews: set.Reviews, Files: files}
}

type createMovieReq struct {
	Title    string   `json:"title" validate:"required,max=255"`
	Plot     string   `json:"plot"`
	Playtime int      `json:"playtime" validate:"required,gt=0"`
	Genre    []string `json:"genre" validate:"dive,required"`
}

type updateMovieReq struct {
	Title    *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Plot     *string  `json:"plot"`
	Playtime *int     `json:"playtime" validate:"omitempty,gt=0"`
	Genre    []string `json:"genre" validate:"omitempty,dive,required"`
}

type movieResp struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Plot           string    `json:"plot"`
	Playtime       int       `json:"playtime"`
	Genre          []string  `json:"genre"`
	PosterImageURL *string   `json:"poster_image_url"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMovieResp(m model.Movie) movieResp {
	genre := m.Genre
	if genre == nil {
		genre = []string{}
	}
	return movieResp{
		ID:             m.ID,
		Title:          m.Title,
		Plot:           m.Plot,
		Playtime:       m.Playtime,
		Genre:          genre,
		PosterImageURL: optional(m.PosterImageURL),
		CreatedAt:      m.CreatedAt,
	}
}

func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, err := h.Movies.Create(ctx, model.Movie{
		Title:    req.Title,
		Plot:     req.Plot,
		Playtime: req.Playtime,
		Genre:    req.Genre,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toMovieResp(m))
}

// movieQuery reads the list filters. genre matches movies listing that
// genre; genres is a comma separated list that must equal the whole genre
// list.
func movieQuery(c echo.Context) (model.MovieQuery, string) {
	var q model.MovieQuery
	for key, vals := range c.QueryParams() {
		v := vals[0]
		switch key {
		case "title":
			q.Title = &v
		case "playtime":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return q, "playtime must be a positive integer"
			}
			q.Playtime = &n
		case "genre":
			if v != "" {
				q.Genre = &v
			}
		case "genres":
			q.Genres = splitList(v)
		default:
			return q, "unknown query parameter: " + key
		}
	}
	return q, ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// List returns the movies matching the query filters.
func (h *MovieHandler) List(c echo.Context) error {
	q, msg := movieQuery(c)
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	movies, err := h.Movies.Filter(ctx, q)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]movieResp, len(movies))
	for i, m := range movies {
		out[i] = toMovieResp(m)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, found, err := h.Movies.Get(ctx, model.MovieQuery{ID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "movie not found")
	}
	return c.JSON(http.StatusOK, toMovieResp(m))
}

func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req updateMovieReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, found, err := h.Movies.Update(ctx, id, model.MoviePatch{
		Title:    req.Title,
		Plot:     req.Plot,
		Playtime: req.Playtime,
		Genre:    req.Genre,
	})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "movie not found")
	}
	return c.JSON(http.StatusOK, toMovieResp(m))
}

// Delete removes the movie together with its reviews, their images and
// the poster.
func (h *MovieHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, found, err := h.Movies.Get(ctx, model.MovieQuery{ID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "movie not found")
	}
	images, err := reviewImages(ctx, h.Reviews, model.ReviewQuery{MovieID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.Movies.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	if m.PosterImageURL != "" {
		images = append(images, m.PosterImageURL)
	}
	for _, path := range images {
		removeImage(h.Files, path)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadPoster stores the multipart "image" as the movie poster, replacing
// the previous one.
func (h *MovieHandler) UploadPoster(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	m, found, err := h.Movies.Get(ctx, model.MovieQuery{ID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "movie not found")
	}

	path, present, err := saveImage(c, h.Files, "image", storage.DirPosterImages)
	if err != nil {
		return respondError(c, err)
	}
	if !present {
		return respondError(c, storage.ErrNoFilename)
	}
	updated, found, err := h.Movies.Update(ctx, id, model.MoviePatch{PosterImageURL: &path})
	if err != nil || !found {
		removeImage(h.Files, path)
		if err != nil {
			return respondError(c, err)
		}
		return notFound(c, "movie not found")
	}
	if m.PosterImageURL != "" {
		removeImage(h.Files, m.PosterImageURL)
	}
	return c.JSON(http.StatusCreated, toMovieResp(updated))
}
