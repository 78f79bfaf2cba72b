package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// ReviewHandler serves reviews and their like state.
type ReviewHandler struct {
	Reviews repository.ReviewRepository
	Movies  repository.MovieRepository
	Likes   repository.LikeRepository
	Files   *storage.Files
	Events  queue.Publisher
}

func NewReviewHandler(set *repository.Set, files *storage.Files, events queue.Publisher) *ReviewHandler {
	return &ReviewHandler{
		Reviews: set.Reviews,
		Movies:  set.Movies,
		Likes:   set.Likes,
		Files:   files,
		Events:  events,
	}
}

type createReviewReq struct {
	MovieID uint64 `form:"movie_id" json:"movie_id" validate:"required,gt=0"`
	Title   string `form:"title" json:"title" validate:"required,max=50"`
	Content string `form:"content" json:"content" validate:"required,max=255"`
}

type updateReviewReq struct {
	Title   *string `json:"title" validate:"omitempty,max=50"`
	Content *string `json:"content" validate:"omitempty,max=255"`
}

type reviewResp struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	MovieID        uint64    `json:"movie_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	ReviewImageURL *string   `json:"review_image_url"`
	CreatedAt      time.Time `json:"created_at"`
}

func toReviewResp(r model.Review) reviewResp {
	return reviewResp{
		ID:             r.ID,
		UserID:         r.UserID,
		MovieID:        r.MovieID,
		Title:          r.Title,
		Content:        r.Content,
		ReviewImageURL: optional(r.ReviewImageURL),
		CreatedAt:      r.CreatedAt,
	}
}

// Create posts a review for a movie from a multipart form with an optional
// review_image. A user reviews each movie at most once.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, _ := middleware.UserID(c)
	var req createReviewReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if _, found, err := h.Movies.Get(ctx, model.MovieQuery{ID: &req.MovieID}); err != nil {
		return respondError(c, err)
	} else if !found {
		return notFound(c, "movie not found")
	}
	if _, dup, err := h.Reviews.Get(ctx, model.ReviewQuery{UserID: &uid, MovieID: &req.MovieID}); err != nil {
		return respondError(c, err)
	} else if dup {
		return respondError(c, repository.ErrConflict)
	}

	path, _, err := saveImage(c, h.Files, "review_image", storage.DirReviewImages)
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.Reviews.Create(ctx, model.Review{
		UserID:         uid,
		MovieID:        req.MovieID,
		Title:          req.Title,
		Content:        req.Content,
		ReviewImageURL: path,
	})
	if err != nil {
		if path != "" {
			removeImage(h.Files, path)
		}
		return respondError(c, err)
	}

	queue.Emit(ctx, h.Events, queue.NewEvent(queue.EventReviewCreated, r.ID, r.MovieID, uid))
	return c.JSON(http.StatusCreated, toReviewResp(r))
}

func (h *ReviewHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	r, found, err := h.Reviews.Get(ctx, model.ReviewQuery{ID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "review not found")
	}
	return c.JSON(http.StatusOK, toReviewResp(r))
}

// owned loads review id and checks that the caller wrote it.
func (h *ReviewHandler) owned(c echo.Context) (model.Review, error) {
	id, ok := parseID(c, "id")
	if !ok {
		return model.Review{}, errBadID
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := dbCtx(c)
	defer cancel()
	r, found, err := h.Reviews.Get(ctx, model.ReviewQuery{ID: &id})
	if err != nil {
		return r, err
	}
	if !found {
		return r, repository.ErrNotFound
	}
	if r.UserID != uid {
		return r, repository.ErrForbidden
	}
	return r, nil
}

// reviewPatchFrom reads title and content from a multipart form when the
// request is one, otherwise from a JSON body.
func reviewPatchFrom(c echo.Context) (updateReviewReq, error) {
	var req updateReviewReq
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return req, err
		}
		if v, ok := form.Value["title"]; ok && len(v) > 0 {
			req.Title = &v[0]
		}
		if v, ok := form.Value["content"]; ok && len(v) > 0 {
			req.Content = &v[0]
		}
	} else if err := c.Bind(&req); err != nil {
		return req, err
	}
	return req, validation.Struct(&req)
}

// Update patches the caller's own review. A review_image in a multipart
// request replaces the stored image.
func (h *ReviewHandler) Update(c echo.Context) error {
	r, err := h.owned(c)
	if err != nil {
		return h.ownedError(c, err)
	}
	req, err := reviewPatchFrom(c)
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			return respondError(c, err)
		}
		return badRequest(c, "invalid body")
	}

	patch := model.ReviewPatch{Title: req.Title, Content: req.Content}
	path, present, err := saveImage(c, h.Files, "review_image", storage.DirReviewImages)
	if err != nil {
		return respondError(c, err)
	}
	if present {
		patch.ReviewImageURL = &path
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	updated, found, err := h.Reviews.Update(ctx, r.ID, patch)
	if err != nil || !found {
		if present {
			removeImage(h.Files, path)
		}
		if err != nil {
			return respondError(c, err)
		}
		return notFound(c, "review not found")
	}
	if present && r.ReviewImageURL != "" {
		removeImage(h.Files, r.ReviewImageURL)
	}
	return c.JSON(http.StatusOK, toReviewResp(updated))
}

// Delete removes the caller's own review. Someone else's review is left
// untouched and answered with 403.
func (h *ReviewHandler) Delete(c echo.Context) error {
	r, err := h.owned(c)
	if err != nil {
		return h.ownedError(c, err)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if _, err := h.Reviews.Delete(ctx, r.ID); err != nil {
		return respondError(c, err)
	}
	if r.ReviewImageURL != "" {
		removeImage(h.Files, r.ReviewImageURL)
	}
	queue.Emit(ctx, h.Events, queue.NewEvent(queue.EventReviewDeleted, r.ID, r.MovieID, r.UserID))
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHandler) ownedError(c echo.Context, err error) error {
	switch err {
	case errBadID:
		return badRequest(c, "invalid id")
	case repository.ErrNotFound:
		return notFound(c, "review not found")
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the author of this review"})
	}
	return respondError(c, err)
}

// LikeCount reports how many users currently like the review.
func (h *ReviewHandler) LikeCount(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if _, found, err := h.Reviews.Get(ctx, model.ReviewQuery{ID: &id}); err != nil {
		return respondError(c, err)
	} else if !found {
		return notFound(c, "review not found")
	}
	n, err := h.Likes.CountLiked(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"review_id": id, "like_count": n})
}

// IsLiked reports whether the caller likes the review.
func (h *ReviewHandler) IsLiked(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)
	ctx, cancel := dbCtx(c)
	defer cancel()
	l, found, err := h.Likes.Get(ctx, model.LikeQuery{UserID: &uid, ReviewID: &id})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"review_id": id, "user_id": uid, "is_liked": found && l.IsLiked})
}
