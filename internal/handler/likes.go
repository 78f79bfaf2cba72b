package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/repository"
)

// LikeHandler toggles the caller's like on a review.
type LikeHandler struct {
	Reviews repository.ReviewRepository
	Likes   repository.LikeRepository
	Events  queue.Publisher
}

func NewLikeHandler(set *repository.Set, events queue.Publisher) *LikeHandler {
	return &LikeHandler{Reviews: set.Reviews, Likes: set.Likes, Events: events}
}

type likeResp struct {
	ReviewID uint64 `json:"review_id"`
	UserID   uint64 `json:"user_id"`
	IsLiked  bool   `json:"is_liked"`
}

// Like marks the review as liked by the caller, creating the like row on
// first use.
func (h *LikeHandler) Like(c echo.Context) error {
	return h.set(c, true)
}

// Unlike clears the caller's like. Without a like row there is nothing to
// clear and the answer is simply is_liked=false.
func (h *LikeHandler) Unlike(c echo.Context) error {
	return h.set(c, false)
}

func (h *LikeHandler) set(c echo.Context, liked bool) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, _ := middleware.UserID(c)

	ctx, cancel := dbCtx(c)
	defer cancel()
	r, found, err := h.Reviews.Get(ctx, model.ReviewQuery{ID: &id})
	if err != nil {
		return respondError(c, err)
	}
	if !found {
		return notFound(c, "review not found")
	}

	l, found, err := h.Likes.Get(ctx, model.LikeQuery{UserID: &uid, ReviewID: &id})
	if err != nil {
		return respondError(c, err)
	}
	changed := false
	switch {
	case !found && liked:
		if _, err := h.Likes.Create(ctx, model.ReviewLike{UserID: uid, ReviewID: id, IsLiked: true}); err != nil {
			return respondError(c, err)
		}
		changed = true
	case found && l.IsLiked != liked:
		if _, _, err := h.Likes.Update(ctx, l.ID, model.LikePatch{IsLiked: &liked}); err != nil {
			return respondError(c, err)
		}
		changed = true
	}

	if changed {
		typ := queue.EventReviewUnliked
		if liked {
			typ = queue.EventReviewLiked
		}
		queue.Emit(ctx, h.Events, queue.NewEvent(typ, id, r.MovieID, uid))
	}
	return c.JSON(http.StatusOK, likeResp{ReviewID: id, UserID: uid, IsLiked: liked})
}
