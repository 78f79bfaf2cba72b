package model

import "time"

// ReviewLike records whether a user likes a review. There is one row per
// (user, review) pair; unliking flips IsLiked instead of deleting the row.
type ReviewLike struct {
	ID        uint64    // review_likes.id
	UserID    uint64    // review_likes.user_id
	ReviewID  uint64    // review_likes.review_id
	IsLiked   bool      // review_likes.is_liked
	CreatedAt time.Time // review_likes.created_at
}

// LikeQuery selects likes by equality on every non-nil field.
type LikeQuery struct {
	ID       *uint64
	UserID   *uint64
	ReviewID *uint64
	IsLiked  *bool
}

// LikePatch carries a partial update of a like.
type LikePatch struct {
	IsLiked *bool
}
