package model

import "time"

// Review is a user's write-up of a movie. A user reviews a movie at most
// once.
type Review struct {
	ID             uint64    // reviews.id
	UserID         uint64    // reviews.user_id
	MovieID        uint64    // reviews.movie_id
	Title          string    // reviews.title
	Content        string    // reviews.content
	ReviewImageURL string    // reviews.review_image_url (nullable)
	CreatedAt      time.Time // reviews.created_at
}

// ReviewQuery selects reviews by equality on every non-nil field.
type ReviewQuery struct {
	ID      *uint64
	UserID  *uint64
	MovieID *uint64
}

// ReviewPatch carries a partial update of the editable review fields.
type ReviewPatch struct {
	Title          *string
	Content        *string
	ReviewImageURL *string
}
