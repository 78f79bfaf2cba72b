// Package queue carries review activity events over RabbitMQ: a publisher
// used by the HTTP handlers and a background consumer that appends every
// event to an activity log.
package queue

import "time"

// QueueName is the durable queue review activity is published to.
const QueueName = "review.activity"

// Event types.
const (
	EventReviewCreated = "review.created"
	EventReviewDeleted = "review.deleted"
	EventReviewLiked   = "review.liked"
	EventReviewUnliked = "review.unliked"
)

// ReviewActivityEvent is published when a review is created or deleted, or
// when a user likes or unlikes one. It is self-contained so consumers do
// not need to query the database.
type ReviewActivityEvent struct {
	Type       string `json:"type"`
	ReviewID   uint64 `json:"review_id"`
	MovieID    uint64 `json:"movie_id,omitempty"`
	UserID     uint64 `json:"user_id"`
	OccurredAt string `json:"occurred_at"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(typ string, reviewID, movieID, userID uint64) ReviewActivityEvent {
	return ReviewActivityEvent{
		Type:       typ,
		ReviewID:   reviewID,
		MovieID:    movieID,
		UserID:     userID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
