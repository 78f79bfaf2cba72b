package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/movie-review-api/internal/metrics"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// UserRepository stores users. Get and Update report absence through ok.
type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Get(ctx context.Context, q model.UserQuery) (u model.User, ok bool, err error)
	Filter(ctx context.Context, q model.UserQuery) ([]model.User, error)
	Update(ctx context.Context, id uint64, p model.UserPatch) (u model.User, ok bool, err error)
	Delete(ctx context.Context, id uint64) (bool, error)
	All(ctx context.Context) ([]model.User, error)
}

// MovieRepository stores movies.
type MovieRepository interface {
	Create(ctx context.Context, m model.Movie) (model.Movie, error)
	Get(ctx context.Context, q model.MovieQuery) (m model.Movie, ok bool, err error)
	Filter(ctx context.Context, q model.MovieQuery) ([]model.Movie, error)
	Update(ctx context.Context, id uint64, p model.MoviePatch) (m model.Movie, ok bool, err error)
	Delete(ctx context.Context, id uint64) (bool, error)
	All(ctx context.Context) ([]model.Movie, error)
}

// ReviewRepository stores reviews. Create fails with ErrConflict when the
// user already reviewed the movie.
type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	Get(ctx context.Context, q model.ReviewQuery) (r model.Review, ok bool, err error)
	Filter(ctx context.Context, q model.ReviewQuery) ([]model.Review, error)
	Update(ctx context.Context, id uint64, p model.ReviewPatch) (r model.Review, ok bool, err error)
	Delete(ctx context.Context, id uint64) (bool, error)
	All(ctx context.Context) ([]model.Review, error)
}

// LikeRepository stores review likes, one per (user, review).
type LikeRepository interface {
	Create(ctx context.Context, l model.ReviewLike) (model.ReviewLike, error)
	Get(ctx context.Context, q model.LikeQuery) (l model.ReviewLike, ok bool, err error)
	Filter(ctx context.Context, q model.LikeQuery) ([]model.ReviewLike, error)
	Update(ctx context.Context, id uint64, p model.LikePatch) (l model.ReviewLike, ok bool, err error)
	Delete(ctx context.Context, id uint64) (bool, error)
	All(ctx context.Context) ([]model.ReviewLike, error)
	// CountLiked returns how many users currently like the review.
	CountLiked(ctx context.Context, reviewID uint64) (int, error)
}

// Backend names, also used as the metrics label.
const (
	BackendMemory = "memory"
	BackendSQL    = "sql"
)

// Set bundles one repository per entity on the same backend.
type Set struct {
	Backend string
	Users   UserRepository
	Movies  MovieRepository
	Reviews ReviewRepository
	Likes   LikeRepository
}

// NewMemory returns repositories backed by in-process stores.
func NewMemory() *Set {
	db := newMemoryDB()
	return &Set{
		Backend: BackendMemory,
		Users:   &MemoryUserRepo{db: db},
		Movies:  &MemoryMovieRepo{db: db},
		Reviews: &MemoryReviewRepo{db: db},
		Likes:   &MemoryLikeRepo{db: db},
	}
}

// NewSQL returns repositories backed by a migrated MySQL or SQLite database.
func NewSQL(db *sql.DB) *Set {
	return &Set{
		Backend: BackendSQL,
		Users:   NewUserRepo(db),
		Movies:  NewMovieRepo(db),
		Reviews: NewReviewRepo(db),
		Likes:   NewLikeRepo(db),
	}
}

// observe is deferred with a pointer to the named error result.
func observe(backend, entity, op string, start time.Time, err *error) {
	metrics.RecordRepoOp(backend, entity, op, start, *err)
}
