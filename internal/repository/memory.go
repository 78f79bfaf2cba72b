package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/store"
)

// memoryDB holds the four stores of the memory backend. mu serializes
// writes that look at more than one row (uniqueness checks, cascading
// deletes) so they behave like the SQL constraints.
type memoryDB struct {
	mu      sync.Mutex
	users   *store.Store[model.User]
	movies  *store.Store[model.Movie]
	reviews *store.Store[model.Review]
	likes   *store.Store[model.ReviewLike]
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:   store.New(userSchema()),
		movies:  store.New(movieSchema()),
		reviews: store.New(reviewSchema()),
		likes:   store.New(likeSchema()),
	}
}

// storeErr maps store validation failures onto ErrInvalidQuery.
func storeErr(err error) error {
	if errors.Is(err, store.ErrUnknownField) || errors.Is(err, store.ErrInvalidValue) {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return err
}

// deleteReviewCascade must be called with mu held.
func (db *memoryDB) deleteReviewCascade(reviewID uint64) {
	likes, _ := db.likes.Filter(store.Criteria{model.FieldReviewID: reviewID})
	for _, l := range likes {
		db.likes.Delete(l.ID)
	}
	db.reviews.Delete(reviewID)
}

func now() time.Time { return time.Now().UTC() }

// ---- users ----

type MemoryUserRepo struct{ db *memoryDB }

func (r *MemoryUserRepo) Create(_ context.Context, u model.User) (_ model.User, err error) {
	defer observe(BackendMemory, "user", "create", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, taken, _ := r.db.users.Get(store.Criteria{model.FieldUsername: u.Username}); taken {
		return model.User{}, ErrUsernameExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	return r.db.users.Create(u), nil
}

func (r *MemoryUserRepo) Get(_ context.Context, q model.UserQuery) (u model.User, ok bool, err error) {
	defer observe(BackendMemory, "user", "get", time.Now(), &err)
	u, ok, err = r.db.users.Get(userCriteria(q))
	return u, ok, storeErr(err)
}

func (r *MemoryUserRepo) Filter(_ context.Context, q model.UserQuery) (_ []model.User, err error) {
	defer observe(BackendMemory, "user", "filter", time.Now(), &err)
	out, err := r.db.users.Filter(userCriteria(q))
	return out, storeErr(err)
}

func (r *MemoryUserRepo) Update(_ context.Context, id uint64, p model.UserPatch) (u model.User, ok bool, err error) {
	defer observe(BackendMemory, "user", "update", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p.Username != nil {
		other, taken, _ := r.db.users.Get(store.Criteria{model.FieldUsername: *p.Username})
		if taken && other.ID != id {
			return model.User{}, false, ErrUsernameExists
		}
	}
	u, ok, err = r.db.users.Update(id, userPatch(p))
	return u, ok, storeErr(err)
}

// Delete removes the user together with their reviews and likes.
func (r *MemoryUserRepo) Delete(_ context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendMemory, "user", "delete", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	likes, _ := r.db.likes.Filter(store.Criteria{model.FieldUserID: id})
	for _, l := range likes {
		r.db.likes.Delete(l.ID)
	}
	reviews, _ := r.db.reviews.Filter(store.Criteria{model.FieldUserID: id})
	for _, rv := range reviews {
		r.db.deleteReviewCascade(rv.ID)
	}
	return r.db.users.Delete(id), nil
}

func (r *MemoryUserRepo) All(ctx context.Context) ([]model.User, error) {
	return r.Filter(ctx, model.UserQuery{})
}

// ---- movies ----

type MemoryMovieRepo struct{ db *memoryDB }

func (r *MemoryMovieRepo) Create(_ context.Context, m model.Movie) (_ model.Movie, err error) {
	defer observe(BackendMemory, "movie", "create", time.Now(), &err)
	if m.Genre == nil {
		m.Genre = []string{}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	return r.db.movies.Create(m), nil
}

func (r *MemoryMovieRepo) Get(_ context.Context, q model.MovieQuery) (m model.Movie, ok bool, err error) {
	defer observe(BackendMemory, "movie", "get", time.Now(), &err)
	c, err := movieCriteria(q)
	if err != nil {
		return m, false, err
	}
	m, ok, err = r.db.movies.Get(c)
	return m, ok, storeErr(err)
}

func (r *MemoryMovieRepo) Filter(_ context.Context, q model.MovieQuery) (_ []model.Movie, err error) {
	defer observe(BackendMemory, "movie", "filter", time.Now(), &err)
	c, err := movieCriteria(q)
	if err != nil {
		return nil, err
	}
	out, err := r.db.movies.Filter(c)
	return out, storeErr(err)
}

func (r *MemoryMovieRepo) Update(_ context.Context, id uint64, p model.MoviePatch) (m model.Movie, ok bool, err error) {
	defer observe(BackendMemory, "movie", "update", time.Now(), &err)
	m, ok, err = r.db.movies.Update(id, moviePatch(p))
	return m, ok, storeErr(err)
}

// Delete removes the movie together with its reviews and their likes.
func (r *MemoryMovieRepo) Delete(_ context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendMemory, "movie", "delete", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	reviews, _ := r.db.reviews.Filter(store.Criteria{model.FieldMovieID: id})
	for _, rv := range reviews {
		r.db.deleteReviewCascade(rv.ID)
	}
	return r.db.movies.Delete(id), nil
}

func (r *MemoryMovieRepo) All(ctx context.Context) ([]model.Movie, error) {
	return r.Filter(ctx, model.MovieQuery{})
}

// ---- reviews ----

type MemoryReviewRepo struct{ db *memoryDB }

func (r *MemoryReviewRepo) Create(_ context.Context, rv model.Review) (_ model.Review, err error) {
	defer observe(BackendMemory, "review", "create", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok, _ := r.db.users.Get(store.Criteria{model.FieldID: rv.UserID}); !ok {
		return model.Review{}, fmt.Errorf("user %d: %w", rv.UserID, ErrNotFound)
	}
	if _, ok, _ := r.db.movies.Get(store.Criteria{model.FieldID: rv.MovieID}); !ok {
		return model.Review{}, fmt.Errorf("movie %d: %w", rv.MovieID, ErrNotFound)
	}
	if _, dup, _ := r.db.reviews.Get(store.Criteria{model.FieldUserID: rv.UserID, model.FieldMovieID: rv.MovieID}); dup {
		return model.Review{}, ErrConflict
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = now()
	}
	return r.db.reviews.Create(rv), nil
}

func (r *MemoryReviewRepo) Get(_ context.Context, q model.ReviewQuery) (rv model.Review, ok bool, err error) {
	defer observe(BackendMemory, "review", "get", time.Now(), &err)
	rv, ok, err = r.db.reviews.Get(reviewCriteria(q))
	return rv, ok, storeErr(err)
}

func (r *MemoryReviewRepo) Filter(_ context.Context, q model.ReviewQuery) (_ []model.Review, err error) {
	defer observe(BackendMemory, "review", "filter", time.Now(), &err)
	out, err := r.db.reviews.Filter(reviewCriteria(q))
	return out, storeErr(err)
}

func (r *MemoryReviewRepo) Update(_ context.Context, id uint64, p model.ReviewPatch) (rv model.Review, ok bool, err error) {
	defer observe(BackendMemory, "review", "update", time.Now(), &err)
	rv, ok, err = r.db.reviews.Update(id, reviewPatch(p))
	return rv, ok, storeErr(err)
}

func (r *MemoryReviewRepo) Delete(_ context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendMemory, "review", "delete", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok, _ = r.db.reviews.Get(store.Criteria{model.FieldID: id})
	if ok {
		r.db.deleteReviewCascade(id)
	}
	return ok, nil
}

func (r *MemoryReviewRepo) All(ctx context.Context) ([]model.Review, error) {
	return r.Filter(ctx, model.ReviewQuery{})
}

// ---- likes ----

type MemoryLikeRepo struct{ db *memoryDB }

func (r *MemoryLikeRepo) Create(_ context.Context, l model.ReviewLike) (_ model.ReviewLike, err error) {
	defer observe(BackendMemory, "review_like", "create", time.Now(), &err)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok, _ := r.db.reviews.Get(store.Criteria{model.FieldID: l.ReviewID}); !ok {
		return model.ReviewLike{}, fmt.Errorf("review %d: %w", l.ReviewID, ErrNotFound)
	}
	if _, ok, _ := r.db.likes.Get(store.Criteria{model.FieldUserID: l.UserID, model.FieldReviewID: l.ReviewID}); ok {
		return model.ReviewLike{}, ErrConflict
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now()
	}
	return r.db.likes.Create(l), nil
}

func (r *MemoryLikeRepo) Get(_ context.Context, q model.LikeQuery) (l model.ReviewLike, ok bool, err error) {
	defer observe(BackendMemory, "review_like", "get", time.Now(), &err)
	l, ok, err = r.db.likes.Get(likeCriteria(q))
	return l, ok, storeErr(err)
}

func (r *MemoryLikeRepo) Filter(_ context.Context, q model.LikeQuery) (_ []model.ReviewLike, err error) {
	defer observe(BackendMemory, "review_like", "filter", time.Now(), &err)
	out, err := r.db.likes.Filter(likeCriteria(q))
	return out, storeErr(err)
}

func (r *MemoryLikeRepo) Update(_ context.Context, id uint64, p model.LikePatch) (l model.ReviewLike, ok bool, err error) {
	defer observe(BackendMemory, "review_like", "update", time.Now(), &err)
	l, ok, err = r.db.likes.Update(id, likePatch(p))
	return l, ok, storeErr(err)
}

func (r *MemoryLikeRepo) Delete(_ context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendMemory, "review_like", "delete", time.Now(), &err)
	return r.db.likes.Delete(id), nil
}

func (r *MemoryLikeRepo) All(ctx context.Context) ([]model.ReviewLike, error) {
	return r.Filter(ctx, model.LikeQuery{})
}

func (r *MemoryLikeRepo) CountLiked(_ context.Context, reviewID uint64) (_ int, err error) {
	defer observe(BackendMemory, "review_like", "count", time.Now(), &err)
	liked, err := r.db.likes.Filter(store.Criteria{model.FieldReviewID: reviewID, model.FieldIsLiked: true})
	return len(liked), err
}
