package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const reviewColumns = "id,user_id,movie_id,title,content,review_image_url,created_at"

type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func scanReview(s scanner) (model.Review, error) {
	var rv model.Review
	err := s.Scan(&rv.ID, &rv.UserID, &rv.MovieID, &rv.Title, &rv.Content, &rv.ReviewImageURL, &rv.CreatedAt)
	return rv, err
}

func reviewWhere(q model.ReviewQuery) *clause {
	c := &clause{}
	addIf(c, "id", q.ID)
	addIf(c, "user_id", q.UserID)
	addIf(c, "movie_id", q.MovieID)
	return c
}

// Create inserts rv. A second review of the same movie by the same user
// fails with ErrConflict; unknown user or movie with ErrNotFound.
func (r *ReviewRepo) Create(ctx context.Context, rv model.Review) (_ model.Review, err error) {
	defer observe(BackendSQL, "review", "create", time.Now(), &err)
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = now()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (user_id,movie_id,title,content,review_image_url,created_at) VALUES (?,?,?,?,?,?)",
		rv.UserID, rv.MovieID, rv.Title, rv.Content, rv.ReviewImageURL, rv.CreatedAt)
	switch {
	case err == nil:
	case isDuplicateKey(err):
		return model.Review{}, ErrConflict
	case isMissingReference(err):
		return model.Review{}, ErrNotFound
	default:
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	rv.ID = uint64(id)
	return rv, nil
}

func (r *ReviewRepo) Get(ctx context.Context, q model.ReviewQuery) (rv model.Review, ok bool, err error) {
	defer observe(BackendSQL, "review", "get", time.Now(), &err)
	c := reviewWhere(q)
	rv, err = scanReview(r.db.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE "+c.where()+" ORDER BY id LIMIT 1", c.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, false, nil
	}
	if err != nil {
		return model.Review{}, false, err
	}
	return rv, true, nil
}

func (r *ReviewRepo) Filter(ctx context.Context, q model.ReviewQuery) (_ []model.Review, err error) {
	defer observe(BackendSQL, "review", "filter", time.Now(), &err)
	c := reviewWhere(q)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE "+c.where()+" ORDER BY id", c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) Update(ctx context.Context, id uint64, p model.ReviewPatch) (rv model.Review, ok bool, err error) {
	defer observe(BackendSQL, "review", "update", time.Now(), &err)
	set := &clause{}
	addIf(set, "title", p.Title)
	addIf(set, "content", p.Content)
	addIf(set, "review_image_url", p.ReviewImageURL)
	if len(set.parts) > 0 {
		if _, err = r.db.ExecContext(ctx, "UPDATE reviews SET "+set.set()+" WHERE id=?", append(set.args, id)...); err != nil {
			return model.Review{}, false, err
		}
	}
	return r.Get(ctx, model.ReviewQuery{ID: &id})
}

func (r *ReviewRepo) Delete(ctx context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendSQL, "review", "delete", time.Now(), &err)
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *ReviewRepo) All(ctx context.Context) ([]model.Review, error) {
	return r.Filter(ctx, model.ReviewQuery{})
}
