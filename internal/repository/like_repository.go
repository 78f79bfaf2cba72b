package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const likeColumns = "id,user_id,review_id,is_liked,created_at"

type LikeRepo struct{ db *sql.DB }

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{db: db} }

func scanLike(s scanner) (model.ReviewLike, error) {
	var l model.ReviewLike
	err := s.Scan(&l.ID, &l.UserID, &l.ReviewID, &l.IsLiked, &l.CreatedAt)
	return l, err
}

func likeWhere(q model.LikeQuery) *clause {
	c := &clause{}
	addIf(c, "id", q.ID)
	addIf(c, "user_id", q.UserID)
	addIf(c, "review_id", q.ReviewID)
	addIf(c, "is_liked", q.IsLiked)
	return c
}

func (r *LikeRepo) Create(ctx context.Context, l model.ReviewLike) (_ model.ReviewLike, err error) {
	defer observe(BackendSQL, "review_like", "create", time.Now(), &err)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now()
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO review_likes (user_id,review_id,is_liked,created_at) VALUES (?,?,?,?)",
		l.UserID, l.ReviewID, l.IsLiked, l.CreatedAt)
	switch {
	case err == nil:
	case isDuplicateKey(err):
		return model.ReviewLike{}, ErrConflict
	case isMissingReference(err):
		return model.ReviewLike{}, ErrNotFound
	default:
		return model.ReviewLike{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ReviewLike{}, err
	}
	l.ID = uint64(id)
	return l, nil
}

func (r *LikeRepo) Get(ctx context.Context, q model.LikeQuery) (l model.ReviewLike, ok bool, err error) {
	defer observe(BackendSQL, "review_like", "get", time.Now(), &err)
	c := likeWhere(q)
	l, err = scanLike(r.db.QueryRowContext(ctx,
		"SELECT "+likeColumns+" FROM review_likes WHERE "+c.where()+" ORDER BY id LIMIT 1", c.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReviewLike{}, false, nil
	}
	if err != nil {
		return model.ReviewLike{}, false, err
	}
	return l, true, nil
}

func (r *LikeRepo) Filter(ctx context.Context, q model.LikeQuery) (_ []model.ReviewLike, err error) {
	defer observe(BackendSQL, "review_like", "filter", time.Now(), &err)
	c := likeWhere(q)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+likeColumns+" FROM review_likes WHERE "+c.where()+" ORDER BY id", c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ReviewLike{}
	for rows.Next() {
		l, err := scanLike(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LikeRepo) Update(ctx context.Context, id uint64, p model.LikePatch) (l model.ReviewLike, ok bool, err error) {
	defer observe(BackendSQL, "review_like", "update", time.Now(), &err)
	if p.IsLiked != nil {
		if _, err = r.db.ExecContext(ctx, "UPDATE review_likes SET is_liked=? WHERE id=?", *p.IsLiked, id); err != nil {
			return model.ReviewLike{}, false, err
		}
	}
	return r.Get(ctx, model.LikeQuery{ID: &id})
}

func (r *LikeRepo) Delete(ctx context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendSQL, "review_like", "delete", time.Now(), &err)
	res, err := r.db.ExecContext(ctx, "DELETE FROM review_likes WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *LikeRepo) All(ctx context.Context) ([]model.ReviewLike, error) {
	return r.Filter(ctx, model.LikeQuery{})
}

func (r *LikeRepo) CountLiked(ctx context.Context, reviewID uint64) (n int, err error) {
	defer observe(BackendSQL, "review_like", "count", time.Now(), &err)
	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review_likes WHERE review_id=? AND is_liked=?", reviewID, true).Scan(&n)
	return n, err
}
