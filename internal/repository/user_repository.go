package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const userColumns = "id,username,hashed_password,age,gender,last_login,profile_image_url,created_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

func scanUser(s scanner) (model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Age, &u.Gender,
		&lastLogin, &u.ProfileImageURL, &u.CreatedAt)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, err
}

func userWhere(q model.UserQuery) *clause {
	c := &clause{}
	addIf(c, "id", q.ID)
	addIf(c, "username", q.Username)
	addIf(c, "age", q.Age)
	addIf(c, "gender", q.Gender)
	return c
}

// Create inserts u and returns it with its new id.
func (r *UserRepo) Create(ctx context.Context, u model.User) (_ model.User, err error) {
	defer observe(BackendSQL, "user", "create", time.Now(), &err)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username,hashed_password,age,gender,last_login,profile_image_url,created_at) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.PasswordHash, u.Age, u.Gender, u.LastLogin, u.ProfileImageURL, u.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u.ID = uint64(id)
	return u, nil
}

// Get returns the first user, by id, matching q.
func (r *UserRepo) Get(ctx context.Context, q model.UserQuery) (u model.User, ok bool, err error) {
	defer observe(BackendSQL, "user", "get", time.Now(), &err)
	c := userWhere(q)
	u, err = scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+c.where()+" ORDER BY id LIMIT 1", c.args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

func (r *UserRepo) Filter(ctx context.Context, q model.UserQuery) (_ []model.User, err error) {
	defer observe(BackendSQL, "user", "filter", time.Now(), &err)
	c := userWhere(q)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+c.where()+" ORDER BY id", c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, id uint64, p model.UserPatch) (u model.User, ok bool, err error) {
	defer observe(BackendSQL, "user", "update", time.Now(), &err)
	set := &clause{}
	addIf(set, "username", p.Username)
	addIf(set, "hashed_password", p.PasswordHash)
	addIf(set, "age", p.Age)
	addIf(set, "gender", p.Gender)
	addIf(set, "last_login", p.LastLogin)
	addIf(set, "profile_image_url", p.ProfileImageURL)
	if len(set.parts) > 0 {
		_, err = r.DB.ExecContext(ctx, "UPDATE users SET "+set.set()+" WHERE id=?", append(set.args, id)...)
		if err != nil {
			if isDuplicateKey(err) {
				return model.User{}, false, ErrUsernameExists
			}
			return model.User{}, false, err
		}
	}
	return r.Get(ctx, model.UserQuery{ID: &id})
}

// Delete removes the user; reviews and likes go with it (ON DELETE CASCADE).
func (r *UserRepo) Delete(ctx context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendSQL, "user", "delete", time.Now(), &err)
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *UserRepo) All(ctx context.Context) ([]model.User, error) {
	return r.Filter(ctx, model.UserQuery{})
}
