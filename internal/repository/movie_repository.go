package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/store"
)

const movieColumns = "id,title,plot,playtime,genre,poster_image_url,created_at"

// MovieRepo keeps genre lists as JSON arrays. Genre criteria are evaluated
// in Go with the same field table as the memory backend, so membership and
// whole-list matching behave identically on both.
type MovieRepo struct {
	db     *sql.DB
	schema *store.Schema[model.Movie]
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db, schema: movieSchema()}
}

func scanMovie(s scanner) (model.Movie, error) {
	var (
		m     model.Movie
		genre []byte
	)
	if err := s.Scan(&m.ID, &m.Title, &m.Plot, &m.Playtime, &genre, &m.PosterImageURL, &m.CreatedAt); err != nil {
		return m, err
	}
	m.Genre = []string{}
	if len(genre) > 0 {
		if err := json.Unmarshal(genre, &m.Genre); err != nil {
			return m, err
		}
	}
	return m, nil
}

func encodeGenre(g []string) ([]byte, error) {
	if g == nil {
		g = []string{}
	}
	return json.Marshal(g)
}

func (r *MovieRepo) Create(ctx context.Context, m model.Movie) (_ model.Movie, err error) {
	defer observe(BackendSQL, "movie", "create", time.Now(), &err)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	if m.Genre == nil {
		m.Genre = []string{}
	}
	genre, err := encodeGenre(m.Genre)
	if err != nil {
		return model.Movie{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movies (title,plot,playtime,genre,poster_image_url,created_at) VALUES (?,?,?,?,?,?)",
		m.Title, m.Plot, m.Playtime, string(genre), m.PosterImageURL, m.CreatedAt)
	if err != nil {
		return model.Movie{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Movie{}, err
	}
	m.ID = uint64(id)
	return m.Clone(), nil
}

// query loads the rows matching the scalar part of q and drops those that
// fail the genre criterion.
func (r *MovieRepo) query(ctx context.Context, q model.MovieQuery) ([]model.Movie, error) {
	if q.Genre != nil && q.Genres != nil {
		return nil, ErrInvalidQuery
	}
	match, err := r.schema.Compile(store.Criteria{})
	if g, ok := genreCriterion(q); ok {
		match, err = r.schema.Compile(store.Criteria{model.FieldGenre: g})
	}
	if err != nil {
		return nil, storeErr(err)
	}

	c := &clause{}
	addIf(c, "id", q.ID)
	addIf(c, "title", q.Title)
	addIf(c, "playtime", q.Playtime)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE "+c.where()+" ORDER BY id", c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		if match(&m) {
			out = append(out, m)
		}
	}
	return out, rows.Err()
}

func (r *MovieRepo) Get(ctx context.Context, q model.MovieQuery) (m model.Movie, ok bool, err error) {
	defer observe(BackendSQL, "movie", "get", time.Now(), &err)
	found, err := r.query(ctx, q)
	if err != nil || len(found) == 0 {
		return model.Movie{}, false, err
	}
	return found[0], true, nil
}

func (r *MovieRepo) Filter(ctx context.Context, q model.MovieQuery) (_ []model.Movie, err error) {
	defer observe(BackendSQL, "movie", "filter", time.Now(), &err)
	return r.query(ctx, q)
}

func (r *MovieRepo) Update(ctx context.Context, id uint64, p model.MoviePatch) (m model.Movie, ok bool, err error) {
	defer observe(BackendSQL, "movie", "update", time.Now(), &err)
	set := &clause{}
	addIf(set, "title", p.Title)
	addIf(set, "plot", p.Plot)
	addIf(set, "playtime", p.Playtime)
	if p.Genre != nil {
		genre, err := encodeGenre(p.Genre)
		if err != nil {
			return model.Movie{}, false, err
		}
		set.add("genre", string(genre))
	}
	addIf(set, "poster_image_url", p.PosterImageURL)
	if len(set.parts) > 0 {
		if _, err = r.db.ExecContext(ctx, "UPDATE movies SET "+set.set()+" WHERE id=?", append(set.args, id)...); err != nil {
			return model.Movie{}, false, err
		}
	}
	found, err := r.query(ctx, model.MovieQuery{ID: &id})
	if err != nil || len(found) == 0 {
		return model.Movie{}, false, err
	}
	return found[0], true, nil
}

// Delete removes the movie; its reviews and their likes cascade.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) (ok bool, err error) {
	defer observe(BackendSQL, "movie", "delete", time.Now(), &err)
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *MovieRepo) All(ctx context.Context) ([]model.Movie, error) {
	return r.Filter(ctx, model.MovieQuery{})
}
