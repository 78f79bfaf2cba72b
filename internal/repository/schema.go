package repository

import (
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/store"
)

// Field tables of the in-memory backend. The SQL backend reuses the movie
// table to evaluate genre criteria after loading rows.

func userSchema() *store.Schema[model.User] {
	return store.NewSchema("user", func(u *model.User) *uint64 { return &u.ID },
		store.Scalar(model.FieldUsername,
			func(u *model.User) string { return u.Username },
			func(u *model.User, v string) { u.Username = v }),
		store.AssignOnly(model.FieldPasswordHash,
			func(u *model.User, v string) { u.PasswordHash = v }),
		store.Scalar(model.FieldAge,
			func(u *model.User) int { return u.Age },
			func(u *model.User, v int) { u.Age = v }),
		store.Scalar(model.FieldGender,
			func(u *model.User) model.Gender { return u.Gender },
			func(u *model.User, v model.Gender) { u.Gender = v }),
		store.AssignOnly(model.FieldLastLogin,
			func(u *model.User, v time.Time) { u.LastLogin = &v }),
		store.AssignOnly(model.FieldProfileImageURL,
			func(u *model.User, v string) { u.ProfileImageURL = v }),
	).WithClone(func(u model.User) model.User {
		if u.LastLogin != nil {
			t := *u.LastLogin
			u.LastLogin = &t
		}
		return u
	})
}

func movieSchema() *store.Schema[model.Movie] {
	return store.NewSchema("movie", func(m *model.Movie) *uint64 { return &m.ID },
		store.Scalar(model.FieldTitle,
			func(m *model.Movie) string { return m.Title },
			func(m *model.Movie, v string) { m.Title = v }),
		store.AssignOnly(model.FieldPlot,
			func(m *model.Movie, v string) { m.Plot = v }),
		store.Scalar(model.FieldPlaytime,
			func(m *model.Movie) int { return m.Playtime },
			func(m *model.Movie, v int) { m.Playtime = v }),
		store.List(model.FieldGenre, store.MatchMembership,
			func(m *model.Movie) []string { return m.Genre },
			func(m *model.Movie, v []string) { m.Genre = v }),
		store.AssignOnly(model.FieldPosterImageURL,
			func(m *model.Movie, v string) { m.PosterImageURL = v }),
	).WithClone(model.Movie.Clone)
}

// user_id and movie_id are fixed at creation and therefore read-only.
func reviewSchema() *store.Schema[model.Review] {
	return store.NewSchema("review", func(r *model.Review) *uint64 { return &r.ID },
		store.Scalar[model.Review, uint64](model.FieldUserID,
			func(r *model.Review) uint64 { return r.UserID }, nil),
		store.Scalar[model.Review, uint64](model.FieldMovieID,
			func(r *model.Review) uint64 { return r.MovieID }, nil),
		store.AssignOnly(model.FieldTitle,
			func(r *model.Review, v string) { r.Title = v }),
		store.AssignOnly(model.FieldContent,
			func(r *model.Review, v string) { r.Content = v }),
		store.AssignOnly(model.FieldReviewImageURL,
			func(r *model.Review, v string) { r.ReviewImageURL = v }),
	)
}

func likeSchema() *store.Schema[model.ReviewLike] {
	return store.NewSchema("review_like", func(l *model.ReviewLike) *uint64 { return &l.ID },
		store.Scalar[model.ReviewLike, uint64](model.FieldUserID,
			func(l *model.ReviewLike) uint64 { return l.UserID }, nil),
		store.Scalar[model.ReviewLike, uint64](model.FieldReviewID,
			func(l *model.ReviewLike) uint64 { return l.ReviewID }, nil),
		store.Scalar(model.FieldIsLiked,
			func(l *model.ReviewLike) bool { return l.IsLiked },
			func(l *model.ReviewLike, v bool) { l.IsLiked = v }),
	)
}

func userCriteria(q model.UserQuery) store.Criteria {
	return store.Criteria{
		model.FieldID:       q.ID,
		model.FieldUsername: q.Username,
		model.FieldAge:      q.Age,
		model.FieldGender:   q.Gender,
	}
}

func userPatch(p model.UserPatch) store.Patch {
	return store.Patch{
		model.FieldUsername:        p.Username,
		model.FieldPasswordHash:    p.PasswordHash,
		model.FieldAge:             p.Age,
		model.FieldGender:          p.Gender,
		model.FieldLastLogin:       p.LastLogin,
		model.FieldProfileImageURL: p.ProfileImageURL,
	}
}

func movieCriteria(q model.MovieQuery) (store.Criteria, error) {
	c := store.Criteria{
		model.FieldID:       q.ID,
		model.FieldTitle:    q.Title,
		model.FieldPlaytime: q.Playtime,
	}
	if g, ok := genreCriterion(q); ok {
		c[model.FieldGenre] = g
	}
	if q.Genre != nil && q.Genres != nil {
		return nil, ErrInvalidQuery
	}
	return c, nil
}

// genreCriterion picks the element (membership) or whole-list (equality)
// form of the genre constraint.
func genreCriterion(q model.MovieQuery) (any, bool) {
	switch {
	case q.Genre != nil:
		return *q.Genre, true
	case q.Genres != nil:
		return q.Genres, true
	}
	return nil, false
}

func moviePatch(p model.MoviePatch) store.Patch {
	return store.Patch{
		model.FieldTitle:          p.Title,
		model.FieldPlot:           p.Plot,
		model.FieldPlaytime:       p.Playtime,
		model.FieldGenre:          p.Genre,
		model.FieldPosterImageURL: p.PosterImageURL,
	}
}

func reviewCriteria(q model.ReviewQuery) store.Criteria {
	return store.Criteria{
		model.FieldID:      q.ID,
		model.FieldUserID:  q.UserID,
		model.FieldMovieID: q.MovieID,
	}
}

func reviewPatch(p model.ReviewPatch) store.Patch {
	return store.Patch{
		model.FieldTitle:          p.Title,
		model.FieldContent:        p.Content,
		model.FieldReviewImageURL: p.ReviewImageURL,
	}
}

func likeCriteria(q model.LikeQuery) store.Criteria {
	return store.Criteria{
		model.FieldID:       q.ID,
		model.FieldUserID:   q.UserID,
		model.FieldReviewID: q.ReviewID,
		model.FieldIsLiked:  q.IsLiked,
	}
}

func likePatch(p model.LikePatch) store.Patch {
	return store.Patch{model.FieldIsLiked: p.IsLiked}
}
