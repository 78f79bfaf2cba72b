package repository

import (
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/metrics"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// forEachBackend runs fn against a fresh memory set and a fresh SQLite set.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Set)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) {
		dsn, err := database.SQLiteDSN(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		db, err := database.Open(database.DriverSQLite, dsn)
		require.NoError(t, err, "Failed to open test database")
		t.Cleanup(func() { db.Close() })
		require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
		fn(t, NewSQL(db))
	})
}

func mustUser(t *testing.T, s *Set, name string, age int, g model.Gender) model.User {
	t.Helper()
	u, err := s.Users.Create(context.Background(), model.User{Username: name, PasswordHash: "x", Age: age, Gender: g})
	require.NoError(t, err)
	return u
}

func mustMovie(t *testing.T, s *Set, title string, genre ...string) model.Movie {
	t.Helper()
	m, err := s.Movies.Create(context.Background(), model.Movie{Title: title, Playtime: 120, Genre: genre})
	require.NoError(t, err)
	return m
}

func TestUsers_CreateGetFilter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		a := mustUser(t, s, "a", 20, model.GenderMale)
		b := mustUser(t, s, "b", 25, model.GenderFemale)
		assert.Equal(t, uint64(1), a.ID)
		assert.Equal(t, uint64(2), b.ID)

		got, err := s.Users.Filter(ctx, model.UserQuery{Age: model.Ptr(20)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)

		got, err = s.Users.Filter(ctx, model.UserQuery{Age: model.Ptr(25), Gender: model.Ptr(model.GenderMale)})
		require.NoError(t, err)
		assert.Empty(t, got)

		u, ok, err := s.Users.Get(ctx, model.UserQuery{Username: model.Ptr("b")})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, b.ID, u.ID)
		assert.Equal(t, model.GenderFemale, u.Gender)
		assert.Nil(t, u.LastLogin)

		_, ok, err = s.Users.Get(ctx, model.UserQuery{ID: model.Ptr(uint64(999999))})
		require.NoError(t, err)
		assert.False(t, ok)

		all, err := s.Users.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestUsers_UsernameUnique(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		mustUser(t, s, "taken", 20, model.GenderMale)
		other := mustUser(t, s, "free", 20, model.GenderMale)

		_, err := s.Users.Create(ctx, model.User{Username: "taken", PasswordHash: "x", Gender: model.GenderMale})
		assert.ErrorIs(t, err, ErrUsernameExists)

		_, _, err = s.Users.Update(ctx, other.ID, model.UserPatch{Username: model.Ptr("taken")})
		assert.ErrorIs(t, err, ErrUsernameExists)

		// renaming to your own name is fine
		_, ok, err := s.Users.Update(ctx, other.ID, model.UserPatch{Username: model.Ptr("free")})
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestUsers_UpdatePatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		u := mustUser(t, s, "a", 20, model.GenderMale)

		got, ok, err := s.Users.Update(ctx, u.ID, model.UserPatch{Age: model.Ptr(21)})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 21, got.Age)
		assert.Equal(t, "a", got.Username)
		assert.Equal(t, model.GenderMale, got.Gender)

		got, _, err = s.Users.Update(ctx, u.ID, model.UserPatch{LastLogin: model.Ptr(now())})
		require.NoError(t, err)
		assert.NotNil(t, got.LastLogin)

		_, ok, err = s.Users.Update(ctx, 999, model.UserPatch{Age: model.Ptr(1)})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMovies_GenreMembershipAndEquality(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		m := mustMovie(t, s, "t", "SF", "Drama")
		mustMovie(t, s, "u", "Comedy")

		tests := []struct {
			name string
			q    model.MovieQuery
			want int
		}{
			{"element present", model.MovieQuery{Genre: model.Ptr("SF")}, 1},
			{"element absent", model.MovieQuery{Genre: model.Ptr("Horror")}, 0},
			{"whole list", model.MovieQuery{Genres: []string{"SF", "Drama"}}, 1},
			{"sub list", model.MovieQuery{Genres: []string{"SF"}}, 0},
			{"reordered list", model.MovieQuery{Genres: []string{"Drama", "SF"}}, 0},
			{"with title", model.MovieQuery{Title: model.Ptr("t"), Genre: model.Ptr("Drama")}, 1},
			{"no criteria", model.MovieQuery{}, 2},
		}
		for _, tt := range tests {
			got, err := s.Movies.Filter(ctx, tt.q)
			require.NoError(t, err, tt.name)
			assert.Len(t, got, tt.want, tt.name)
			if tt.want == 1 {
				assert.Equal(t, m.ID, got[0].ID, tt.name)
			}
		}

		_, err := s.Movies.Filter(ctx, model.MovieQuery{Genre: model.Ptr("SF"), Genres: []string{"SF"}})
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})
}

func TestMovies_UpdateAndDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		m := mustMovie(t, s, "t", "SF", "Drama")

		got, ok, err := s.Movies.Update(ctx, m.ID, model.MoviePatch{Genre: []string{"Noir"}, Playtime: model.Ptr(99)})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []string{"Noir"}, got.Genre)
		assert.Equal(t, 99, got.Playtime)
		assert.Equal(t, "t", got.Title)

		got, ok, err = s.Movies.Get(ctx, model.MovieQuery{ID: &m.ID})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []string{"Noir"}, got.Genre)

		deleted, err := s.Movies.Delete(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = s.Movies.Delete(ctx, m.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestReviews_UniquePerUserAndMovie(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		u := mustUser(t, s, "a", 20, model.GenderMale)
		m := mustMovie(t, s, "t", "SF")

		rv, err := s.Reviews.Create(ctx, model.Review{UserID: u.ID, MovieID: m.ID, Title: "good", Content: "liked it"})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), rv.ID)

		_, err = s.Reviews.Create(ctx, model.Review{UserID: u.ID, MovieID: m.ID, Title: "again", Content: "x"})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = s.Reviews.Create(ctx, model.Review{UserID: u.ID, MovieID: 404, Title: "x", Content: "x"})
		assert.ErrorIs(t, err, ErrNotFound)

		got, ok, err := s.Reviews.Update(ctx, rv.ID, model.ReviewPatch{Content: model.Ptr("changed")})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "good", got.Title)
		assert.Equal(t, "changed", got.Content)
		assert.Equal(t, u.ID, got.UserID)
	})
}

func TestLikes_CountAndCascade(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		a := mustUser(t, s, "a", 20, model.GenderMale)
		b := mustUser(t, s, "b", 20, model.GenderFemale)
		m := mustMovie(t, s, "t", "SF")
		rv, err := s.Reviews.Create(ctx, model.Review{UserID: a.ID, MovieID: m.ID, Title: "t", Content: "c"})
		require.NoError(t, err)

		la, err := s.Likes.Create(ctx, model.ReviewLike{UserID: a.ID, ReviewID: rv.ID, IsLiked: true})
		require.NoError(t, err)
		_, err = s.Likes.Create(ctx, model.ReviewLike{UserID: b.ID, ReviewID: rv.ID, IsLiked: true})
		require.NoError(t, err)
		_, err = s.Likes.Create(ctx, model.ReviewLike{UserID: b.ID, ReviewID: rv.ID, IsLiked: true})
		assert.ErrorIs(t, err, ErrConflict)

		n, err := s.Likes.CountLiked(ctx, rv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, ok, err := s.Likes.Update(ctx, la.ID, model.LikePatch{IsLiked: model.Ptr(false)})
		require.NoError(t, err)
		require.True(t, ok)
		n, err = s.Likes.CountLiked(ctx, rv.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		// deleting the movie takes its reviews and their likes along
		_, err = s.Movies.Delete(ctx, m.ID)
		require.NoError(t, err)
		_, ok, err = s.Reviews.Get(ctx, model.ReviewQuery{ID: &rv.ID})
		require.NoError(t, err)
		assert.False(t, ok)
		likes, err := s.Likes.All(ctx)
		require.NoError(t, err)
		assert.Empty(t, likes)
	})
}

func TestUsers_DeleteCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		u := mustUser(t, s, "a", 20, model.GenderMale)
		m := mustMovie(t, s, "t", "SF")
		_, err := s.Reviews.Create(ctx, model.Review{UserID: u.ID, MovieID: m.ID, Title: "t", Content: "c"})
		require.NoError(t, err)

		ok, err := s.Users.Delete(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		reviews, err := s.Reviews.Filter(ctx, model.ReviewQuery{UserID: &u.ID})
		require.NoError(t, err)
		assert.Empty(t, reviews)
	})
}

func TestSeedDummy(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		hash := func(p string) (string, error) { return "h:" + p, nil }
		require.NoError(t, SeedDummy(ctx, s, hash, rand.New(rand.NewPCG(1, 2))))

		users, err := s.Users.All(ctx)
		require.NoError(t, err)
		require.Len(t, users, 10)
		assert.Equal(t, "dummy1", users[0].Username)
		assert.Equal(t, "h:password1", users[0].PasswordHash)
		assert.Equal(t, 16, users[0].Age)
		assert.Equal(t, 25, users[9].Age)
		for _, u := range users {
			assert.True(t, u.Gender.Valid())
		}

		movies, err := s.Movies.All(ctx)
		require.NoError(t, err)
		require.Len(t, movies, 10)
		for _, m := range movies {
			assert.Len(t, m.Genre, 3)
			assert.NotEqual(t, m.Genre[0], m.Genre[1])
			assert.NotEqual(t, m.Genre[1], m.Genre[2])
			assert.NotEqual(t, m.Genre[0], m.Genre[2])
			assert.GreaterOrEqual(t, m.Playtime, 100)
			assert.LessOrEqual(t, m.Playtime, 300)
		}
	})
}

func opCount(t *testing.T, backend, entity, op string) uint64 {
	t.Helper()
	var m dto.Metric
	obs := metrics.RepoOpDuration.WithLabelValues(backend, entity, op)
	require.NoError(t, obs.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestOperationsAreObservedOnEveryBackend(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Set) {
		ctx := context.Background()
		u := mustUser(t, s, "a", 20, model.GenderMale)
		m := mustMovie(t, s, "m", "SF")
		rv, err := s.Reviews.Create(ctx, model.Review{UserID: u.ID, MovieID: m.ID, Title: "t", Content: "c"})
		require.NoError(t, err)
		l, err := s.Likes.Create(ctx, model.ReviewLike{UserID: u.ID, ReviewID: rv.ID, IsLiked: true})
		require.NoError(t, err)

		calls := []struct {
			entity, op string
			run        func() error
		}{
			{"user", "filter", func() error { _, err := s.Users.All(ctx); return err }},
			{"movie", "filter", func() error { _, err := s.Movies.All(ctx); return err }},
			{"review", "filter", func() error { _, err := s.Reviews.All(ctx); return err }},
			{"review_like", "filter", func() error { _, err := s.Likes.All(ctx); return err }},
			{"review_like", "count", func() error { _, err := s.Likes.CountLiked(ctx, rv.ID); return err }},
			{"review_like", "delete", func() error { _, err := s.Likes.Delete(ctx, l.ID); return err }},
		}
		for _, c := range calls {
			before := opCount(t, s.Backend, c.entity, c.op)
			require.NoError(t, c.run())
			assert.Equal(t, before+1, opCount(t, s.Backend, c.entity, c.op), "%s %s", c.entity, c.op)
		}
	})
}
