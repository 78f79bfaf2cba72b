package repository

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/iliyamo/movie-review-api/internal/model"
)

// SeedGenres is the pool dummy movies draw their genres from.
var SeedGenres = []string{
	"SF", "Romantic", "Adventure", "Action", "Comedy", "Horror", "Drama",
	"Thriller", "Mystery", "Crime", "Musical", "War", "Western", "Historical",
	"Documentary", "Animation", "Fantasy", "Biopic", "Superhero", "Noir",
	"Disaster", "Sports", "Family",
}

// SeedDummy creates users dummy1..dummy10 (password passwordN) and ten
// movies with three distinct random genres each. hash turns a plain
// password into the stored hash.
func SeedDummy(ctx context.Context, set *Set, hash func(string) (string, error), rng *rand.Rand) error {
	genders := model.Genders
	for i := 1; i <= 10; i++ {
		h, err := hash(fmt.Sprintf("password%d", i))
		if err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
		_, err = set.Users.Create(ctx, model.User{
			Username:     fmt.Sprintf("dummy%d", i),
			PasswordHash: h,
			Age:          15 + i,
			Gender:       genders[rng.IntN(len(genders))],
		})
		if err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
	}
	for i := 1; i <= 10; i++ {
		perm := rng.Perm(len(SeedGenres))
		genre := []string{SeedGenres[perm[0]], SeedGenres[perm[1]], SeedGenres[perm[2]]}
		_, err := set.Movies.Create(ctx, model.Movie{
			Title:    fmt.Sprintf("dummy_movie %d", i),
			Playtime: 100 + rng.IntN(201),
			Genre:    genre,
		})
		if err != nil {
			return fmt.Errorf("seed movie %d: %w", i, err)
		}
	}
	return nil
}
