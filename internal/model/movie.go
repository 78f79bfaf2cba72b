package model

import (
	"slices"
	"time"
)

// Movie represents a row in the `movies` table. Genre is an ordered list;
// queries can match either one of its elements or the whole list.
type Movie struct {
	ID             uint64    // movies.id
	Title          string    // movies.title
	Plot           string    // movies.plot
	Playtime       int       // movies.playtime (minutes)
	Genre          []string  // movies.genre (JSON array)
	PosterImageURL string    // movies.poster_image_url (nullable)
	CreatedAt      time.Time // movies.created_at
}

// Clone returns a copy of m that shares no slices with it.
func (m Movie) Clone() Movie {
	m.Genre = slices.Clone(m.Genre)
	return m
}

// MovieQuery selects movies. Scalar fields match by equality. Genre matches
// movies whose genre list contains it; Genres matches only movies whose list
// is exactly Genres. At most one of Genre and Genres may be set.
type MovieQuery struct {
	ID       *uint64
	Title    *string
	Playtime *int
	Genre    *string
	Genres   []string
}

// MoviePatch carries a partial update. Nil fields are left untouched; a
// non-nil Genre replaces the whole list.
type MoviePatch struct {
	Title          *string
	Plot           *string
	Playtime       *int
	Genre          []string
	PosterImageURL *string
}
