package model

// Field names shared by the in-memory schemas and the SQL column lists.
const (
	FieldID              = "id"
	FieldUsername        = "username"
	FieldPasswordHash    = "hashed_password"
	FieldAge             = "age"
	FieldGender          = "gender"
	FieldLastLogin       = "last_login"
	FieldProfileImageURL = "profile_image_url"

	FieldTitle          = "title"
	FieldPlot           = "plot"
	FieldPlaytime       = "playtime"
	FieldGenre          = "genre"
	FieldPosterImageURL = "poster_image_url"

	FieldUserID         = "user_id"
	FieldMovieID        = "movie_id"
	FieldContent        = "content"
	FieldReviewImageURL = "review_image_url"

	FieldReviewID = "review_id"
	FieldIsLiked  = "is_liked"
)

// Ptr returns a pointer to v. It keeps query and patch literals short.
func Ptr[V any](v V) *V { return &v }
