package model

import "time"

// User represents an application user as stored in the `users` table.
// Handlers expose it through their own response types so that the password
// hash never leaves the service.
//
// Fields:
//  ID              – primary key identifier.
//  Username        – unique login name.
//  PasswordHash    – bcrypt hash of the password.
//  Age             – age in years.
//  Gender          – declared gender.
//  LastLogin       – time of the last successful login (nil if never).
//  ProfileImageURL – stored path of the profile image (empty if none).
//  CreatedAt       – creation timestamp.
type User struct {
	ID              uint64     // users.id
	Username        string     // users.username
	PasswordHash    string     // users.hashed_password
	Age             int        // users.age
	Gender          Gender     // users.gender
	LastLogin       *time.Time // users.last_login (nullable)
	ProfileImageURL string     // users.profile_image_url (nullable)
	CreatedAt       time.Time  // users.created_at
}

// UserQuery selects users by equality on every non-nil field.
type UserQuery struct {
	ID       *uint64
	Username *string
	Age      *int
	Gender   *Gender
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username        *string
	PasswordHash    *string
	Age             *int
	Gender          *Gender
	LastLogin       *time.Time
	ProfileImageURL *string
}
