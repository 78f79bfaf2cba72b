package model

import "fmt"

// Gender is the closed set of genders a user can declare. It is the single
// definition shared by models, validation and persistence.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists every valid Gender.
var Genders = []Gender{GenderMale, GenderFemale}

// Valid reports whether g is one of the declared genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// ParseGender converts s into a Gender.
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if !g.Valid() {
		return "", fmt.Errorf("invalid gender %q", s)
	}
	return g, nil
}
