package models

import (
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)

// User is a person who reports, is assigned, or comments on issues.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Validate checks a CreateUserRequest.
func (r *CreateUserRequest) Validate() error {
	v := &ValidationError{}

	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	switch {
	case r.Username == "":
		v.Add("username", "username is required")
	case len(r.Username) > 150:
		v.Add("username", ErrFieldTooLong("username", 150).Error())
	case !usernamePattern.MatchString(r.Username):
		v.Add("username", "username may only contain letters, digits and @.+-_")
	}

	if r.Email != "" && !strings.Contains(r.Email, "@") {
		v.Add("email", "email is not valid")
	}

	return v.OrNil()
}
