package curators

import (
	"github.com/comses/citation/pkg/api/types/misc/rfctime"
)

// Detail is one curator account. Passwords never appear here.
type Detail struct {
	Id          int             `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	IsActive    bool            `json:"is_active"`
	IsSuperuser bool            `json:"is_superuser"`
	DateJoined  rfctime.RFC3339 `json:"date_joined"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Username == o.Username &&
		d.Email == o.Email &&
		d.IsActive == o.IsActive &&
		d.IsSuperuser == o.IsSuperuser &&
		d.DateJoined.Equal(o.DateJoined)
}

// Draft is the request body registering a curator account.
type Draft struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
}

func (d Draft) Equal(o Draft) bool {
	return d == o
}

// PasswordChange is the request body resetting a curator's password.
type PasswordChange struct {
	Password string `json:"password"`
}

func (pc PasswordChange) Equal(o PasswordChange) bool {
	return pc == o
}

// ActiveChange is the request body activating or retiring an account.
type ActiveChange struct {
	IsActive bool `json:"is_active"`
}

func (ac ActiveChange) Equal(o ActiveChange) bool {
	return ac == o
}
