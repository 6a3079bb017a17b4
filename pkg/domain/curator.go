package domain

import "time"

// Curator is an account allowed to call the write API.
//
// Password hashes never leave the database layer.
type Curator struct {
	Id       int
	Username string
	Email    string

	// Inactive curators cannot sign in but keep their history.
	IsActive bool

	// Superusers may manage other curator accounts.
	IsSuperuser bool

	DateJoined time.Time
}

func (c *Curator) Equal(o *Curator) bool {
	if (c == nil) || (o == nil) {
		return (c == nil) && (o == nil)
	}
	return c.Id == o.Id &&
		c.Username == o.Username &&
		c.Email == o.Email &&
		c.IsActive == o.IsActive &&
		c.IsSuperuser == o.IsSuperuser &&
		c.DateJoined.Equal(o.DateJoined)
}
