package db

import (
	"context"
	"errors"

	"github.com/comses/citation/pkg/domain"
)

// username or password is empty.
var ErrEmptyCredential = errors.New("username and password are required")

// NewCurator is a curator account to be registered.
type NewCurator struct {
	Username    string
	Password    string
	Email       string
	FirstName   string
	LastName    string
	IsSuperuser bool
}

// CuratorInterface manages the accounts allowed to call the write API.
//
// Passwords are stored salted and hashed ("sha256$<salt>$<hex digest>")
// and never read back out.
type CuratorInterface interface {
	// Verify a username and password pair.
	//
	// Args
	//
	// - context.Context
	//
	// - string: username
	//
	// - string: password, in the clear
	//
	// Return
	//
	// - domain.Curator: the account, when the pair checks out.
	//
	// - error: ErrMissing for an unknown username, a wrong password or
	// an inactive account alike. Callers cannot tell which it was.
	Verify(ctx context.Context, username string, password string) (domain.Curator, error)

	// Get an account by username, active or not.
	//
	// Args
	//
	// - context.Context
	//
	// - string: username
	//
	// Return
	//
	// - domain.Curator
	//
	// - error: ErrMissing when no such account exists.
	Get(ctx context.Context, username string) (domain.Curator, error)

	// List every account, in the order they joined.
	List(ctx context.Context) ([]domain.Curator, error)

	// Register a new account.
	//
	// Args
	//
	// - context.Context
	//
	// - NewCurator: the account. Username and Password are required.
	//
	// Return
	//
	// - domain.Curator: the created account, active from the start.
	//
	// - error: ErrEmptyCredential when username or password is empty.
	// A taken username surfaces as a unique violation
	// (dberrors/postgres.IsUniqueViolation).
	Register(ctx context.Context, spec NewCurator) (domain.Curator, error)

	// SetPassword replaces the password of an account.
	//
	// Args
	//
	// - context.Context
	//
	// - string: username
	//
	// - string: the new password, in the clear
	//
	// Return
	//
	// - error: ErrEmptyCredential when the password is empty,
	// ErrMissing when no such account exists.
	SetPassword(ctx context.Context, username string, password string) error

	// SetActive activates or deactivates an account.
	//
	// Args
	//
	// - context.Context
	//
	// - string: username
	//
	// - bool: whether the account may sign in
	//
	// Return
	//
	// - error: ErrMissing when no such account exists.
	SetActive(ctx context.Context, username string, active bool) error
}
