package postgres

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"

	domerr "github.com/comses/citation/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s ", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// requested record is found too much.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s more than %d times",
		t.Identity, t.Table, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return domerr.ErrTooMuch
}

// IsUniqueViolation tests whether err is caused by a unique constraint.
//
// When constraint is not empty, the violated constraint should also have that name.
func IsUniqueViolation(err error, constraint string) bool {
	pgerr := new(pgconn.PgError)
	if !errors.As(err, &pgerr) || pgerr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgerr.ConstraintName == constraint
}

// IsUnreachable tests whether err means the database cannot be talked to
// right now: the connection broke, or never came up.
//
// Such errors are worth retrying later; errors a retry cannot cure
// (bad queries, violated constraints) are not unreachable.
func IsUnreachable(err error) bool {
	pgerr := new(pgconn.PgError)
	if errors.As(err, &pgerr) {
		return pgerrcode.IsConnectionException(pgerr.Code) ||
			pgerrcode.IsOperatorIntervention(pgerr.Code)
	}
	var neterr net.Error
	return errors.As(err, &neterr)
}
