package postgres

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	kpool "github.com/comses/citation/pkg/conn/db/postgres/pool"
	"github.com/comses/citation/pkg/conn/db/postgres/scanner"
	"github.com/comses/citation/pkg/domain"
	kdb "github.com/comses/citation/pkg/domain/curator/db"
	kpgerr "github.com/comses/citation/pkg/domain/errors/dberrors/postgres"
	"github.com/comses/citation/pkg/utils/slices"
)

type pgCurator struct { // implements kdb.CuratorInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) kdb.CuratorInterface {
	return &pgCurator{pool: pool}
}

const hashScheme = "sha256"

// saltedHash renders the stored form of a password, "sha256$<salt>$<hex>".
func saltedHash(salt string, password string) string {
	digest := sha256.Sum256([]byte(salt + password))
	return strings.Join(
		[]string{hashScheme, salt, hex.EncodeToString(digest[:])}, "$",
	)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return saltedHash(hex.EncodeToString(salt), password), nil
}

func passwordMatches(stored string, password string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 || parts[0] != hashScheme {
		return false
	}
	given := saltedHash(parts[1], password)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

type curatorRow struct {
	Id          int
	Username    string
	Password    string
	Email       string
	IsActive    bool
	IsSuperuser bool
	DateJoined  time.Time
}

func (r curatorRow) account() domain.Curator {
	return domain.Curator{
		Id:          r.Id,
		Username:    r.Username,
		Email:       r.Email,
		IsActive:    r.IsActive,
		IsSuperuser: r.IsSuperuser,
		DateJoined:  r.DateJoined,
	}
}

const curatorColumns = `"id", "username", "password", "email", "is_active", "is_superuser", "date_joined"`

func (c *pgCurator) Verify(ctx context.Context, username string, password string) (domain.Curator, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return domain.Curator{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[curatorRow]().QueryAll(
		ctx, conn,
		`select `+curatorColumns+` from "curator" where "username" = $1`,
		username,
	)
	if err != nil {
		return domain.Curator{}, err
	}

	if len(rows) == 0 || !rows[0].IsActive || !passwordMatches(rows[0].Password, password) {
		// one answer for every way to fail
		return domain.Curator{}, kpgerr.Missing{
			Table: "curator", Identity: fmt.Sprintf("username=%s", username),
		}
	}
	return rows[0].account(), nil
}

func (c *pgCurator) Get(ctx context.Context, username string) (domain.Curator, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return domain.Curator{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[curatorRow]().QueryAll(
		ctx, conn,
		`select `+curatorColumns+` from "curator" where "username" = $1`,
		username,
	)
	if err != nil {
		return domain.Curator{}, err
	}
	if len(rows) == 0 {
		return domain.Curator{}, kpgerr.Missing{
			Table: "curator", Identity: fmt.Sprintf("username=%s", username),
		}
	}
	return rows[0].account(), nil
}

func (c *pgCurator) List(ctx context.Context) ([]domain.Curator, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := scanner.New[curatorRow]().QueryAll(
		ctx, conn,
		`select `+curatorColumns+` from "curator" order by "date_joined", "id"`,
	)
	if err != nil {
		return nil, err
	}
	return slices.Map(rows, curatorRow.account), nil
}

func (c *pgCurator) Register(ctx context.Context, spec kdb.NewCurator) (domain.Curator, error) {
	if spec.Username == "" || spec.Password == "" {
		return domain.Curator{}, kdb.ErrEmptyCredential
	}
	hash, err := hashPassword(spec.Password)
	if err != nil {
		return domain.Curator{}, err
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return domain.Curator{}, err
	}
	defer conn.Release()

	rows, err := scanner.New[curatorRow]().QueryAll(
		ctx, conn,
		`
		insert into "curator"
			("username", "password", "email", "first_name", "last_name", "is_superuser")
		values ($1, $2, $3, $4, $5, $6)
		returning `+curatorColumns,
		spec.Username, hash, spec.Email, spec.FirstName, spec.LastName, spec.IsSuperuser,
	)
	if err != nil {
		return domain.Curator{}, err
	}
	return rows[0].account(), nil
}

func (c *pgCurator) SetPassword(ctx context.Context, username string, password string) error {
	if password == "" {
		return kdb.ErrEmptyCredential
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx, `update "curator" set "password" = $2 where "username" = $1`,
		username, hash,
	)
	if err != nil {
		return err
	}
	if ctag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "curator", Identity: fmt.Sprintf("username=%s", username),
		}
	}
	return nil
}

func (c *pgCurator) SetActive(ctx context.Context, username string, active bool) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx, `update "curator" set "is_active" = $2 where "username" = $1`,
		username, active,
	)
	if err != nil {
		return err
	}
	if ctag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "curator", Identity: fmt.Sprintf("username=%s", username),
		}
	}
	return nil
}
