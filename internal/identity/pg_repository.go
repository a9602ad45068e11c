package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
	q    pgQuerier
	inTx bool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool, q: pool}
}

func (r *PgRepository) InTx(ctx context.Context, fn func(r Repository) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PgRepository{pool: r.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const userColumns = "id, username, email, first_name, last_name, role, role_id, password_hash, created_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.RoleID,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1
	`, username)
	return scanUser(row)
}

func (r *PgRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByRole(ctx context.Context, role string, roleID int64) (*User, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1 AND role_id = $2
	`, role, roleID)
	return scanUser(row)
}

func (r *PgRepository) CreateUser(ctx context.Context, u *User) (*User, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, role, role_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING `+userColumns+`
	`, u.Username, u.Email, u.FirstName, u.LastName, u.Role, u.RoleID, u.PasswordHash)
	return scanUser(row)
}

func (r *PgRepository) CreatePatientProfile(ctx context.Context, p PatientProfile) (int64, error) {
	var id int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO patients (region, exempt, remaining, birth_date, address, phone, company_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.Region, p.Exempt, p.Remaining, p.BirthDate, p.Address, p.Phone, p.CompanyID).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
