package user

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/db"
	"storefront/internal/domain"
)

const columns = `id::text, username, email, password_hash, role, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("user_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	q := `
INSERT INTO users (username, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + columns
	created, err := r.scanUser(r.pool.QueryRow(ctx, q,
		strings.TrimSpace(u.Username),
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash,
		string(role),
	))
	if err != nil {
		return nil, err
	}
	r.logger.Info("created user", zap.String("user_id", created.ID))
	return created, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	id, ok := db.CanonicalID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id))
}

func (r *postgresRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	const where = ` FROM users WHERE lower(email) = lower($1) OR lower(username) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+columns+where, strings.TrimSpace(login)))
}

func (r *postgresRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	id, ok := db.CanonicalID(u.ID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.ID = id
	q := `
UPDATE users
SET username = $1,
    email = $2,
    password_hash = $3,
    updated_at = now()
WHERE id = $4
RETURNING ` + columns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		strings.TrimSpace(u.Username),
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash,
		u.ID,
	))
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		err = db.Classify(err)
		if err != domain.ErrNotFound && err != domain.ErrAlreadyExists {
			r.logger.Error("scan user", zap.Error(err))
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
