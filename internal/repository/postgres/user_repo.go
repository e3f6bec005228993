package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes
const (
	pgUniqueViolation = "23505"
)

const userColumns = `id, email, name, role, team_id::text, created_at, updated_at`

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.TeamID, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) FindByEmailInsensitive(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
              WHERE LOWER(email) = LOWER($1)
              ORDER BY created_at ASC
              LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepo) Upsert(ctx context.Context, user *domain.User) (bool, error) {
	// xmax is zero only for freshly inserted tuples.
	query := `INSERT INTO users (id, email, name, role, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (id) DO UPDATE SET
                  email = EXCLUDED.email,
                  name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
                  updated_at = EXCLUDED.updated_at
              RETURNING (xmax = 0)`

	var inserted bool
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.CreatedAt, user.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return false, apperror.Conflict("User with this email already exists")
		}
		return false, err
	}
	return inserted, nil
}

// ReplacePlaceholder frees the placeholder's email first so the unique
// index never sees two rows with the same address.
func (r *userRepo) ReplacePlaceholder(ctx context.Context, placeholderID string, user *domain.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tempEmail := fmt.Sprintf("migrating+%d@placeholder.local", time.Now().UnixNano())
	tag, err := tx.Exec(ctx, `UPDATE users SET email = $1 WHERE id = $2`, tempEmail, placeholderID)
	if err != nil {
		return fmt.Errorf("failed to release placeholder email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("placeholder %s no longer exists", placeholderID)
	}

	upsert := `INSERT INTO users (id, email, name, role, team_id, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               ON CONFLICT (id) DO UPDATE SET
                   email = EXCLUDED.email,
                   name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
                   role = EXCLUDED.role,
                   team_id = EXCLUDED.team_id,
                   updated_at = EXCLUDED.updated_at`
	_, err = tx.Exec(ctx, upsert,
		user.ID, user.Email, user.Name, user.Role, user.TeamID, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subject row: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, placeholderID); err != nil {
		return fmt.Errorf("failed to delete placeholder: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Log.Info("Placeholder user replaced", "placeholder_id", placeholderID)
	return nil
}

// Delete is a no-op for unknown ids.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
