package postgres

import (
	"context"
	"errors"

	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type teamRepo struct {
	db *pgxpool.Pool
}

func NewTeamRepository(db *pgxpool.Pool) domain.TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) CreateForUser(ctx context.Context, team *domain.Team, userID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperror.Internal(err)
	}
	defer tx.Rollback(ctx)

	// Lock the owner row so concurrent requests cannot both attach a team.
	var current *string
	err = tx.QueryRow(ctx, `SELECT team_id::text FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound("User not found")
	}
	if err != nil {
		return apperror.Internal(err)
	}
	if current != nil {
		return apperror.Conflict("User already belongs to a team")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO teams (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		team.ID, team.Name, team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return apperror.Internal(err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET team_id = $1, updated_at = $2 WHERE id = $3`,
		team.ID, team.UpdatedAt, userID,
	)
	if err != nil {
		return apperror.Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	var team domain.Team
	err := r.db.QueryRow(ctx,
		`SELECT id::text, name, created_at, updated_at FROM teams WHERE id = $1`, id,
	).Scan(&team.ID, &team.Name, &team.CreatedAt, &team.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}
