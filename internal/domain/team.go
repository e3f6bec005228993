package domain

import (
	"context"
	"time"
)

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required" validate:"required,min=1,max=120,valid_name,no_emoji"`
}

type TeamRepository interface {
	// CreateForUser inserts the team and attaches userID to it atomically.
	// It fails with a conflict when the user already belongs to a team.
	CreateForUser(ctx context.Context, team *Team, userID string) error
	GetByID(ctx context.Context, id string) (*Team, error)
}
