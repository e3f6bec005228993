package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/metrics"
	"expert-backend/pkg/security"
	"expert-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type accountUsecase struct {
	userRepo domain.UserRepository
	teamRepo domain.TeamRepository
	provider domain.IdentityProvider
	mailer   domain.Mailer
	validate *validator.Validate
	baseURL  string
	now      func() time.Time
}

func NewAccountUsecase(
	userRepo domain.UserRepository,
	teamRepo domain.TeamRepository,
	provider domain.IdentityProvider,
	mailer domain.Mailer,
	validate *validator.Validate,
	baseURL string,
) domain.AccountUsecase {
	return &accountUsecase{
		userRepo: userRepo,
		teamRepo: teamRepo,
		provider: provider,
		mailer:   mailer,
		validate: validate,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

func (u *accountUsecase) MergeUserByEmail(ctx context.Context, subjectID, email, fullName string) (bool, bool, error) {
	if subjectID == "" || email == "" {
		return false, false, apperror.BadRequest("Subject id and email are required")
	}
	now := u.now()

	existing, err := u.userRepo.FindByEmailInsensitive(ctx, email)
	if err != nil {
		return false, false, apperror.Internal(err)
	}

	if existing != nil && existing.ID != subjectID {
		user := &domain.User{
			ID:        subjectID,
			Email:     email,
			Name:      fullName,
			Role:      existing.Role,
			TeamID:    existing.TeamID,
			CreatedAt: existing.CreatedAt,
			UpdatedAt: now,
		}
		if err := u.userRepo.ReplacePlaceholder(ctx, existing.ID, user); err != nil {
			return false, false, apperror.Internal(err)
		}
		security.DefaultLogger().LogAccountMerged(ctx, subjectID, existing.ID, email)
		return true, false, nil
	}

	user := &domain.User{
		ID:        subjectID,
		Email:     email,
		Name:      fullName,
		Role:      domain.DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := u.userRepo.Upsert(ctx, user)
	if err != nil {
		return false, false, storeError(err)
	}
	return false, created, nil
}

func (u *accountUsecase) MergeCurrentUser(ctx context.Context, subjectID string) (*domain.MergeResult, error) {
	if subjectID == "" {
		return nil, apperror.Unauthorized("Authentication required")
	}

	profile, err := u.fetchProfile(ctx, subjectID, "merge")
	if err != nil {
		return nil, err
	}

	email := profile.FirstEmail()
	if email == "" {
		return &domain.MergeResult{Merged: false}, nil
	}

	merged, _, err := u.MergeUserByEmail(ctx, subjectID, email, profile.FullName())
	if err != nil {
		return nil, err
	}
	return &domain.MergeResult{Merged: merged}, nil
}

// SyncFromProvider runs the email merge for a subject seen at sign-in. It is
// a fallback for lost user.created deliveries, so provider failures are
// logged and swallowed.
func (u *accountUsecase) SyncFromProvider(ctx context.Context, subjectID string) error {
	profile, err := u.fetchProfile(ctx, subjectID, "session_sync")
	if err != nil {
		return nil
	}

	email := profile.FirstEmail()
	if email == "" {
		return nil
	}

	_, _, err = u.MergeUserByEmail(ctx, subjectID, email, profile.FullName())
	return err
}

func (u *accountUsecase) CreateTeam(ctx context.Context, subjectID string, req *domain.CreateTeamRequest) (*domain.Team, error) {
	if subjectID == "" {
		return nil, apperror.Unauthorized("Authentication required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := u.validate.Struct(req); err != nil {
		return nil, apperror.BadRequest("Validation failed: " + strings.Join(validation.FormatValidationErrors(err), "; "))
	}

	profile, err := u.fetchProfile(ctx, subjectID, "create_team")
	if err != nil {
		return nil, err
	}

	email := profile.FirstEmail()
	if email == "" {
		return nil, apperror.BadRequest("Account has no email address")
	}

	// Ensure a single row exists for this subject before attaching the team.
	if _, _, err := u.MergeUserByEmail(ctx, subjectID, email, profile.FullName()); err != nil {
		return nil, err
	}

	now := u.now()
	team := &domain.Team{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.teamRepo.CreateForUser(ctx, team, subjectID); err != nil {
		return nil, err
	}

	logger.Log.Info("Team created", "team_id", team.ID, "subject", security.HashValue(subjectID))

	if u.mailer != nil && u.mailer.IsConfigured() {
		err := u.mailer.SendTeamReadyEmail(domain.TeamReadyEmailData{
			To:            email,
			Greeting:      greeting(profile.FullName()),
			TeamName:      team.Name,
			DashboardLink: u.baseURL + "/en/overview",
		})
		if err != nil {
			logger.Log.Warn("Failed to send team ready email", "team_id", team.ID, "error", err)
		}
	}

	return team, nil
}

func (u *accountUsecase) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return apperror.BadRequest("User id is required")
	}
	if err := u.userRepo.Delete(ctx, id); err != nil {
		return apperror.Internal(err)
	}
	security.DefaultLogger().LogAccountDeleted(ctx, id)
	return nil
}

func (u *accountUsecase) fetchProfile(ctx context.Context, subjectID, operation string) (*domain.IdentityProfile, error) {
	if u.provider == nil {
		return nil, apperror.BadGateway("Identity provider unavailable", nil)
	}
	res := u.provider.GetUser(ctx, subjectID)
	if !res.OK() {
		metrics.IdentityProviderFailures.Inc()
		if res.Err != nil {
			security.DefaultLogger().LogProviderUnavailable(ctx, subjectID, operation, res.Err)
		}
		logger.Log.Warn("Identity provider lookup failed", "operation", operation, "error", res.Err)
		return nil, apperror.BadGateway("Identity provider unavailable", res.Err)
	}
	return res.Profile, nil
}

// storeError keeps classified repository errors and hides the rest.
func storeError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Internal(err)
}

func greeting(fullName string) string {
	if fullName == "" {
		return "Hello"
	}
	return "Hello " + fullName
}
