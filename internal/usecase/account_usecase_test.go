package usecase_test

import (
	"context"
	"errors"
	"testing"

	"expert-backend/internal/domain"
	"expert-backend/internal/usecase"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAccountUsecase(repo *MockUserRepo, teams *MockTeamRepo, provider *MockProvider, mailer *MockMailer) domain.AccountUsecase {
	var m domain.Mailer
	if mailer != nil {
		m = mailer
	}
	return usecase.NewAccountUsecase(repo, teams, provider, m, validation.New(), "https://app.test")
}

func requireAppError(t *testing.T, err error, code int) *apperror.AppError {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestMergeUserByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Should move a placeholder row onto the subject id", func(t *testing.T) {
		repo := new(MockUserRepo)
		placeholder := &domain.User{ID: "seeded-1", Email: "Ada@X.test", Role: domain.RoleAdmin, TeamID: strPtr("team-1")}
		repo.On("FindByEmailInsensitive", mock.Anything, "ada@x.test").Return(placeholder, nil)
		repo.On("ReplacePlaceholder", mock.Anything, "seeded-1", mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == "user_1" && u.Email == "ada@x.test" && u.Role == domain.RoleAdmin &&
				u.TeamID != nil && *u.TeamID == "team-1"
		})).Return(nil)
		uc := newAccountUsecase(repo, new(MockTeamRepo), new(MockProvider), nil)

		merged, created, err := uc.MergeUserByEmail(ctx, "user_1", "ada@x.test", "Ada Lovelace")
		require.NoError(t, err)
		assert.True(t, merged)
		assert.False(t, created)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("Should insert a new row with the default role", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("FindByEmailInsensitive", mock.Anything, "new@x.test").Return(nil, nil)
		repo.On("Upsert", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == "user_2" && u.Role == domain.DefaultRole && u.TeamID == nil
		})).Return(true, nil)
		uc := newAccountUsecase(repo, new(MockTeamRepo), new(MockProvider), nil)

		merged, created, err := uc.MergeUserByEmail(ctx, "user_2", "new@x.test", "")
		require.NoError(t, err)
		assert.False(t, merged)
		assert.True(t, created)
	})

	t.Run("Should upsert when the email already belongs to the subject", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("FindByEmailInsensitive", mock.Anything, "own@x.test").Return(&domain.User{ID: "user_3"}, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(false, nil)
		uc := newAccountUsecase(repo, new(MockTeamRepo), new(MockProvider), nil)

		merged, created, err := uc.MergeUserByEmail(ctx, "user_3", "own@x.test", "Own")
		require.NoError(t, err)
		assert.False(t, merged)
		assert.False(t, created)
		repo.AssertNotCalled(t, "ReplacePlaceholder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should wrap store failures", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("FindByEmailInsensitive", mock.Anything, "x@x.test").Return(nil, errors.New("boom"))
		uc := newAccountUsecase(repo, new(MockTeamRepo), new(MockProvider), nil)

		_, _, err := uc.MergeUserByEmail(ctx, "user_4", "x@x.test", "")
		requireAppError(t, err, 500)
	})

	t.Run("Should reject empty input", func(t *testing.T) {
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), new(MockProvider), nil)

		_, _, err := uc.MergeUserByEmail(ctx, "", "x@x.test", "")
		requireAppError(t, err, 400)
	})
}

func TestMergeCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Should require a subject", func(t *testing.T) {
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), new(MockProvider), nil)

		_, err := uc.MergeCurrentUser(ctx, "")
		requireAppError(t, err, 401)
	})

	t.Run("Should report bad gateway when the provider fails", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_1").Return(domain.ProfileResult{Err: errors.New("503")})
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), provider, nil)

		_, err := uc.MergeCurrentUser(ctx, "user_1")
		requireAppError(t, err, 502)
	})

	t.Run("Should not merge when the subject has no email", func(t *testing.T) {
		repo := new(MockUserRepo)
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_2").Return(profileWithEmails("user_2"))
		uc := newAccountUsecase(repo, new(MockTeamRepo), provider, nil)

		res, err := uc.MergeCurrentUser(ctx, "user_2")
		require.NoError(t, err)
		assert.False(t, res.Merged)
		repo.AssertNotCalled(t, "FindByEmailInsensitive", mock.Anything, mock.Anything)
	})

	t.Run("Should merge using the first address", func(t *testing.T) {
		repo := new(MockUserRepo)
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_3").Return(profileWithEmails("user_3", "first@x.test", "second@x.test"))
		repo.On("FindByEmailInsensitive", mock.Anything, "first@x.test").Return(&domain.User{ID: "seeded", Role: domain.RoleExpert}, nil)
		repo.On("ReplacePlaceholder", mock.Anything, "seeded", mock.Anything).Return(nil)
		uc := newAccountUsecase(repo, new(MockTeamRepo), provider, nil)

		res, err := uc.MergeCurrentUser(ctx, "user_3")
		require.NoError(t, err)
		assert.True(t, res.Merged)
	})
}

func TestSyncFromProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Should swallow provider failures", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_1").Return(domain.ProfileResult{Err: errors.New("down")})
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), provider, nil)

		assert.NoError(t, uc.SyncFromProvider(ctx, "user_1"))
	})

	t.Run("Should merge the subject by email", func(t *testing.T) {
		repo := new(MockUserRepo)
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_2").Return(profileWithEmails("user_2", "b@x.test"))
		repo.On("FindByEmailInsensitive", mock.Anything, "b@x.test").Return(nil, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)
		uc := newAccountUsecase(repo, new(MockTeamRepo), provider, nil)

		require.NoError(t, uc.SyncFromProvider(ctx, "user_2"))
		repo.AssertExpectations(t)
	})
}

func TestCreateTeam(t *testing.T) {
	ctx := context.Background()

	t.Run("Should require a subject", func(t *testing.T) {
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), new(MockProvider), nil)

		_, err := uc.CreateTeam(ctx, "", &domain.CreateTeamRequest{Name: "Acme"})
		requireAppError(t, err, 401)
	})

	t.Run("Should reject blank names", func(t *testing.T) {
		provider := new(MockProvider)
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), provider, nil)

		_, err := uc.CreateTeam(ctx, "user_1", &domain.CreateTeamRequest{Name: "   "})
		requireAppError(t, err, 400)
		provider.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("Should reject names with emoji", func(t *testing.T) {
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), new(MockProvider), nil)

		_, err := uc.CreateTeam(ctx, "user_1", &domain.CreateTeamRequest{Name: "Acme 🚀"})
		appErr := requireAppError(t, err, 400)
		assert.Contains(t, appErr.Message, "Team name")
	})

	t.Run("Should create the team and notify the owner", func(t *testing.T) {
		repo := new(MockUserRepo)
		teams := new(MockTeamRepo)
		provider := new(MockProvider)
		mailer := new(MockMailer)
		provider.On("GetUser", mock.Anything, "user_1").Return(profileWithEmails("user_1", "ada@x.test"))
		repo.On("FindByEmailInsensitive", mock.Anything, "ada@x.test").Return(&domain.User{ID: "user_1", Role: domain.RoleAdmin}, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(false, nil)
		teams.On("CreateForUser", mock.Anything, mock.MatchedBy(func(team *domain.Team) bool {
			return team.Name == "Acme" && team.ID != ""
		}), "user_1").Return(nil)
		mailer.On("IsConfigured").Return(true)
		mailer.On("SendTeamReadyEmail", mock.MatchedBy(func(d domain.TeamReadyEmailData) bool {
			return d.To == "ada@x.test" && d.TeamName == "Acme" && d.DashboardLink == "https://app.test/en/overview"
		})).Return(nil)
		uc := newAccountUsecase(repo, teams, provider, mailer)

		team, err := uc.CreateTeam(ctx, "user_1", &domain.CreateTeamRequest{Name: "  Acme "})
		require.NoError(t, err)
		assert.Equal(t, "Acme", team.Name)
		teams.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})

	t.Run("Should not fail when the email cannot be sent", func(t *testing.T) {
		repo := new(MockUserRepo)
		teams := new(MockTeamRepo)
		provider := new(MockProvider)
		mailer := new(MockMailer)
		provider.On("GetUser", mock.Anything, "user_2").Return(profileWithEmails("user_2", "b@x.test"))
		repo.On("FindByEmailInsensitive", mock.Anything, "b@x.test").Return(nil, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)
		teams.On("CreateForUser", mock.Anything, mock.Anything, "user_2").Return(nil)
		mailer.On("IsConfigured").Return(true)
		mailer.On("SendTeamReadyEmail", mock.Anything).Return(errors.New("smtp down"))
		uc := newAccountUsecase(repo, teams, provider, mailer)

		_, err := uc.CreateTeam(ctx, "user_2", &domain.CreateTeamRequest{Name: "Beta"})
		assert.NoError(t, err)
	})

	t.Run("Should propagate a conflict when the user already has a team", func(t *testing.T) {
		repo := new(MockUserRepo)
		teams := new(MockTeamRepo)
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_3").Return(profileWithEmails("user_3", "c@x.test"))
		repo.On("FindByEmailInsensitive", mock.Anything, "c@x.test").Return(nil, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(false, nil)
		teams.On("CreateForUser", mock.Anything, mock.Anything, "user_3").Return(apperror.Conflict("User already belongs to a team"))
		uc := newAccountUsecase(repo, teams, provider, nil)

		_, err := uc.CreateTeam(ctx, "user_3", &domain.CreateTeamRequest{Name: "Gamma"})
		requireAppError(t, err, 409)
	})

	t.Run("Should reject subjects without an email", func(t *testing.T) {
		provider := new(MockProvider)
		provider.On("GetUser", mock.Anything, "user_4").Return(profileWithEmails("user_4"))
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), provider, nil)

		_, err := uc.CreateTeam(ctx, "user_4", &domain.CreateTeamRequest{Name: "Delta"})
		requireAppError(t, err, 400)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Should delete by id", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("Delete", mock.Anything, "user_1").Return(nil)
		uc := newAccountUsecase(repo, new(MockTeamRepo), new(MockProvider), nil)

		require.NoError(t, uc.DeleteUser(ctx, "user_1"))
		repo.AssertExpectations(t)
	})

	t.Run("Should reject an empty id", func(t *testing.T) {
		uc := newAccountUsecase(new(MockUserRepo), new(MockTeamRepo), new(MockProvider), nil)

		requireAppError(t, uc.DeleteUser(ctx, ""), 400)
	})
}
