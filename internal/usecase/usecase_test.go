package usecase_test

import (
	"context"
	"time"

	"expert-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Mock Repositories
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmailInsensitive(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) Upsert(ctx context.Context, user *domain.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) ReplacePlaceholder(ctx context.Context, placeholderID string, user *domain.User) error {
	return m.Called(ctx, placeholderID, user).Error(0)
}

func (m *MockUserRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockTeamRepo struct {
	mock.Mock
}

func (m *MockTeamRepo) CreateForUser(ctx context.Context, team *domain.Team, userID string) error {
	return m.Called(ctx, team, userID).Error(0)
}

func (m *MockTeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetUser(ctx context.Context, subjectID string) domain.ProfileResult {
	return m.Called(ctx, subjectID).Get(0).(domain.ProfileResult)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) IsConfigured() bool {
	return m.Called().Bool(0)
}

func (m *MockMailer) SendWelcomeEmail(data domain.WelcomeEmailData) error {
	return m.Called(data).Error(0)
}

func (m *MockMailer) SendTeamReadyEmail(data domain.TeamReadyEmailData) error {
	return m.Called(data).Error(0)
}

type MockDeliveryStore struct {
	mock.Mock
}

func (m *MockDeliveryStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, id, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeliveryStore) Forget(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockAccountUsecase struct {
	mock.Mock
}

func (m *MockAccountUsecase) MergeUserByEmail(ctx context.Context, subjectID, email, fullName string) (bool, bool, error) {
	args := m.Called(ctx, subjectID, email, fullName)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockAccountUsecase) MergeCurrentUser(ctx context.Context, subjectID string) (*domain.MergeResult, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergeResult), args.Error(1)
}

func (m *MockAccountUsecase) SyncFromProvider(ctx context.Context, subjectID string) error {
	return m.Called(ctx, subjectID).Error(0)
}

func (m *MockAccountUsecase) CreateTeam(ctx context.Context, subjectID string, req *domain.CreateTeamRequest) (*domain.Team, error) {
	args := m.Called(ctx, subjectID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Team), args.Error(1)
}

func (m *MockAccountUsecase) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func profileWithEmails(id string, emails ...string) domain.ProfileResult {
	p := &domain.IdentityProfile{ID: id, FirstName: "Ada", LastName: "Lovelace"}
	for i, e := range emails {
		p.EmailAddresses = append(p.EmailAddresses, domain.EmailAddress{ID: "idn_" + string(rune('a'+i)), EmailAddress: e})
	}
	return domain.ProfileResult{Profile: p}
}

func strPtr(s string) *string {
	return &s
}
