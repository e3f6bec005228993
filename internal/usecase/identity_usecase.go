package usecase

import (
	"context"

	"expert-backend/internal/domain"
	"expert-backend/pkg/apperror"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/metrics"
	"expert-backend/pkg/security"
)

type identityUsecase struct {
	userRepo domain.UserRepository
	provider domain.IdentityProvider
}

func NewIdentityUsecase(userRepo domain.UserRepository, provider domain.IdentityProvider) domain.IdentityUsecase {
	return &identityUsecase{
		userRepo: userRepo,
		provider: provider,
	}
}

// Resolve maps an authenticated subject to a local user. The id lookup
// always wins; the email fallback runs only when it misses, and a failing
// identity provider degrades to NotFound instead of an error.
func (u *identityUsecase) Resolve(ctx context.Context, subjectID string) (domain.Resolution, error) {
	if subjectID == "" {
		metrics.ResolverOutcomes.WithLabelValues("unauthenticated").Inc()
		return domain.Resolution{Status: domain.ResolutionUnauthenticated}, nil
	}

	user, err := u.userRepo.GetByID(ctx, subjectID)
	if err != nil {
		return domain.Resolution{}, apperror.Internal(err)
	}
	if user != nil {
		metrics.ResolverOutcomes.WithLabelValues("found_by_id").Inc()
		return domain.Resolution{Status: domain.ResolutionFound, User: user, MatchedBy: domain.MatchByID}, nil
	}

	email, ok := u.fallbackEmail(ctx, subjectID)
	if !ok {
		metrics.ResolverOutcomes.WithLabelValues("not_found").Inc()
		return domain.Resolution{Status: domain.ResolutionNotFound}, nil
	}

	user, err = u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return domain.Resolution{}, apperror.Internal(err)
	}
	if user == nil {
		metrics.ResolverOutcomes.WithLabelValues("not_found").Inc()
		return domain.Resolution{Status: domain.ResolutionNotFound}, nil
	}

	logger.Log.Debug("Resolved user by email fallback", "subject", security.HashValue(subjectID))
	metrics.ResolverOutcomes.WithLabelValues("found_by_email").Inc()
	return domain.Resolution{Status: domain.ResolutionFound, User: user, MatchedBy: domain.MatchByEmail}, nil
}

// fallbackEmail returns the subject's first registered address from the
// identity provider. ok is false when the provider failed or has no address.
func (u *identityUsecase) fallbackEmail(ctx context.Context, subjectID string) (string, bool) {
	if u.provider == nil {
		return "", false
	}

	res := u.provider.GetUser(ctx, subjectID)
	if res.Err != nil {
		metrics.IdentityProviderFailures.Inc()
		logger.Log.Warn("Identity provider lookup failed, skipping email fallback",
			"subject", security.HashValue(subjectID), "error", res.Err)
		security.DefaultLogger().LogProviderUnavailable(ctx, subjectID, "resolve", res.Err)
		return "", false
	}

	email := res.Profile.FirstEmail()
	return email, email != ""
}

func (u *identityUsecase) OnboardingStatus(ctx context.Context, subjectID string) (domain.Resolution, *domain.OnboardingStatus, error) {
	res, err := u.Resolve(ctx, subjectID)
	if err != nil {
		return res, nil, err
	}
	return res, &domain.OnboardingStatus{NeedsSetup: NeedsSetup(res)}, nil
}

func (u *identityUsecase) AdminStatus(ctx context.Context, subjectID string) (domain.Resolution, *domain.AdminStatus, error) {
	res, err := u.Resolve(ctx, subjectID)
	if err != nil {
		return res, nil, err
	}
	return res, &domain.AdminStatus{IsAdmin: IsPrivileged(res)}, nil
}

// NeedsSetup reports whether the caller must finish onboarding. Missing
// users count as pending because their row is created asynchronously.
func NeedsSetup(res domain.Resolution) bool {
	if res.Status != domain.ResolutionFound || res.User == nil {
		return true
	}
	return res.User.Role == domain.RoleAdmin && !res.User.HasTeam()
}

// IsPrivileged reports whether the caller may use administrative surfaces.
// Only the exact admin role passes; superadmin is a distinct role here.
func IsPrivileged(res domain.Resolution) bool {
	if res.Status != domain.ResolutionFound || res.User == nil {
		return false
	}
	return res.User.Role == domain.RoleAdmin
}
