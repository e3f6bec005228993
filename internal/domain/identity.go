package domain

import (
	"context"
	"strings"
)

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// IdentityProfile is the auth provider's view of a subject. The same shape
// is used by the backend API and by webhook payloads.
type IdentityProfile struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
}

// FirstEmail returns the first registered address, or "" if there is none.
func (p *IdentityProfile) FirstEmail() string {
	if p == nil || len(p.EmailAddresses) == 0 {
		return ""
	}
	return p.EmailAddresses[0].EmailAddress
}

// PrimaryEmail returns the address flagged as primary, falling back to the
// first registered address.
func (p *IdentityProfile) PrimaryEmail() string {
	if p == nil {
		return ""
	}
	for _, e := range p.EmailAddresses {
		if e.ID != "" && e.ID == p.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	return p.FirstEmail()
}

func (p *IdentityProfile) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ProfileResult is the outcome of a profile fetch. Exactly one of Profile
// and Err is set.
type ProfileResult struct {
	Profile *IdentityProfile
	Err     error
}

func (r ProfileResult) OK() bool {
	return r.Err == nil && r.Profile != nil
}

// IdentityProvider fetches subject profiles from the auth provider.
type IdentityProvider interface {
	GetUser(ctx context.Context, subjectID string) ProfileResult
}

// ResolutionStatus tags the outcome of identity resolution.
type ResolutionStatus int

const (
	ResolutionUnauthenticated ResolutionStatus = iota
	ResolutionFound
	ResolutionNotFound
)

func (s ResolutionStatus) String() string {
	switch s {
	case ResolutionUnauthenticated:
		return "unauthenticated"
	case ResolutionFound:
		return "found"
	case ResolutionNotFound:
		return "not_found"
	}
	return "unknown"
}

// MatchSource records which key located the user.
type MatchSource string

const (
	MatchByID    MatchSource = "id"
	MatchByEmail MatchSource = "email"
)

// Resolution is the result of mapping a subject id to a local user.
// User and MatchedBy are only set when Status is ResolutionFound.
type Resolution struct {
	Status    ResolutionStatus
	User      *User
	MatchedBy MatchSource
}

func (r Resolution) Authenticated() bool {
	return r.Status != ResolutionUnauthenticated
}

type OnboardingStatus struct {
	NeedsSetup bool `json:"needsSetup"`
}

type AdminStatus struct {
	IsAdmin bool `json:"isAdmin"`
}

type MergeResult struct {
	Merged bool `json:"merged"`
}

type IdentityUsecase interface {
	Resolve(ctx context.Context, subjectID string) (Resolution, error)
	OnboardingStatus(ctx context.Context, subjectID string) (Resolution, *OnboardingStatus, error)
	AdminStatus(ctx context.Context, subjectID string) (Resolution, *AdminStatus, error)
}

type AccountUsecase interface {
	// MergeUserByEmail makes subjectID the owner of the row registered under
	// email. It reports whether a placeholder row was merged and whether a
	// brand-new row was inserted.
	MergeUserByEmail(ctx context.Context, subjectID, email, fullName string) (merged bool, created bool, err error)
	MergeCurrentUser(ctx context.Context, subjectID string) (*MergeResult, error)
	SyncFromProvider(ctx context.Context, subjectID string) error
	CreateTeam(ctx context.Context, subjectID string, req *CreateTeamRequest) (*Team, error)
	DeleteUser(ctx context.Context, id string) error
}
