package postgres

import (
	"context"

	"dalada-backend/internal/model"
)

// Get* methods return (nil, nil) when no row matches; an error means a
// database failure. Services map absence to their own domain errors.

// OTPRepository persists passcode challenges.
type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTP) error
	GetLatest(ctx context.Context, identifier string, intent model.Intent) (*model.OTP, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, identifier string, intent model.Intent) error
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// CandidateRepository persists candidate profiles, their languages, and
// attachment URL fields.
type CandidateRepository interface {
	Create(ctx context.Context, profile *model.CandidateProfile, languages []model.CandidateLanguage) (*model.CandidateProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.CandidateProfile, error)
	Update(ctx context.Context, profile *model.CandidateProfile, languages []model.CandidateLanguage, replaceLanguages bool) (*model.CandidateProfile, error)
	DeleteByUserID(ctx context.Context, userID string) error

	UpsertLanguage(ctx context.Context, candidateID string, lang model.CandidateLanguage) (*model.CandidateLanguage, error)
	DeleteLanguage(ctx context.Context, candidateID, language string) error

	SetResumeURL(ctx context.Context, userID string, url *string) error
	SetVideoURL(ctx context.Context, userID string, url *string) error
	SetPhotoURL(ctx context.Context, userID string, url *string) error
	AddCertificate(ctx context.Context, userID, url string) error
	RemoveCertificate(ctx context.Context, userID, url string) error
	AddTimezone(ctx context.Context, userID, timezone string) error
	RemoveTimezone(ctx context.Context, userID, timezone string) error
}

// EmployerRepository persists employer profiles.
type EmployerRepository interface {
	Create(ctx context.Context, profile *model.EmployerProfile) (*model.EmployerProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.EmployerProfile, error)
	Update(ctx context.Context, profile *model.EmployerProfile) (*model.EmployerProfile, error)
	DeleteByUserID(ctx context.Context, userID string) error
	SetLogoURL(ctx context.Context, userID string, url *string) error
}
