package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dalada-backend/internal/model"
	"dalada-backend/internal/repository/postgres"
	"dalada-backend/internal/util"
)

// LanguageInput is a language entry as clients send it. Level is normalized
// against the CEFR enum before it reaches storage.
type LanguageInput struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// CandidateProfileInput covers both create (POST) and merge-patch update
// (PUT). On update, nil fields keep their stored value; a non-nil Languages
// slice replaces the stored list wholesale.
type CandidateProfileInput struct {
	FullName        *string         `json:"fullName"`
	Age             *int            `json:"age"`
	City            *string         `json:"city"`
	Country         *string         `json:"country"`
	Experience      *string         `json:"experience"`
	Skills          []string        `json:"skills"`
	Education       *string         `json:"education"`
	DesiredRole     *string         `json:"desiredRole"`
	Salary          *int            `json:"salary"`
	Timezones       []string        `json:"timezones"`
	PhotoURL        *string         `json:"photoUrl"`
	ResumeURL       *string         `json:"resumeUrl"`
	CertificateURLs []string        `json:"certificateUrls"`
	VideoURL        *string         `json:"videoUrl"`
	Languages       []LanguageInput `json:"languages"`
}

// EmployerProfileInput mirrors CandidateProfileInput for employers.
type EmployerProfileInput struct {
	CompanyName *string `json:"companyName"`
	Industry    *string `json:"industry"`
	ContactName *string `json:"contactName"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Description *string `json:"description"`
	LegalInfo   *string `json:"legalInfo"`
	LogoURL     *string `json:"logoUrl"`
}

// ProfileService implements candidate and employer profile CRUD plus the
// attachment sub-resources hanging off each profile.
type ProfileService struct {
	candidates postgres.CandidateRepository
	employers  postgres.EmployerRepository
	logger     *zap.Logger
}

func NewProfileService(
	candidates postgres.CandidateRepository,
	employers postgres.EmployerRepository,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		candidates: candidates,
		employers:  employers,
		logger:     logger,
	}
}

// mapRepoErr translates the repository's missing-row sentinel into the
// service-level not-found error handlers already know.
func mapRepoErr(err error) error {
	if errors.Is(err, postgres.ErrProfileNotFound) {
		return fmt.Errorf("%w: profile not found", ErrNotFound)
	}
	return err
}

func normalizeLanguages(inputs []LanguageInput) ([]model.CandidateLanguage, error) {
	languages := make([]model.CandidateLanguage, 0, len(inputs))
	for _, in := range inputs {
		lang := strings.TrimSpace(in.Language)
		if lang == "" {
			return nil, fmt.Errorf("%w: language name is required", ErrInvalidRequest)
		}
		level, ok := model.NormalizeLanguageLevel(in.Level)
		if !ok {
			return nil, fmt.Errorf("%w: invalid language level %q", ErrInvalidRequest, in.Level)
		}
		languages = append(languages, model.CandidateLanguage{Language: lang, Level: level})
	}
	return languages, nil
}

// -------------------- CANDIDATE --------------------

func (s *ProfileService) CreateCandidate(ctx context.Context, userID string, in *CandidateProfileInput) (*model.CandidateProfile, error) {
	if in.FullName == nil || strings.TrimSpace(*in.FullName) == "" {
		return nil, fmt.Errorf("%w: fullName is required", ErrInvalidRequest)
	}

	existing, err := s.candidates.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: candidate profile already exists", ErrConflict)
	}

	languages, err := normalizeLanguages(in.Languages)
	if err != nil {
		return nil, err
	}

	profile := &model.CandidateProfile{
		UserID:          userID,
		FullName:        strings.TrimSpace(*in.FullName),
		Age:             in.Age,
		City:            in.City,
		Country:         in.Country,
		Experience:      in.Experience,
		Skills:          in.Skills,
		Education:       in.Education,
		DesiredRole:     in.DesiredRole,
		Salary:          in.Salary,
		Timezones:       in.Timezones,
		PhotoURL:        in.PhotoURL,
		ResumeURL:       in.ResumeURL,
		CertificateURLs: in.CertificateURLs,
		VideoURL:        in.VideoURL,
	}

	saved, err := s.candidates.Create(ctx, profile, languages)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Candidate profile created", util.String("user_id", userID))
	return saved, nil
}

func (s *ProfileService) GetCandidate(ctx context.Context, userID string) (*model.CandidateProfile, error) {
	profile, err := s.candidates.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: candidate profile not found", ErrNotFound)
	}
	return profile, nil
}

func (s *ProfileService) UpdateCandidate(ctx context.Context, userID string, in *CandidateProfileInput) (*model.CandidateProfile, error) {
	profile, err := s.candidates.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: candidate profile not found", ErrNotFound)
	}

	if in.FullName != nil {
		if strings.TrimSpace(*in.FullName) == "" {
			return nil, fmt.Errorf("%w: fullName must not be empty", ErrInvalidRequest)
		}
		profile.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Age != nil {
		profile.Age = in.Age
	}
	if in.City != nil {
		profile.City = in.City
	}
	if in.Country != nil {
		profile.Country = in.Country
	}
	if in.Experience != nil {
		profile.Experience = in.Experience
	}
	if in.Skills != nil {
		profile.Skills = in.Skills
	}
	if in.Education != nil {
		profile.Education = in.Education
	}
	if in.DesiredRole != nil {
		profile.DesiredRole = in.DesiredRole
	}
	if in.Salary != nil {
		profile.Salary = in.Salary
	}
	if in.Timezones != nil {
		profile.Timezones = in.Timezones
	}
	if in.PhotoURL != nil {
		profile.PhotoURL = in.PhotoURL
	}
	if in.ResumeURL != nil {
		profile.ResumeURL = in.ResumeURL
	}
	if in.CertificateURLs != nil {
		profile.CertificateURLs = in.CertificateURLs
	}
	if in.VideoURL != nil {
		profile.VideoURL = in.VideoURL
	}

	var languages []model.CandidateLanguage
	replaceLanguages := in.Languages != nil
	if replaceLanguages {
		if languages, err = normalizeLanguages(in.Languages); err != nil {
			return nil, err
		}
	}

	saved, err := s.candidates.Update(ctx, profile, languages, replaceLanguages)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.logger.Info("Candidate profile updated", util.String("user_id", userID))
	return saved, nil
}

func (s *ProfileService) DeleteCandidate(ctx context.Context, userID string) error {
	if err := s.candidates.DeleteByUserID(ctx, userID); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// -------------------- CANDIDATE ATTACHMENTS --------------------

func (s *ProfileService) UpsertCandidateLanguage(ctx context.Context, userID string, in LanguageInput) (*model.CandidateLanguage, error) {
	normalized, err := normalizeLanguages([]LanguageInput{in})
	if err != nil {
		return nil, err
	}

	profile, err := s.candidates.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: candidate profile not found", ErrNotFound)
	}

	saved, err := s.candidates.UpsertLanguage(ctx, profile.ID, normalized[0])
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return saved, nil
}

func (s *ProfileService) DeleteCandidateLanguage(ctx context.Context, userID, language string) error {
	if strings.TrimSpace(language) == "" {
		return fmt.Errorf("%w: language name is required", ErrInvalidRequest)
	}

	profile, err := s.candidates.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("%w: candidate profile not found", ErrNotFound)
	}
	return mapRepoErr(s.candidates.DeleteLanguage(ctx, profile.ID, language))
}

func (s *ProfileService) SetCandidateResume(ctx context.Context, userID string, url *string) error {
	if url != nil && strings.TrimSpace(*url) == "" {
		return fmt.Errorf("%w: resumeUrl must not be empty", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.SetResumeURL(ctx, userID, url))
}

func (s *ProfileService) SetCandidateVideo(ctx context.Context, userID string, url *string) error {
	if url != nil && strings.TrimSpace(*url) == "" {
		return fmt.Errorf("%w: videoUrl must not be empty", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.SetVideoURL(ctx, userID, url))
}

func (s *ProfileService) SetCandidatePhoto(ctx context.Context, userID string, url *string) error {
	if url != nil && strings.TrimSpace(*url) == "" {
		return fmt.Errorf("%w: photoUrl must not be empty", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.SetPhotoURL(ctx, userID, url))
}

func (s *ProfileService) AddCandidateCertificate(ctx context.Context, userID, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: certificateUrl is required", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.AddCertificate(ctx, userID, url))
}

func (s *ProfileService) RemoveCandidateCertificate(ctx context.Context, userID, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: certificateUrl is required", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.RemoveCertificate(ctx, userID, url))
}

func (s *ProfileService) ListCandidateTimezones(ctx context.Context, userID string) ([]string, error) {
	profile, err := s.GetCandidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Timezones == nil {
		return []string{}, nil
	}
	return profile.Timezones, nil
}

func (s *ProfileService) AddCandidateTimezone(ctx context.Context, userID, timezone string) error {
	if strings.TrimSpace(timezone) == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.AddTimezone(ctx, userID, timezone))
}

func (s *ProfileService) RemoveCandidateTimezone(ctx context.Context, userID, timezone string) error {
	if strings.TrimSpace(timezone) == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidRequest)
	}
	return mapRepoErr(s.candidates.RemoveTimezone(ctx, userID, timezone))
}

// -------------------- EMPLOYER --------------------

func (s *ProfileService) CreateEmployer(ctx context.Context, userID string, in *EmployerProfileInput) (*model.EmployerProfile, error) {
	if in.CompanyName == nil || strings.TrimSpace(*in.CompanyName) == "" {
		return nil, fmt.Errorf("%w: companyName is required", ErrInvalidRequest)
	}

	existing, err := s.employers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: employer profile already exists", ErrConflict)
	}

	profile := &model.EmployerProfile{
		UserID:      userID,
		CompanyName: strings.TrimSpace(*in.CompanyName),
		Industry:    in.Industry,
		ContactName: in.ContactName,
		Phone:       in.Phone,
		Email:       in.Email,
		Description: in.Description,
		LegalInfo:   in.LegalInfo,
		LogoURL:     in.LogoURL,
	}

	saved, err := s.employers.Create(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Employer profile created", util.String("user_id", userID))
	return saved, nil
}

func (s *ProfileService) GetEmployer(ctx context.Context, userID string) (*model.EmployerProfile, error) {
	profile, err := s.employers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: employer profile not found", ErrNotFound)
	}
	return profile, nil
}

func (s *ProfileService) UpdateEmployer(ctx context.Context, userID string, in *EmployerProfileInput) (*model.EmployerProfile, error) {
	profile, err := s.employers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: employer profile not found", ErrNotFound)
	}

	if in.CompanyName != nil {
		if strings.TrimSpace(*in.CompanyName) == "" {
			return nil, fmt.Errorf("%w: companyName must not be empty", ErrInvalidRequest)
		}
		profile.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.Industry != nil {
		profile.Industry = in.Industry
	}
	if in.ContactName != nil {
		profile.ContactName = in.ContactName
	}
	if in.Phone != nil {
		profile.Phone = in.Phone
	}
	if in.Email != nil {
		profile.Email = in.Email
	}
	if in.Description != nil {
		profile.Description = in.Description
	}
	if in.LegalInfo != nil {
		profile.LegalInfo = in.LegalInfo
	}
	if in.LogoURL != nil {
		profile.LogoURL = in.LogoURL
	}

	saved, err := s.employers.Update(ctx, profile)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.logger.Info("Employer profile updated", util.String("user_id", userID))
	return saved, nil
}

func (s *ProfileService) DeleteEmployer(ctx context.Context, userID string) error {
	if err := s.employers.DeleteByUserID(ctx, userID); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

func (s *ProfileService) SetEmployerLogo(ctx context.Context, userID string, url *string) error {
	if url != nil && strings.TrimSpace(*url) == "" {
		return fmt.Errorf("%w: logoUrl must not be empty", ErrInvalidRequest)
	}
	return mapRepoErr(s.employers.SetLogoURL(ctx, userID, url))
}
