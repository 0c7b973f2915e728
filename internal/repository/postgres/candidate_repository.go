package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dalada-backend/internal/client"
	"dalada-backend/internal/model"
	"dalada-backend/internal/util"
)

// ErrProfileNotFound is returned by mutation methods that target a profile
// which does not exist.
var ErrProfileNotFound = errors.New("profile not found")

type CandidateRepo struct {
	client *client.PostgresClient
}

func NewCandidateRepository(client *client.PostgresClient) *CandidateRepo {
	return &CandidateRepo{client: client}
}

const candidateColumns = `id, user_id, full_name, age, city, country, experience, skills,
	education, desired_role, salary, timezones, photo_url, resume_url, certificate_urls,
	video_url, created_at, updated_at`

func scanCandidate(row pgx.Row) (*model.CandidateProfile, error) {
	p := &model.CandidateProfile{}
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Age, &p.City, &p.Country,
		&p.Experience, &p.Skills, &p.Education, &p.DesiredRole, &p.Salary,
		&p.Timezones, &p.PhotoURL, &p.ResumeURL, &p.CertificateURLs,
		&p.VideoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create inserts the profile and its languages in one transaction and returns
// the stored profile with languages attached.
func (r *CandidateRepo) Create(ctx context.Context, profile *model.CandidateProfile, languages []model.CandidateLanguage) (*model.CandidateProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	tx, err := r.client.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO candidate_profiles (id, user_id, full_name, age, city, country, experience,
			skills, education, desired_role, salary, timezones, photo_url, resume_url,
			certificate_urls, video_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		profile.ID, profile.UserID, profile.FullName, profile.Age, profile.City,
		profile.Country, profile.Experience, sliceOrEmpty(profile.Skills), profile.Education,
		profile.DesiredRole, profile.Salary, sliceOrEmpty(profile.Timezones), profile.PhotoURL,
		profile.ResumeURL, sliceOrEmpty(profile.CertificateURLs), profile.VideoURL,
		profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		util.Error("Failed to create candidate profile",
			zap.String("user_id", profile.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create candidate profile: %w", err)
	}

	if err := insertLanguages(ctx, tx, profile.ID, languages); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit candidate profile: %w", err)
	}

	return r.GetByUserID(ctx, profile.UserID)
}

// GetByUserID returns the profile with its languages, or nil when absent.
func (r *CandidateRepo) GetByUserID(ctx context.Context, userID string) (*model.CandidateProfile, error) {
	p, err := scanCandidate(r.client.Pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidate_profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate profile: %w", err)
	}
	if p == nil {
		return nil, nil
	}

	rows, err := r.client.Pool.Query(ctx, `
		SELECT id, candidate_id, language, level
		FROM candidate_languages
		WHERE candidate_id = $1
		ORDER BY language`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate languages: %w", err)
	}
	defer rows.Close()

	p.Languages = []model.CandidateLanguage{}
	for rows.Next() {
		var l model.CandidateLanguage
		if err := rows.Scan(&l.ID, &l.CandidateID, &l.Language, &l.Level); err != nil {
			return nil, fmt.Errorf("failed to scan candidate language: %w", err)
		}
		p.Languages = append(p.Languages, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate languages: %w", err)
	}
	return p, nil
}

// Update writes the merged profile and, when replaceLanguages is set, swaps
// the language list inside the same transaction so a partial failure leaves
// prior state intact.
func (r *CandidateRepo) Update(ctx context.Context, profile *model.CandidateProfile, languages []model.CandidateLanguage, replaceLanguages bool) (*model.CandidateProfile, error) {
	profile.UpdatedAt = time.Now().UTC()

	tx, err := r.client.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE candidate_profiles
		SET full_name = $2, age = $3, city = $4, country = $5, experience = $6,
			skills = $7, education = $8, desired_role = $9, salary = $10, timezones = $11,
			photo_url = $12, resume_url = $13, certificate_urls = $14, video_url = $15,
			updated_at = $16
		WHERE user_id = $1`,
		profile.UserID, profile.FullName, profile.Age, profile.City, profile.Country,
		profile.Experience, sliceOrEmpty(profile.Skills), profile.Education, profile.DesiredRole,
		profile.Salary, sliceOrEmpty(profile.Timezones), profile.PhotoURL, profile.ResumeURL,
		sliceOrEmpty(profile.CertificateURLs), profile.VideoURL, profile.UpdatedAt)
	if err != nil {
		util.Error("Failed to update candidate profile",
			zap.String("user_id", profile.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update candidate profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}

	if replaceLanguages {
		if _, err := tx.Exec(ctx,
			`DELETE FROM candidate_languages WHERE candidate_id = $1`, profile.ID); err != nil {
			return nil, fmt.Errorf("failed to clear candidate languages: %w", err)
		}
		if err := insertLanguages(ctx, tx, profile.ID, languages); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit candidate profile update: %w", err)
	}

	return r.GetByUserID(ctx, profile.UserID)
}

func (r *CandidateRepo) DeleteByUserID(ctx context.Context, userID string) error {
	// candidate_languages rows go with the profile via ON DELETE CASCADE.
	tag, err := r.client.Pool.Exec(ctx,
		`DELETE FROM candidate_profiles WHERE user_id = $1`, userID)
	if err != nil {
		util.Error("Failed to delete candidate profile",
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to delete candidate profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	util.Info("Candidate profile deleted", zap.String("user_id", userID))
	return nil
}

func (r *CandidateRepo) UpsertLanguage(ctx context.Context, candidateID string, lang model.CandidateLanguage) (*model.CandidateLanguage, error) {
	saved := &model.CandidateLanguage{}
	err := r.client.Pool.QueryRow(ctx, `
		INSERT INTO candidate_languages (id, candidate_id, language, level)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (candidate_id, language) DO UPDATE SET level = EXCLUDED.level
		RETURNING id, candidate_id, language, level`,
		uuid.New().String(), candidateID, lang.Language, lang.Level).Scan(
		&saved.ID, &saved.CandidateID, &saved.Language, &saved.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert candidate language: %w", err)
	}
	return saved, nil
}

func (r *CandidateRepo) DeleteLanguage(ctx context.Context, candidateID, language string) error {
	tag, err := r.client.Pool.Exec(ctx,
		`DELETE FROM candidate_languages WHERE candidate_id = $1 AND language = $2`,
		candidateID, language)
	if err != nil {
		return fmt.Errorf("failed to delete candidate language: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *CandidateRepo) SetResumeURL(ctx context.Context, userID string, url *string) error {
	return r.setField(ctx, userID, "resume_url", url)
}

func (r *CandidateRepo) SetVideoURL(ctx context.Context, userID string, url *string) error {
	return r.setField(ctx, userID, "video_url", url)
}

func (r *CandidateRepo) SetPhotoURL(ctx context.Context, userID string, url *string) error {
	return r.setField(ctx, userID, "photo_url", url)
}

func (r *CandidateRepo) AddCertificate(ctx context.Context, userID, url string) error {
	return r.arrayOp(ctx, userID, "certificate_urls", "array_append", url)
}

func (r *CandidateRepo) RemoveCertificate(ctx context.Context, userID, url string) error {
	return r.arrayOp(ctx, userID, "certificate_urls", "array_remove", url)
}

func (r *CandidateRepo) AddTimezone(ctx context.Context, userID, timezone string) error {
	return r.arrayOp(ctx, userID, "timezones", "array_append", timezone)
}

func (r *CandidateRepo) RemoveTimezone(ctx context.Context, userID, timezone string) error {
	return r.arrayOp(ctx, userID, "timezones", "array_remove", timezone)
}

func (r *CandidateRepo) setField(ctx context.Context, userID, column string, url *string) error {
	tag, err := r.client.Pool.Exec(ctx,
		`UPDATE candidate_profiles SET `+column+` = $2, updated_at = now() WHERE user_id = $1`,
		userID, url)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *CandidateRepo) arrayOp(ctx context.Context, userID, column, fn, value string) error {
	tag, err := r.client.Pool.Exec(ctx,
		`UPDATE candidate_profiles SET `+column+` = `+fn+`(`+column+`, $2), updated_at = now() WHERE user_id = $1`,
		userID, value)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func insertLanguages(ctx context.Context, tx pgx.Tx, candidateID string, languages []model.CandidateLanguage) error {
	for _, l := range languages {
		_, err := tx.Exec(ctx, `
			INSERT INTO candidate_languages (id, candidate_id, language, level)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (candidate_id, language) DO NOTHING`,
			uuid.New().String(), candidateID, l.Language, l.Level)
		if err != nil {
			return fmt.Errorf("failed to insert candidate language: %w", err)
		}
	}
	return nil
}

// sliceOrEmpty keeps array columns non-null; pgx would otherwise write NULL
// for a nil slice.
func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
