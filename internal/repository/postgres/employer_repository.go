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

type EmployerRepo struct {
	client *client.PostgresClient
}

func NewEmployerRepository(client *client.PostgresClient) *EmployerRepo {
	return &EmployerRepo{client: client}
}

const employerColumns = `id, user_id, company_name, industry, contact_name, phone, email,
	description, legal_info, logo_url, created_at, updated_at`

func scanEmployer(row pgx.Row) (*model.EmployerProfile, error) {
	p := &model.EmployerProfile{}
	err := row.Scan(&p.ID, &p.UserID, &p.CompanyName, &p.Industry, &p.ContactName,
		&p.Phone, &p.Email, &p.Description, &p.LegalInfo, &p.LogoURL,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *EmployerRepo) Create(ctx context.Context, profile *model.EmployerProfile) (*model.EmployerProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.client.Pool.Exec(ctx, `
		INSERT INTO employer_profiles (id, user_id, company_name, industry, contact_name,
			phone, email, description, legal_info, logo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		profile.ID, profile.UserID, profile.CompanyName, profile.Industry,
		profile.ContactName, profile.Phone, profile.Email, profile.Description,
		profile.LegalInfo, profile.LogoURL, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		util.Error("Failed to create employer profile",
			zap.String("user_id", profile.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create employer profile: %w", err)
	}
	return profile, nil
}

func (r *EmployerRepo) GetByUserID(ctx context.Context, userID string) (*model.EmployerProfile, error) {
	p, err := scanEmployer(r.client.Pool.QueryRow(ctx,
		`SELECT `+employerColumns+` FROM employer_profiles WHERE user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get employer profile: %w", err)
	}
	return p, nil
}

func (r *EmployerRepo) Update(ctx context.Context, profile *model.EmployerProfile) (*model.EmployerProfile, error) {
	profile.UpdatedAt = time.Now().UTC()

	tag, err := r.client.Pool.Exec(ctx, `
		UPDATE employer_profiles
		SET company_name = $2, industry = $3, contact_name = $4, phone = $5, email = $6,
			description = $7, legal_info = $8, logo_url = $9, updated_at = $10
		WHERE user_id = $1`,
		profile.UserID, profile.CompanyName, profile.Industry, profile.ContactName,
		profile.Phone, profile.Email, profile.Description, profile.LegalInfo,
		profile.LogoURL, profile.UpdatedAt)
	if err != nil {
		util.Error("Failed to update employer profile",
			zap.String("user_id", profile.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update employer profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (r *EmployerRepo) DeleteByUserID(ctx context.Context, userID string) error {
	tag, err := r.client.Pool.Exec(ctx,
		`DELETE FROM employer_profiles WHERE user_id = $1`, userID)
	if err != nil {
		util.Error("Failed to delete employer profile",
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to delete employer profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	util.Info("Employer profile deleted", zap.String("user_id", userID))
	return nil
}

func (r *EmployerRepo) SetLogoURL(ctx context.Context, userID string, url *string) error {
	tag, err := r.client.Pool.Exec(ctx,
		`UPDATE employer_profiles SET logo_url = $2, updated_at = now() WHERE user_id = $1`,
		userID, url)
	if err != nil {
		return fmt.Errorf("failed to update logo_url: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
