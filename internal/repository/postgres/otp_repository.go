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

type OTPRepo struct {
	client *client.PostgresClient
}

func NewOTPRepository(client *client.PostgresClient) *OTPRepo {
	return &OTPRepo{client: client}
}

func (r *OTPRepo) Create(ctx context.Context, otp *model.OTP) error {
	if otp.ID == "" {
		otp.ID = uuid.New().String()
	}
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now().UTC()
	}

	_, err := r.client.Pool.Exec(ctx, `
		INSERT INTO otps (id, identifier, role, intent, channel, code_hash, code_salt, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		otp.ID, otp.Identifier, otp.Role, otp.Intent, otp.Channel,
		otp.CodeHash, otp.CodeSalt, otp.ExpiresAt, otp.CreatedAt)
	if err != nil {
		util.Error("Failed to create OTP record",
			zap.String("identifier", otp.Identifier),
			zap.String("intent", string(otp.Intent)),
			zap.Error(err))
		return fmt.Errorf("failed to create OTP record: %w", err)
	}

	util.Debug("OTP record created",
		zap.String("otp_id", otp.ID),
		zap.String("identifier", otp.Identifier),
		zap.Time("expires_at", otp.ExpiresAt))
	return nil
}

// GetLatest returns the most recently created challenge for the
// (identifier, intent) pair, or nil when none exists.
func (r *OTPRepo) GetLatest(ctx context.Context, identifier string, intent model.Intent) (*model.OTP, error) {
	otp := &model.OTP{}
	err := r.client.Pool.QueryRow(ctx, `
		SELECT id, identifier, role, intent, channel, code_hash, code_salt, expires_at, created_at
		FROM otps
		WHERE identifier = $1 AND intent = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		identifier, intent).Scan(
		&otp.ID, &otp.Identifier, &otp.Role, &otp.Intent, &otp.Channel,
		&otp.CodeHash, &otp.CodeSalt, &otp.ExpiresAt, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		util.Error("Failed to get OTP record",
			zap.String("identifier", identifier),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get OTP record: %w", err)
	}
	return otp, nil
}

func (r *OTPRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Pool.Exec(ctx, `DELETE FROM otps WHERE id = $1`, id); err != nil {
		util.Error("Failed to delete OTP record",
			zap.String("otp_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to delete OTP record: %w", err)
	}
	return nil
}

// DeleteExpired removes already-expired rows for the identifier and intent.
// Housekeeping only; expired records are rejected on read regardless.
func (r *OTPRepo) DeleteExpired(ctx context.Context, identifier string, intent model.Intent) error {
	_, err := r.client.Pool.Exec(ctx, `
		DELETE FROM otps
		WHERE identifier = $1 AND intent = $2 AND expires_at < now()`,
		identifier, intent)
	if err != nil {
		return fmt.Errorf("failed to delete expired OTP records: %w", err)
	}
	return nil
}
