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

type UserRepo struct {
	client *client.PostgresClient
}

func NewUserRepository(client *client.PostgresClient) *UserRepo {
	return &UserRepo{client: client}
}

const userColumns = `id, email, phone, name, role, provider, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.Name, &u.Role, &u.Provider, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.client.Pool.Exec(ctx, `
		INSERT INTO users (id, email, phone, name, role, provider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Phone, user.Name, user.Role, user.Provider, user.CreatedAt)
	if err != nil {
		util.Error("Failed to create user",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	util.Info("User created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("provider", string(user.Provider)))
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.client.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// GetByIdentifier looks up by email when the identifier contains "@",
// otherwise by phone.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	column := "phone"
	if util.IsEmailIdentifier(identifier) {
		column = "email"
	}
	u, err := scanUser(r.client.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by identifier: %w", err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.client.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}
