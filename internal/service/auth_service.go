package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dalada-backend/internal/events"
	"dalada-backend/internal/hashing"
	"dalada-backend/internal/model"
	"dalada-backend/internal/notify"
	"dalada-backend/internal/repository/postgres"
	"dalada-backend/internal/token"
	"dalada-backend/internal/util"
)

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrConflict        = errors.New("user already exists")
	ErrNotFound        = errors.New("not found")
	ErrExpiredCode     = errors.New("code has expired")
	ErrInvalidCode     = errors.New("invalid code")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ThrottleError carries the wait hint for a rejected resend; it unwraps to
// ErrTooManyRequests so handlers can match it with errors.Is.
type ThrottleError struct {
	RetryAfterSec int
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("too many requests, retry after %ds", e.RetryAfterSec)
}

func (e *ThrottleError) Unwrap() error { return ErrTooManyRequests }

// Throttle is the resend-window and guess-cap enforcement the auth flow
// relies on.
type Throttle interface {
	ReserveSend(ctx context.Context, identifier string, window time.Duration) (ok bool, retryAfterSec int, err error)
	ReleaseSend(ctx context.Context, identifier string) error
	IncrementAttempts(ctx context.Context, otpID string, ttl time.Duration) (int, error)
	ResetAttempts(ctx context.Context, otpID string) error
}

// SendOTPRequest is the payload for POST /auth/otp/send.
type SendOTPRequest struct {
	Role       model.Role    `json:"role"`
	Intent     model.Intent  `json:"intent"`
	Channel    model.Channel `json:"channel"`
	Identifier string        `json:"identifier"`
}

// VerifyOTPRequest is the payload for POST /auth/otp/verify.
type VerifyOTPRequest struct {
	Identifier string       `json:"identifier"`
	Code       string       `json:"code"`
	Intent     model.Intent `json:"intent"`
	Role       model.Role   `json:"role"`
}

// SendOTPResult reports an accepted send. DebugCode is populated outside
// production only.
type SendOTPResult struct {
	DebugCode    string
	ExpiresInSec int
}

// AuthResult is a successful verification: the resolved user plus the
// freshly minted token pair.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// AuthOptions tunes the OTP flow.
type AuthOptions struct {
	CodeTTL        time.Duration
	ResendWindow   time.Duration
	MaxVerifyTries int
	Production     bool
}

// AuthService orchestrates the passcode flow: throttling, existence checks,
// issuance, verification, and session token minting.
type AuthService struct {
	otpRepo    postgres.OTPRepository
	userRepo   postgres.UserRepository
	throttle   Throttle
	hasher     *hashing.Hasher
	issuer     *token.Issuer
	dispatcher notify.Dispatcher
	publisher  *events.Publisher
	opts       AuthOptions
	logger     *zap.Logger
}

func NewAuthService(
	otpRepo postgres.OTPRepository,
	userRepo postgres.UserRepository,
	throttle Throttle,
	hasher *hashing.Hasher,
	issuer *token.Issuer,
	dispatcher notify.Dispatcher,
	publisher *events.Publisher,
	opts AuthOptions,
	logger *zap.Logger,
) *AuthService {
	if opts.CodeTTL == 0 {
		opts.CodeTTL = 5 * time.Minute
	}
	if opts.ResendWindow == 0 {
		opts.ResendWindow = 60 * time.Second
	}
	if opts.MaxVerifyTries == 0 {
		opts.MaxVerifyTries = 5
	}
	return &AuthService{
		otpRepo:    otpRepo,
		userRepo:   userRepo,
		throttle:   throttle,
		hasher:     hasher,
		issuer:     issuer,
		dispatcher: dispatcher,
		publisher:  publisher,
		opts:       opts,
		logger:     logger,
	}
}

// SendOTP issues a new passcode challenge for the identifier.
func (s *AuthService) SendOTP(ctx context.Context, req *SendOTPRequest) (*SendOTPResult, error) {
	if req.Identifier == "" || req.Role == "" || req.Intent == "" || req.Channel == "" {
		return nil, fmt.Errorf("%w: role, intent, channel, identifier are required", ErrInvalidRequest)
	}
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid role", ErrInvalidRequest)
	}
	if !req.Intent.Valid() {
		return nil, fmt.Errorf("%w: invalid intent", ErrInvalidRequest)
	}
	if !req.Channel.Valid() {
		return nil, fmt.Errorf("%w: invalid channel", ErrInvalidRequest)
	}

	identifier := util.NormalizeIdentifier(req.Identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is empty", ErrInvalidRequest)
	}

	// Resend window is held per identifier across intents.
	ok, retryAfter, err := s.throttle.ReserveSend(ctx, identifier, s.opts.ResendWindow)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ThrottleError{RetryAfterSec: retryAfter}
	}

	result, err := s.issueCode(ctx, req, identifier)
	if err != nil {
		// Give the slot back so a business-rule rejection does not cost the
		// caller a full resend window.
		if relErr := s.throttle.ReleaseSend(ctx, identifier); relErr != nil {
			s.logger.Warn("Failed to release resend slot",
				util.String("identifier", identifier),
				util.ErrorField(relErr))
		}
		return nil, err
	}
	return result, nil
}

func (s *AuthService) issueCode(ctx context.Context, req *SendOTPRequest, identifier string) (*SendOTPResult, error) {
	existing, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if req.Intent == model.IntentRegister && existing != nil {
		return nil, fmt.Errorf("%w: choose login instead", ErrConflict)
	}
	if req.Intent == model.IntentLogin && existing == nil {
		return nil, fmt.Errorf("%w: user not found, register first", ErrNotFound)
	}

	if err := s.otpRepo.DeleteExpired(ctx, identifier, req.Intent); err != nil {
		// Housekeeping only; expired rows are rejected on read anyway.
		s.logger.Warn("Failed to prune expired OTP records",
			util.String("identifier", identifier),
			util.ErrorField(err))
	}

	code, err := hashing.GenerateCode()
	if err != nil {
		return nil, err
	}
	hash, salt, err := s.hasher.HashCode(code)
	if err != nil {
		return nil, err
	}

	otp := &model.OTP{
		Identifier: identifier,
		Role:       req.Role,
		Intent:     req.Intent,
		Channel:    req.Channel,
		CodeHash:   hash,
		CodeSalt:   salt,
		ExpiresAt:  time.Now().UTC().Add(s.opts.CodeTTL),
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return nil, err
	}

	if err := s.dispatcher.SendCode(ctx, req.Channel, identifier, code); err != nil {
		s.logger.Error("Failed to dispatch passcode",
			util.String("identifier", identifier),
			util.String("channel", string(req.Channel)),
			util.ErrorField(err))
	}

	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeOTPSent,
		Identifier: identifier,
		Role:       string(req.Role),
		Intent:     string(req.Intent),
	})

	s.logger.Info("OTP issued",
		util.String("identifier", identifier),
		util.String("intent", string(req.Intent)))

	result := &SendOTPResult{ExpiresInSec: int(s.opts.CodeTTL.Seconds())}
	if !s.opts.Production {
		result.DebugCode = code
	}
	return result, nil
}

// VerifyOTP redeems a passcode. The record is single-use: it is deleted on
// the first successful match.
func (s *AuthService) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResult, error) {
	if req.Identifier == "" || req.Code == "" || req.Intent == "" || req.Role == "" {
		return nil, fmt.Errorf("%w: identifier, code, intent, role are required", ErrInvalidRequest)
	}
	if !req.Intent.Valid() || !req.Role.Valid() {
		return nil, fmt.Errorf("%w: invalid intent or role", ErrInvalidRequest)
	}

	identifier := util.NormalizeIdentifier(req.Identifier)

	otp, err := s.otpRepo.GetLatest(ctx, identifier, req.Intent)
	if err != nil {
		return nil, err
	}
	if otp == nil {
		return nil, fmt.Errorf("%w: code not found or already used", ErrNotFound)
	}

	now := time.Now().UTC()
	if otp.Expired(now) {
		if err := s.otpRepo.Delete(ctx, otp.ID); err != nil {
			return nil, err
		}
		return nil, ErrExpiredCode
	}

	match, err := s.hasher.VerifyCode(req.Code, otp.CodeHash, otp.CodeSalt)
	if err != nil {
		return nil, err
	}
	if !match {
		attempts, attErr := s.throttle.IncrementAttempts(ctx, otp.ID, time.Until(otp.ExpiresAt))
		if attErr != nil {
			s.logger.Warn("Failed to count verify attempt", util.ErrorField(attErr))
		} else if attempts >= s.opts.MaxVerifyTries {
			// Attempt cap reached: invalidate the record outright.
			if delErr := s.otpRepo.Delete(ctx, otp.ID); delErr != nil {
				return nil, delErr
			}
			_ = s.throttle.ResetAttempts(ctx, otp.ID)
			s.logger.Warn("OTP invalidated after repeated bad guesses",
				util.String("identifier", identifier),
				util.Int("attempts", attempts))
			return nil, fmt.Errorf("%w: too many attempts, request a new code", ErrTooManyRequests)
		}
		return nil, ErrInvalidCode
	}

	if err := s.otpRepo.Delete(ctx, otp.ID); err != nil {
		return nil, err
	}
	_ = s.throttle.ResetAttempts(ctx, otp.ID)

	user, err := s.resolveUser(ctx, identifier, req.Intent, req.Role)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	eventType := events.TypeUserLogin
	if req.Intent == model.IntentRegister {
		eventType = events.TypeUserRegistered
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		Identifier: identifier,
		UserID:     user.ID,
		Role:       string(user.Role),
		Intent:     string(req.Intent),
		Provider:   string(model.ProviderLocal),
	})

	s.logger.Info("OTP verified",
		util.String("user_id", user.ID),
		util.String("intent", string(req.Intent)))

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) resolveUser(ctx context.Context, identifier string, intent model.Intent, role model.Role) (*model.User, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	switch intent {
	case model.IntentRegister:
		if user != nil {
			return nil, fmt.Errorf("%w: registered while code was outstanding", ErrConflict)
		}
		user = &model.User{
			Role:     role,
			Provider: model.ProviderLocal,
		}
		if util.IsEmailIdentifier(identifier) {
			user.Email = &identifier
		} else {
			user.Phone = &identifier
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	case model.IntentLogin:
		if user == nil {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
	}
	return user, nil
}
