package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"dalada-backend/internal/config"
	"dalada-backend/internal/events"
	"dalada-backend/internal/model"
	"dalada-backend/internal/repository/postgres"
	"dalada-backend/internal/token"
	"dalada-backend/internal/util"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"
)

// oauthProfile is the subset of provider userinfo the flow needs.
type oauthProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type oauthState struct {
	Nonce string     `json:"nonce"`
	Role  model.Role `json:"role"`
}

// OAuthService bridges Google and Facebook sign-in onto local accounts.
// Accounts are keyed by the provider-verified email; an existing account
// with the same email is signed in regardless of which provider created it.
type OAuthService struct {
	google    *oauth2.Config
	facebook  *oauth2.Config
	userRepo  postgres.UserRepository
	issuer    *token.Issuer
	publisher *events.Publisher
	logger    *zap.Logger

	// httpClient overrides the exchange/userinfo client in tests.
	httpClient *http.Client
}

func NewOAuthService(
	cfg config.OAuthConfig,
	userRepo postgres.UserRepository,
	issuer *token.Issuer,
	publisher *events.Publisher,
	logger *zap.Logger,
) *OAuthService {
	return &OAuthService{
		google: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.CallbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		facebook: &oauth2.Config{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  cfg.Facebook.CallbackURL,
			Scopes:       []string{"email", "public_profile"},
			Endpoint:     facebook.Endpoint,
		},
		userRepo:  userRepo,
		issuer:    issuer,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *OAuthService) providerConfig(provider model.Provider) (*oauth2.Config, error) {
	switch provider {
	case model.ProviderGoogle:
		return s.google, nil
	case model.ProviderFacebook:
		return s.facebook, nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", ErrInvalidRequest, provider)
	}
}

// AuthURL builds the provider redirect. The returned state carries the
// requested role and a nonce; the handler pins it in a cookie and the
// callback must echo it back unchanged.
func (s *OAuthService) AuthURL(provider model.Provider, role model.Role) (authURL string, state string, err error) {
	cfg, err := s.providerConfig(provider)
	if err != nil {
		return "", "", err
	}
	if cfg.ClientID == "" {
		return "", "", fmt.Errorf("%w: %s sign-in is not configured", ErrInvalidRequest, strings.ToLower(string(provider)))
	}
	if role == "" {
		role = model.RoleCandidate
	}
	if !role.Valid() {
		return "", "", fmt.Errorf("%w: invalid role", ErrInvalidRequest)
	}

	state, err = encodeState(role)
	if err != nil {
		return "", "", err
	}
	return cfg.AuthCodeURL(state), state, nil
}

// HandleCallback exchanges the authorization code, resolves the provider
// profile, and signs the user in, creating the account on first contact.
func (s *OAuthService) HandleCallback(ctx context.Context, provider model.Provider, code, state string) (*AuthResult, error) {
	cfg, err := s.providerConfig(provider)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrInvalidRequest)
	}

	role, err := decodeState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed state", ErrInvalidRequest)
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("OAuth code exchange failed",
			util.String("provider", string(provider)),
			util.ErrorField(err))
		return nil, fmt.Errorf("%w: code exchange failed", ErrUnauthorized)
	}

	profile, err := s.fetchProfile(ctx, cfg, tok, provider)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, fmt.Errorf("%w: provider did not share an email address", ErrUnauthorized)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	user, created, err := s.resolveOAuthUser(ctx, email, profile.Name, role, provider)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	eventType := events.TypeUserLogin
	if created {
		eventType = events.TypeUserRegistered
	}
	s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		Identifier: email,
		UserID:     user.ID,
		Role:       string(user.Role),
		Provider:   string(provider),
	})

	s.logger.Info("OAuth sign-in completed",
		util.String("provider", string(provider)),
		util.String("user_id", user.ID),
		util.Bool("created", created))

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *OAuthService) fetchProfile(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, provider model.Provider) (*oauthProfile, error) {
	infoURL := googleUserInfoURL
	if provider == model.ProviderFacebook {
		infoURL = facebookUserInfoURL
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch provider profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("Provider userinfo request rejected",
			util.String("provider", string(provider)),
			util.Int("status", resp.StatusCode),
			util.String("body", string(body)))
		return nil, fmt.Errorf("%w: provider rejected the profile request", ErrUnauthorized)
	}

	var profile oauthProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode provider profile: %w", err)
	}
	return &profile, nil
}

func (s *OAuthService) resolveOAuthUser(ctx context.Context, email, name string, role model.Role, provider model.Provider) (*model.User, bool, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	user = &model.User{
		Email:    &email,
		Role:     role,
		Provider: provider,
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = &name
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func encodeState(role model.Role) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	raw, err := json.Marshal(oauthState{
		Nonce: base64.RawURLEncoding.EncodeToString(nonce),
		Role:  role,
	})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeState(state string) (model.Role, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return "", err
	}
	var decoded oauthState
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}
	if decoded.Role == "" {
		decoded.Role = model.RoleCandidate
	}
	if !decoded.Role.Valid() {
		return "", fmt.Errorf("invalid role in state")
	}
	return decoded.Role, nil
}
