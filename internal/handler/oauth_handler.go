package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dalada-backend/internal/model"
	"dalada-backend/internal/service"
	"dalada-backend/internal/util"
)

const oauthStateCookie = "oauth_state"

// OAuthHandler exposes the Google and Facebook sign-in bridges.
type OAuthHandler struct {
	oauthService *service.OAuthService
	secureCookie bool
	logger       *zap.Logger
}

func NewOAuthHandler(oauthService *service.OAuthService, secureCookie bool, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// RegisterRoutes mounts the provider redirect and callback endpoints.
func (h *OAuthHandler) RegisterRoutes(router chi.Router) {
	router.Get("/auth/google", h.redirect(model.ProviderGoogle))
	router.Get("/auth/google/callback", h.callback(model.ProviderGoogle))
	router.Get("/auth/facebook", h.redirect(model.ProviderFacebook))
	router.Get("/auth/facebook/callback", h.callback(model.ProviderFacebook))
}

// redirect sends the browser to the provider's consent page. The requested
// role rides in the signed state; the state itself is pinned in a cookie so
// the callback can detect forgeries.
func (h *OAuthHandler) redirect(provider model.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := model.Role(r.URL.Query().Get("role"))

		authURL, state, err := h.oauthService.AuthURL(provider, role)
		if err != nil {
			respondServiceError(w, h.logger, err, "Failed to start sign-in")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

func (h *OAuthHandler) callback(provider model.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		startTime := time.Now()

		state := r.URL.Query().Get("state")
		cookie, err := r.Cookie(oauthStateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != state {
			respondWithError(w, h.logger, http.StatusUnauthorized,
				errors.New("state mismatch"), "Sign-in request could not be verified")
			return
		}
		// One shot: the state cookie is dead after the callback.
		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})

		result, err := h.oauthService.HandleCallback(ctx, provider, r.URL.Query().Get("code"), state)
		if err != nil {
			respondServiceError(w, h.logger, err, "Sign-in failed")
			return
		}

		respondWithJSON(w, h.logger, http.StatusOK, successResponse(authResponse{
			User:         result.User,
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		}, "Sign-in successful"))
		h.logger.Info("OAuth callback completed via HTTP",
			util.String("provider", string(provider)),
			util.String("user_id", result.User.ID),
			util.Duration("duration", time.Since(startTime)),
			util.String("method", "Callback"),
		)
	}
}
