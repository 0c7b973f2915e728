package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dalada-backend/internal/model"
	"dalada-backend/internal/service"
	"dalada-backend/internal/util"
)

// AuthHandler exposes the passcode endpoints.
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes mounts the OTP endpoints.
func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Route("/auth/otp", func(r chi.Router) {
		r.Post("/send", h.SendOTP)
		r.Post("/verify", h.VerifyOTP)
	})
}

type sendOTPResponse struct {
	DebugCode    string `json:"debugCode,omitempty"`
	ExpiresInSec int    `json:"expiresInSec"`
}

type authResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// SendOTP handles passcode issuance.
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.authService.SendOTP(ctx, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to send verification code")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(sendOTPResponse{
		DebugCode:    result.DebugCode,
		ExpiresInSec: result.ExpiresInSec,
	}, "Verification code sent"))
	h.logger.Info("OTP sent via HTTP",
		util.String("intent", string(req.Intent)),
		util.String("channel", string(req.Channel)),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "SendOTP"),
	)
}

// VerifyOTP handles passcode redemption and session issuance.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	var req service.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.authService.VerifyOTP(ctx, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to verify code")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(authResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, "Verification successful"))
	h.logger.Info("OTP verified via HTTP",
		util.String("user_id", result.User.ID),
		util.String("intent", string(req.Intent)),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "VerifyOTP"),
	)
}
