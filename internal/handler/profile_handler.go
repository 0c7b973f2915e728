package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dalada-backend/internal/service"
	"dalada-backend/internal/util"
)

// ProfileHandler exposes candidate/employer profile CRUD and the attachment
// sub-resources. Every route requires bearer auth; the owner is always the
// authenticated caller.
type ProfileHandler struct {
	profileService *service.ProfileService
	logger         *zap.Logger
}

func NewProfileHandler(profileService *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// RegisterRoutes mounts the profile and attachment endpoints.
func (h *ProfileHandler) RegisterRoutes(router chi.Router) {
	router.Route("/profile/candidate", func(r chi.Router) {
		r.Post("/", h.CreateCandidate)
		r.Get("/", h.GetCandidate)
		r.Put("/", h.UpdateCandidate)
		r.Delete("/", h.DeleteCandidate)
	})

	router.Route("/profile/employer", func(r chi.Router) {
		r.Post("/", h.CreateEmployer)
		r.Get("/", h.GetEmployer)
		r.Put("/", h.UpdateEmployer)
		r.Delete("/", h.DeleteEmployer)
	})

	router.Route("/candidate", func(r chi.Router) {
		r.Patch("/languages", h.UpsertLanguage)
		r.Delete("/languages/{language}", h.DeleteLanguage)
		r.Patch("/resume", h.SetResume)
		r.Patch("/certificate", h.AddCertificate)
		r.Delete("/certificate", h.RemoveCertificate)
		r.Patch("/video", h.SetVideo)
		r.Delete("/video", h.ClearVideo)
		r.Patch("/photo", h.SetPhoto)
		r.Delete("/photo", h.ClearPhoto)
		r.Get("/timezones", h.ListTimezones)
		r.Patch("/timezones", h.AddTimezone)
		r.Delete("/timezones", h.RemoveTimezone)
	})

	router.Route("/employer", func(r chi.Router) {
		r.Patch("/logo", h.SetLogo)
		r.Delete("/logo", h.ClearLogo)
	})
}

// -------------------- CANDIDATE CRUD --------------------

func (h *ProfileHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	userID := UserIDFromContext(ctx)

	var req service.CandidateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	profile, err := h.profileService.CreateCandidate(ctx, userID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create candidate profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, successResponse(profile, "Candidate profile created"))
	h.logger.Info("Candidate profile created via HTTP",
		util.String("user_id", userID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "CreateCandidate"),
	)
}

func (h *ProfileHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	profile, err := h.profileService.GetCandidate(ctx, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get candidate profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(profile, "Candidate profile retrieved"))
}

func (h *ProfileHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	userID := UserIDFromContext(ctx)

	var req service.CandidateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	profile, err := h.profileService.UpdateCandidate(ctx, userID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update candidate profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(profile, "Candidate profile updated"))
	h.logger.Info("Candidate profile updated via HTTP",
		util.String("user_id", userID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "UpdateCandidate"),
	)
}

func (h *ProfileHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	if err := h.profileService.DeleteCandidate(ctx, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete candidate profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, "Candidate profile deleted"))
	h.logger.Info("Candidate profile deleted via HTTP",
		util.String("user_id", userID),
		util.String("method", "DeleteCandidate"),
	)
}

// -------------------- EMPLOYER CRUD --------------------

func (h *ProfileHandler) CreateEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	userID := UserIDFromContext(ctx)

	var req service.EmployerProfileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	profile, err := h.profileService.CreateEmployer(ctx, userID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create employer profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, successResponse(profile, "Employer profile created"))
	h.logger.Info("Employer profile created via HTTP",
		util.String("user_id", userID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "CreateEmployer"),
	)
}

func (h *ProfileHandler) GetEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	profile, err := h.profileService.GetEmployer(ctx, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get employer profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(profile, "Employer profile retrieved"))
}

func (h *ProfileHandler) UpdateEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()
	userID := UserIDFromContext(ctx)

	var req service.EmployerProfileInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	profile, err := h.profileService.UpdateEmployer(ctx, userID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update employer profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(profile, "Employer profile updated"))
	h.logger.Info("Employer profile updated via HTTP",
		util.String("user_id", userID),
		util.Duration("duration", time.Since(startTime)),
		util.String("method", "UpdateEmployer"),
	)
}

func (h *ProfileHandler) DeleteEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	if err := h.profileService.DeleteEmployer(ctx, userID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete employer profile")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, "Employer profile deleted"))
	h.logger.Info("Employer profile deleted via HTTP",
		util.String("user_id", userID),
		util.String("method", "DeleteEmployer"),
	)
}

// -------------------- CANDIDATE ATTACHMENTS --------------------

func (h *ProfileHandler) UpsertLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	var req service.LanguageInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	lang, err := h.profileService.UpsertCandidateLanguage(ctx, userID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to save language")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(lang, "Language saved"))
}

func (h *ProfileHandler) DeleteLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	language, err := url.PathUnescape(chi.URLParam(r, "language"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid language name")
		return
	}

	if err := h.profileService.DeleteCandidateLanguage(ctx, userID, language); err != nil {
		respondServiceError(w, h.logger, err, "Failed to delete language")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, "Language deleted"))
}

func (h *ProfileHandler) SetResume(w http.ResponseWriter, r *http.Request) {
	h.patchURLField(w, r, "resumeUrl", "Resume updated", h.profileService.SetCandidateResume)
}

func (h *ProfileHandler) SetVideo(w http.ResponseWriter, r *http.Request) {
	h.patchURLField(w, r, "videoUrl", "Video updated", h.profileService.SetCandidateVideo)
}

func (h *ProfileHandler) ClearVideo(w http.ResponseWriter, r *http.Request) {
	h.clearURLField(w, r, "Video removed", h.profileService.SetCandidateVideo)
}

func (h *ProfileHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	h.patchURLField(w, r, "photoUrl", "Photo updated", h.profileService.SetCandidatePhoto)
}

func (h *ProfileHandler) ClearPhoto(w http.ResponseWriter, r *http.Request) {
	h.clearURLField(w, r, "Photo removed", h.profileService.SetCandidatePhoto)
}

func (h *ProfileHandler) AddCertificate(w http.ResponseWriter, r *http.Request) {
	h.patchStringField(w, r, "certificateUrl", "Certificate added", h.profileService.AddCandidateCertificate)
}

func (h *ProfileHandler) RemoveCertificate(w http.ResponseWriter, r *http.Request) {
	h.patchStringField(w, r, "certificateUrl", "Certificate removed", h.profileService.RemoveCandidateCertificate)
}

func (h *ProfileHandler) ListTimezones(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	timezones, err := h.profileService.ListCandidateTimezones(ctx, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list timezones")
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, successResponse(timezones, "Timezones retrieved"))
}

func (h *ProfileHandler) AddTimezone(w http.ResponseWriter, r *http.Request) {
	h.patchStringField(w, r, "timezone", "Timezone added", h.profileService.AddCandidateTimezone)
}

func (h *ProfileHandler) RemoveTimezone(w http.ResponseWriter, r *http.Request) {
	h.patchStringField(w, r, "timezone", "Timezone removed", h.profileService.RemoveCandidateTimezone)
}

// -------------------- EMPLOYER ATTACHMENTS --------------------

func (h *ProfileHandler) SetLogo(w http.ResponseWriter, r *http.Request) {
	h.patchURLField(w, r, "logoUrl", "Logo updated", h.profileService.SetEmployerLogo)
}

func (h *ProfileHandler) ClearLogo(w http.ResponseWriter, r *http.Request) {
	h.clearURLField(w, r, "Logo removed", h.profileService.SetEmployerLogo)
}

// -------------------- HELPERS --------------------

// patchURLField handles PATCH endpoints whose body is a single URL field
// stored as a nullable column.
func (h *ProfileHandler) patchURLField(w http.ResponseWriter, r *http.Request, field, message string, set func(context.Context, string, *string) error) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	body := map[string]*string{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	value, ok := body[field]
	if !ok || value == nil {
		respondWithError(w, h.logger, http.StatusBadRequest,
			errors.New(field+" is required"), "Missing "+field)
		return
	}

	if err := set(ctx, userID, value); err != nil {
		respondServiceError(w, h.logger, err, "Failed to update "+field)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, message))
}

// clearURLField handles DELETE endpoints that null out a URL column.
func (h *ProfileHandler) clearURLField(w http.ResponseWriter, r *http.Request, message string, set func(context.Context, string, *string) error) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	if err := set(ctx, userID, nil); err != nil {
		respondServiceError(w, h.logger, err, "Failed to clear field")
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, message))
}

// patchStringField handles PATCH/DELETE endpoints whose body is a single
// required string field (array membership ops).
func (h *ProfileHandler) patchStringField(w http.ResponseWriter, r *http.Request, field, message string, op func(context.Context, string, string) error) {
	ctx := r.Context()
	userID := UserIDFromContext(ctx)

	body := map[string]string{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	value := body[field]
	if value == "" {
		respondWithError(w, h.logger, http.StatusBadRequest,
			errors.New(field+" is required"), "Missing "+field)
		return
	}

	if err := op(ctx, userID, value); err != nil {
		respondServiceError(w, h.logger, err, "Failed to update "+field)
		return
	}
	respondWithJSON(w, h.logger, http.StatusOK, successResponse(nil, message))
}
