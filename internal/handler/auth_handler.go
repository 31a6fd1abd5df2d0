package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/instaprep/instaprep-backend/internal/middleware"
	"github.com/instaprep/instaprep-backend/internal/model"
	"github.com/instaprep/instaprep-backend/internal/repository"
	"github.com/instaprep/instaprep-backend/internal/response"
	"github.com/instaprep/instaprep-backend/internal/service"
	"github.com/instaprep/instaprep-backend/internal/validator"
)

// AuthHandler handles candidate authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	candidates  *repository.CandidateRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, candidates *repository.CandidateRepository) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		candidates:  candidates,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Authenticates a candidate and issues a JWT. A login already active on
// another device is rejected.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidates.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(candidate.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateCandidateToken(c.Request.Context(), candidate.ID)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"candidate": gin.H{
			"id":    candidate.ID,
			"email": candidate.Email,
			"name":  candidate.Name,
		},
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated candidate.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	candidate, err := h.candidates.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"candidate": gin.H{
			"id":    candidate.ID,
			"email": candidate.Email,
			"name":  candidate.Name,
		},
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Clears the candidate's active login so a new device can sign in.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
