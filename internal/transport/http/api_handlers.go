package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/auth"
)

// APIHandlers provides HTTP handlers for identity endpoints.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// GuestRequest is the optional body of a guest login.
type GuestRequest struct {
	Name string `json:"name" binding:"max=32"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// GuestLogin issues a token for a fresh guest identity.
// POST /api/guest
func (h *APIHandlers) GuestLogin(c *gin.Context) {
	var req GuestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Debug().Err(err).Msg("invalid guest request")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	id, err := h.authService.CreateGuest(req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid name"})
			return
		}
		h.log.Error().Err(err).Msg("failed to create guest")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("user_id", id.UserID).Str("name", id.Name).Msg("guest created")
	c.JSON(http.StatusOK, AuthResponse{Token: id.Token, UserID: id.UserID, Name: id.Name})
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
