package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"puritygrid-backend/internal/mw"
	"puritygrid-backend/internal/session"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// PostSession logs an account in and returns its bearer token.
func (h *Handler) PostSession(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	account, err := h.auth.Verify(c.Request.Context(), req.Username, req.Password, req.Role)
	if errors.Is(err, session.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to verify credentials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify credentials"})
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), account)
	if err != nil {
		h.log.Error().Err(err).Str("username", account.Username).Msg("failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, s)
}

// GetSession returns the caller's session.
func (h *Handler) GetSession(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	c.JSON(http.StatusOK, s)
}

// DeleteSession logs the caller out.
func (h *Handler) DeleteSession(c *gin.Context) {
	s, _ := mw.SessionFrom(c)
	if err := h.sessions.Logout(c.Request.Context(), s.Token); err != nil {
		h.log.Error().Err(err).Msg("failed to persist logout")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}
	c.Status(http.StatusNoContent)
}
