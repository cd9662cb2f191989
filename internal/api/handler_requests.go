package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"puritygrid-backend/internal/mw"
	"puritygrid-backend/internal/requests"
)

type postRequestBody struct {
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	UserPhone string `json:"userPhone"`
	Model     string `json:"model" binding:"required"`
	Location  string `json:"location" binding:"required"`
	Extra     string `json:"extra"`
}

// GetRequests lists rental requests. Owners see every request, renters
// their own.
func (h *Handler) GetRequests(c *gin.Context) {
	s, _ := mw.SessionFrom(c)

	var (
		list []requests.RentalRequest
		err  error
	)
	if s.IsOwner() {
		list, err = h.requests.List(c.Request.Context())
	} else {
		list, err = h.requests.ListBy(c.Request.Context(), s.Username)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load rental requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rental requests"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// PostRequest files a rental request for the calling renter.
func (h *Handler) PostRequest(c *gin.Context) {
	s, _ := mw.SessionFrom(c)

	var body postRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if body.UserName == "" {
		body.UserName = s.Username
	}

	created, err := h.requests.Add(c.Request.Context(), requests.NewRequest{
		Username:  s.Username,
		UserName:  body.UserName,
		UserEmail: body.UserEmail,
		UserPhone: body.UserPhone,
		Model:     body.Model,
		Location:  body.Location,
		Extra:     body.Extra,
	})
	if errors.Is(err, requests.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to add rental request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add rental request"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type putRequestBody struct {
	Status requests.Status `json:"status" binding:"required"`
}

// PutRequest accepts or rejects a pending request.
func (h *Handler) PutRequest(c *gin.Context) {
	var body putRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.requests.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	switch {
	case errors.Is(err, requests.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, requests.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.log.Error().Err(err).Msg("failed to update rental request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update rental request"})
	case updated == nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
	default:
		c.JSON(http.StatusOK, updated)
	}
}
