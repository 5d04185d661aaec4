package handler

import (
	"retail-banking-core/internal/adapter/http/dto"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProfileHandler handles the caller's profile.
type ProfileHandler struct {
	profileSvc ports.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileSvc ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// Get handles GET /api/v1/profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	profile, err := h.profileSvc.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Update handles PUT /api/v1/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	update := ports.ProfileUpdate{
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		Country: req.Country,
	}
	if req.AccountCurrency != nil {
		cur := domain.Currency(*req.AccountCurrency)
		update.AccountCurrency = &cur
	}
	if req.AccountType != nil {
		typ := domain.AccountType(*req.AccountType)
		update.AccountType = &typ
	}

	profile, err := h.profileSvc.Update(c.Request.Context(), userID, update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}
