package handler

import (
	"errors"
	"net/http"

	"laxmi-billing/internal/service"
	"laxmi-billing/internal/utils"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	EmployeeID string `json:"employeeId" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type AuthHandler struct {
	Staff *service.StaffDirectory
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.Staff.Authenticate(c.Request.Context(), req.EmployeeID, req.Password, c.ClientIP())
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"id":         user.ID,
		"employeeId": user.EmployeeID,
		"username":   user.Username,
		"role":       user.Role.Name,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		Password        string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	if err := h.Staff.ChangePassword(c.Request.Context(), actor.ID, req.CurrentPassword, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// currentActor resolves the authenticated user set by AuthMiddleware.
func currentActor(c *gin.Context, staff *service.StaffDirectory) (service.Actor, bool) {
	actor, err := staff.Actor(c.Request.Context(), c.GetUint("userID"))
	if err != nil {
		respondError(c, err)
		return service.Actor{}, false
	}
	return actor, true
}
