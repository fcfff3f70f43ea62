package handler

import (
	"net/http"
	"strconv"

	"laxmi-billing/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	Staff   *service.StaffDirectory
	Reports *service.ReportService
}

func (h *AdminHandler) CreateEmployee(c *gin.Context) {
	var req service.EmployeeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.Staff.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AdminHandler) ListEmployees(c *gin.Context) {
	users, err := h.Staff.ListEmployees(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateEmployee(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateEmployeeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.Staff.UpdateEmployee(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) UpdateEmployeeStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive       *bool  `json:"isActive" binding:"required"`
		InactiveReason string `json:"inactiveReason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.Staff.SetEmployeeStatus(c.Request.Context(), id, *req.IsActive, req.InactiveReason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully"})
}

func (h *AdminHandler) ResetEmployeePassword(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.Staff.SetPassword(c.Request.Context(), id, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *AdminHandler) ListDSRs(c *gin.Context) {
	dsrs, err := h.Staff.ListDSRs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dsrs)
}

func (h *AdminHandler) GetLoginHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.Staff.LoginHistory(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.Staff.Counts(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	dash, err := h.Reports.Dashboard(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalEmployees": counts.Total,
		"activeUsers":    counts.Active,
		"billing":        dash,
	})
}
