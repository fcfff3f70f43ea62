package handler

import (
	"net/http"

	"laxmi-billing/config"
	"laxmi-billing/internal/importer"
	"laxmi-billing/internal/service"

	"github.com/gin-gonic/gin"
)

type RetailerHandler struct {
	Retailers *service.RetailerService
	Staff     *service.StaffDirectory
	Import    config.ImportConfig
}

func (h *RetailerHandler) ListRetailers(c *gin.Context) {
	var q struct {
		pageQuery
		Search string `form:"search"`
		Day    string `form:"day" binding:"omitempty,weekday"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	assigned, ok := optionalUintQuery(c, "assignedTo")
	if !ok {
		return
	}
	page := q.paging()
	retailers, total, err := h.Retailers.ListRetailers(c.Request.Context(), service.RetailerFilter{
		Search:       q.Search,
		AssignedToID: assigned,
		Day:          q.Day,
		Paging:       page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, retailers, total, page.Page, page.Limit)
}

func (h *RetailerHandler) GetRetailer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	retailer, err := h.Retailers.GetRetailer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, retailer)
}

func (h *RetailerHandler) CreateRetailer(c *gin.Context) {
	var req service.RetailerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	retailer, err := h.Retailers.CreateRetailer(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, retailer)
}

func (h *RetailerHandler) UpdateRetailer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.RetailerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	retailer, err := h.Retailers.UpdateRetailer(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, retailer)
}

// AssignRetailer sets or clears the DSR and collection day of a retailer.
func (h *RetailerHandler) AssignRetailer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		AssignedTo  *uint  `json:"assignedTo"`
		DayAssigned string `json:"dayAssigned" binding:"omitempty,weekday"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	retailer, err := h.Retailers.AssignRetailer(c.Request.Context(), id, req.AssignedTo, req.DayAssigned)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, retailer)
}

func (h *RetailerHandler) DeleteRetailer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Retailers.DeleteRetailer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Retailer deleted"})
}

func (h *RetailerHandler) ImportRetailers(c *gin.Context) {
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	streamImport(c, h.Import, importer.RetailerRows{Store: h.Retailers, Staff: h.Staff, Actor: actor})
}
