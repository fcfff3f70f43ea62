package handler

import (
	"net/http"

	"laxmi-billing/internal/models"
	"laxmi-billing/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	Orders *service.OrderService
	Staff  *service.StaffDirectory
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	order, err := h.Orders.CreateOrder(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var q struct {
		pageQuery
		Status   string `form:"status" binding:"omitempty,oneof=pending confirmed delivered cancelled"`
		Retailer uint   `form:"retailer"`
		From     string `form:"from"`
		To       string `form:"to"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	from, to, ok := dateRange(c, q.From, q.To)
	if !ok {
		return
	}
	createdBy, ok := optionalUintQuery(c, "createdBy")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}

	page := q.paging()
	orders, total, err := h.Orders.ListOrders(c.Request.Context(), service.OrderFilter{
		Status:      models.OrderStatus(q.Status),
		RetailerID:  q.Retailer,
		CreatedByID: createdBy,
		From:        from,
		To:          to,
		Paging:      page,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, orders, total, page.Page, page.Limit)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=pending confirmed delivered cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.Orders.UpdateOrderStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
