package handler

import (
	"net/http"
	"time"

	"laxmi-billing/internal/models"
	"laxmi-billing/internal/service"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	Bills *service.BillService
	Staff *service.StaffDirectory
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

func (q pageQuery) paging() service.Paging {
	p := service.Paging{Page: q.Page, Limit: q.Limit}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = 20
	}
	return p
}

func (h *BillingHandler) CreateBill(c *gin.Context) {
	var req service.CreateBillInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	bill, err := h.Bills.CreateBill(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

func (h *BillingHandler) ListBills(c *gin.Context) {
	var q struct {
		pageQuery
		Status        string `form:"status" binding:"omitempty,oneof=Unpaid 'Partially Paid' Paid"`
		Retailer      string `form:"retailer"`
		CollectionDay string `form:"collectionDay" binding:"omitempty,weekday"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	assigned, ok := optionalUintQuery(c, "assignedTo")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}

	page := q.paging()
	bills, total, err := h.Bills.ListBills(c.Request.Context(), service.BillFilter{
		Status:        models.BillStatus(q.Status),
		AssignedToID:  assigned,
		Retailer:      q.Retailer,
		CollectionDay: q.CollectionDay,
		Paging:        page,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, bills, total, page.Page, page.Limit)
}

func (h *BillingHandler) GetBill(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	bill, err := h.Bills.GetBill(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillingHandler) UpdateBill(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateBillInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	bill, err := h.Bills.UpdateBill(c.Request.Context(), id, req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillingHandler) DeleteBill(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Bills.DeleteBill(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted"})
}

func (h *BillingHandler) AssignBill(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		AssignedTo uint `json:"assignedTo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	bill, err := h.Bills.AssignBill(c.Request.Context(), id, req.AssignedTo, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillingHandler) UnassignBill(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	bill, err := h.Bills.UnassignBill(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillingHandler) RecomputeBill(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	bill, err := h.Bills.RecomputeBill(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// RecordCollection is the reconciliation endpoint: one payment against one
// bill, answered with the collection and the updated bill.
func (h *BillingHandler) RecordCollection(c *gin.Context) {
	var req service.CollectionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	res, err := h.Bills.RecordCollection(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *BillingHandler) ListCollections(c *gin.Context) {
	var q struct {
		pageQuery
		Bill uint   `form:"bill"`
		Mode string `form:"paymentMode" binding:"omitempty,paymentmode"`
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	from, to, ok := dateRange(c, q.From, q.To)
	if !ok {
		return
	}
	collector, ok := optionalUintQuery(c, "collectedBy")
	if !ok {
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}

	page := q.paging()
	rows, total, err := h.Bills.ListCollections(c.Request.Context(), service.CollectionFilter{
		BillID:        q.Bill,
		CollectedByID: collector,
		Mode:          models.PaymentMode(q.Mode),
		From:          from,
		To:            to,
		Paging:        page,
	}, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, rows, total, page.Page, page.Limit)
}

// dateRange parses optional YYYY-MM-DD bounds. The upper bound is inclusive
// of the whole day.
func dateRange(c *gin.Context, fromStr, toStr string) (from, to *time.Time, ok bool) {
	if fromStr != "" {
		t, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, use YYYY-MM-DD"})
			return nil, nil, false
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, use YYYY-MM-DD"})
			return nil, nil, false
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, true
}
