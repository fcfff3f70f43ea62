package handler

import (
	"net/http"
	"strconv"

	"laxmi-billing/config"
	"laxmi-billing/internal/importer"
	"laxmi-billing/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultLowStockThreshold = 10

type InventoryHandler struct {
	Products *service.ProductService
	Staff    *service.StaffDirectory
	Import   config.ImportConfig
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	var q struct {
		pageQuery
		Search  string `form:"search"`
		Company string `form:"company"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	page := q.paging()
	products, total, err := h.Products.ListProducts(c.Request.Context(), service.ProductFilter{
		Search:  q.Search,
		Company: q.Company,
		Paging:  page,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, products, total, page.Page, page.Limit)
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.Products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	product, err := h.Products.CreateProduct(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.Products.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Products.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// AdjustStock adds delta (negative to remove) to a product's stock.
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.Products.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	threshold := defaultLowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid threshold"})
			return
		}
		threshold = v
	}
	products, err := h.Products.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *InventoryHandler) ImportProducts(c *gin.Context) {
	actor, ok := currentActor(c, h.Staff)
	if !ok {
		return
	}
	streamImport(c, h.Import, importer.ProductRows{Store: h.Products, Actor: actor})
}
