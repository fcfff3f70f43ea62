package handler

import (
	"net/http"

	"laxmi-billing/internal/models"

	"github.com/gin-gonic/gin"
)

type PublicHandler struct {
	Site models.SiteInfo
}

func (h *PublicHandler) GetSiteInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.Site)
}

func (h *PublicHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
