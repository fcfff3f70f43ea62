package handler

import (
	"time"

	"laxmi-billing/config"
	"laxmi-billing/internal/middleware"
	"laxmi-billing/internal/models"
	"laxmi-billing/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewRouter builds the services over db and mounts every route under /api/v1.
func NewRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	RegisterValidators()

	staff := service.NewStaffDirectory(db)
	staff.SetPrefixes(service.Prefixes{Admin: cfg.Defaults.AdminPrefix, DSR: cfg.Defaults.DSRPrefix})
	bills := service.NewBillService(db)
	products := service.NewProductService(db)
	retailers := service.NewRetailerService(db)
	orders := service.NewOrderService(db)
	reports := service.NewReportService(db)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	anyone := middleware.AuthMiddleware()
	staffOnly := middleware.AuthMiddleware(models.RoleAdmin, models.RoleDSR)
	adminOnly := middleware.AuthMiddleware(models.RoleAdmin)

	publicHandler := &PublicHandler{Site: cfg.Site}
	r.GET("/ping", publicHandler.Ping)

	api := r.Group("/api/v1")
	api.GET("/public/site-info", publicHandler.GetSiteInfo)

	authHandler := &AuthHandler{Staff: staff}
	api.POST("/auth/login", authHandler.Login)
	api.PUT("/user/password", anyone, authHandler.ChangePassword)

	adminHandler := &AdminHandler{Staff: staff, Reports: reports}
	adminRoutes := api.Group("/admin", adminOnly)
	{
		adminRoutes.POST("/employees", adminHandler.CreateEmployee)
		adminRoutes.GET("/employees", adminHandler.ListEmployees)
		adminRoutes.PUT("/employees/:id", adminHandler.UpdateEmployee)
		adminRoutes.PUT("/employees/:id/status", adminHandler.UpdateEmployeeStatus)
		adminRoutes.PUT("/employees/:id/password", adminHandler.ResetEmployeePassword)
		adminRoutes.GET("/dsrs", adminHandler.ListDSRs)
		adminRoutes.GET("/login-history", adminHandler.GetLoginHistory)
		adminRoutes.GET("/dashboard", adminHandler.GetDashboardStats)
	}

	billingHandler := &BillingHandler{Bills: bills, Staff: staff}
	billRoutes := api.Group("/bills")
	{
		billRoutes.POST("", adminOnly, billingHandler.CreateBill)
		billRoutes.GET("", staffOnly, billingHandler.ListBills)
		billRoutes.GET("/:id", staffOnly, billingHandler.GetBill)
		billRoutes.PUT("/:id", adminOnly, billingHandler.UpdateBill)
		billRoutes.DELETE("/:id", adminOnly, billingHandler.DeleteBill)
		billRoutes.PUT("/:id/assign", adminOnly, billingHandler.AssignBill)
		billRoutes.DELETE("/:id/assign", adminOnly, billingHandler.UnassignBill)
		billRoutes.POST("/:id/recompute", adminOnly, billingHandler.RecomputeBill)
	}
	collectionRoutes := api.Group("/collections", staffOnly)
	{
		collectionRoutes.POST("", billingHandler.RecordCollection)
		collectionRoutes.GET("", billingHandler.ListCollections)
	}

	retailerHandler := &RetailerHandler{Retailers: retailers, Staff: staff, Import: cfg.Import}
	retailerRoutes := api.Group("/retailers")
	{
		retailerRoutes.GET("", staffOnly, retailerHandler.ListRetailers)
		retailerRoutes.GET("/:id", staffOnly, retailerHandler.GetRetailer)
		retailerRoutes.POST("", adminOnly, retailerHandler.CreateRetailer)
		retailerRoutes.POST("/import", adminOnly, retailerHandler.ImportRetailers)
		retailerRoutes.PUT("/:id", adminOnly, retailerHandler.UpdateRetailer)
		retailerRoutes.PUT("/:id/assign", adminOnly, retailerHandler.AssignRetailer)
		retailerRoutes.DELETE("/:id", adminOnly, retailerHandler.DeleteRetailer)
	}

	inventoryHandler := &InventoryHandler{Products: products, Staff: staff, Import: cfg.Import}
	productRoutes := api.Group("/products")
	{
		productRoutes.GET("", staffOnly, inventoryHandler.ListProducts)
		productRoutes.GET("/low-stock", adminOnly, inventoryHandler.LowStock)
		productRoutes.GET("/:id", staffOnly, inventoryHandler.GetProduct)
		productRoutes.POST("", adminOnly, inventoryHandler.CreateProduct)
		productRoutes.POST("/import", adminOnly, inventoryHandler.ImportProducts)
		productRoutes.PUT("/:id", adminOnly, inventoryHandler.UpdateProduct)
		productRoutes.POST("/:id/stock", adminOnly, inventoryHandler.AdjustStock)
		productRoutes.DELETE("/:id", adminOnly, inventoryHandler.DeleteProduct)
	}

	orderHandler := &OrderHandler{Orders: orders, Staff: staff}
	orderRoutes := api.Group("/orders")
	{
		orderRoutes.POST("", staffOnly, orderHandler.CreateOrder)
		orderRoutes.GET("", staffOnly, orderHandler.ListOrders)
		orderRoutes.GET("/:id", staffOnly, orderHandler.GetOrder)
		orderRoutes.PUT("/:id/status", adminOnly, orderHandler.UpdateOrderStatus)
	}

	reportHandler := &ReportHandler{Reports: reports}
	reportRoutes := api.Group("/reports", adminOnly)
	{
		reportRoutes.GET("/collections", reportHandler.GetCollectionsReport)
		reportRoutes.GET("/outstanding", reportHandler.GetOutstandingReport)
		reportRoutes.GET("/dsr-summary", reportHandler.GetDSRSummary)
	}

	return r
}
