package router

import (
	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/handlers"
	"purchase_manager_backend/internal/middleware"
	"purchase_manager_backend/internal/models"
)

func adminOnly() gin.HandlerFunc {
	return middleware.RoleAuthMiddleware(models.RoleAdmin)
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
	group.POST("/refresh", authHandler.RefreshToken)
	group.POST("/logout", authHandler.LogoutUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
	group.PUT("/me", authHandler.ChangePassword)
}

// SetupCategoryRoutes: reads for everyone signed in, writes for admins.
func SetupCategoryRoutes(authenticatedGroup *gin.RouterGroup, categoryHandler *handlers.CategoryHandler) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", categoryHandler.GetCategories)
		categoryRoutes.POST("", adminOnly(), categoryHandler.CreateCategory)
		categoryRoutes.PUT("/:categoryId", adminOnly(), categoryHandler.UpdateCategory)
		categoryRoutes.DELETE("/:categoryId", adminOnly(), categoryHandler.DeleteCategory)
	}
}

func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.GET("", productHandler.GetProducts)
		productRoutes.GET("/low", productHandler.GetLowStock)
		productRoutes.GET("/over", productHandler.GetOverStock)
		productRoutes.GET("/expiring", productHandler.GetExpiring)
		productRoutes.GET("/:productId", productHandler.GetProductByID)
		productRoutes.GET("/:productId/movements", productHandler.GetStockMovements)
		productRoutes.POST("", adminOnly(), productHandler.CreateProduct)
		productRoutes.PUT("/:productId", adminOnly(), productHandler.UpdateProduct)
		productRoutes.DELETE("/:productId", adminOnly(), productHandler.DeleteProduct)
	}
}

func SetupSupplierRoutes(authenticatedGroup *gin.RouterGroup, supplierHandler *handlers.SupplierHandler) {
	supplierRoutes := authenticatedGroup.Group("/suppliers")
	{
		supplierRoutes.GET("", supplierHandler.GetSuppliers)
		supplierRoutes.GET("/:supplierId", supplierHandler.GetSupplierByID)
		supplierRoutes.POST("", adminOnly(), supplierHandler.CreateSupplier)
		supplierRoutes.PUT("/:supplierId", adminOnly(), supplierHandler.UpdateSupplier)
	}
}

// SetupOrderRoutes sets up the order routes. Staff only see their own orders.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		orderRoutes.POST("", orderHandler.CreateOrder)
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/stats", orderHandler.GetOrderStats)
		orderRoutes.GET("/analytics", adminOnly(), orderHandler.GetOrderAnalytics)
		orderRoutes.GET("/export", adminOnly(), orderHandler.ExportOrders)
		orderRoutes.GET("/:orderId", orderHandler.GetOrderByID)
		orderRoutes.PUT("/:orderId", orderHandler.UpdateOrder)
	}
}

// SetupAdminAnalyticsRoutes exposes the spending breakdowns of paid orders.
func SetupAdminAnalyticsRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	analyticsRoutes := authenticatedGroup.Group("/admin/analytics")
	analyticsRoutes.Use(adminOnly())
	{
		analyticsRoutes.GET("/category", orderHandler.GetCategoryAnalytics)
		analyticsRoutes.GET("/monthly", orderHandler.GetMonthlyAnalytics)
	}
}

func SetupTaskRoutes(authenticatedGroup *gin.RouterGroup, taskHandler *handlers.TaskHandler) {
	taskRoutes := authenticatedGroup.Group("/tasks")
	{
		taskRoutes.POST("", adminOnly(), taskHandler.CreateTask)
		taskRoutes.GET("", taskHandler.GetTasks)
		taskRoutes.GET("/:taskId", taskHandler.GetTaskByID)
		taskRoutes.PUT("/:taskId", taskHandler.UpdateTask)
	}
}

func SetupNotificationRoutes(authenticatedGroup *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notificationRoutes := authenticatedGroup.Group("/notifications")
	notificationRoutes.Use(adminOnly())
	{
		notificationRoutes.GET("", notificationHandler.GetNotifications)
		notificationRoutes.PUT("", notificationHandler.MarkAllNotificationsRead)
		notificationRoutes.PUT("/:notificationId", notificationHandler.MarkNotificationRead)
	}
}

func SetupStaffRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	staffRoutes := authenticatedGroup.Group("/admin/staffs")
	staffRoutes.Use(adminOnly())
	{
		staffRoutes.GET("", staffHandler.GetStaffMembers)
		staffRoutes.POST("", staffHandler.CreateStaffMember)
		staffRoutes.PUT("/:staffId", staffHandler.UpdateStaffMember)
	}
}

func SetupExpirationRoutes(authenticatedGroup *gin.RouterGroup, expirationHandler *handlers.ExpirationHandler) {
	authenticatedGroup.POST("/admin/expiration/run", adminOnly(), expirationHandler.RunExpirationSweep)
}
