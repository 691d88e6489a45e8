package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/config"
	"purchase_manager_backend/internal/handlers"
	"purchase_manager_backend/internal/middleware"
	"purchase_manager_backend/internal/repositories"
	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/internal/storage"
)

// Services is the service layer the HTTP surface and the scheduler share.
type Services struct {
	Auth         services.AuthService
	Staff        services.StaffService
	Category     services.CategoryService
	Product      services.ProductService
	Supplier     services.SupplierService
	Order        services.OrderService
	Notification services.NotificationService
	Expiration   services.ExpirationService
	Task         services.TaskService
}

// NewServices wires repositories into services over one connection pool.
func NewServices(db *sql.DB, cfg *config.Config) *Services {
	tx := repositories.NewTransactor(db)

	authRepo := repositories.NewAuthRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	supplierRepo := repositories.NewSupplierRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	lineRepo := repositories.NewOrderLineRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	taskRepo := repositories.NewTaskRepository(db)

	notifications := services.NewNotificationService(notificationRepo, cfg.ClientOrigin)

	return &Services{
		Auth:         services.NewAuthService(authRepo),
		Staff:        services.NewStaffService(authRepo),
		Category:     services.NewCategoryService(categoryRepo),
		Product:      services.NewProductService(productRepo, categoryRepo, movementRepo, tx),
		Supplier:     services.NewSupplierService(supplierRepo, categoryRepo, cfg.PhoneDefaultRegion),
		Order:        services.NewOrderService(orderRepo, productRepo, supplierRepo, movementRepo, tx),
		Notification: notifications,
		Expiration:   services.NewExpirationService(lineRepo, productRepo, movementRepo, notifications, tx, nil),
		Task:         services.NewTaskService(taskRepo, authRepo, productRepo, notifications, tx, nil),
	}
}

// Options carries the non-service collaborators of the HTTP layer.
type Options struct {
	Store        storage.Store
	UploadDir    string // served under /uploads when set
	CookieSecure bool
	Sweeps       handlers.SweepRunner
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc *Services, opts Options) {
	authHandler := handlers.NewAuthHandler(svc.Auth, opts.CookieSecure)
	staffHandler := handlers.NewStaffHandler(svc.Staff, opts.Store)
	categoryHandler := handlers.NewCategoryHandler(svc.Category, opts.Store)
	productHandler := handlers.NewProductHandler(svc.Product, svc.Expiration, opts.Store)
	supplierHandler := handlers.NewSupplierHandler(svc.Supplier, opts.Store)
	orderHandler := handlers.NewOrderHandler(svc.Order, opts.Store)
	notificationHandler := handlers.NewNotificationHandler(svc.Notification)
	taskHandler := handlers.NewTaskHandler(svc.Task)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if opts.UploadDir != "" {
		engine.Static("/uploads", opts.UploadDir)
	}

	api := engine.Group("/api")
	SetupPublicAuthRoutes(api.Group("/auth"), authHandler)

	authenticated := api.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupCategoryRoutes(authenticated, categoryHandler)
		SetupProductRoutes(authenticated, productHandler)
		SetupSupplierRoutes(authenticated, supplierHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupAdminAnalyticsRoutes(authenticated, orderHandler)
		SetupTaskRoutes(authenticated, taskHandler)
		SetupNotificationRoutes(authenticated, notificationHandler)
		SetupStaffRoutes(authenticated, staffHandler)
		if opts.Sweeps != nil {
			SetupExpirationRoutes(authenticated, handlers.NewExpirationHandler(opts.Sweeps))
		}
	}
}
