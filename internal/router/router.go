// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/handlers"
	"github.com/ledrent/ledrent-backend/internal/middleware"
	"github.com/ledrent/ledrent-backend/internal/repository"
	"github.com/ledrent/ledrent-backend/internal/services"
)

const Version = "1.0.0"

// Router is the HTTP engine plus the middleware state that needs shutting down.
type Router struct {
	Engine      *gin.Engine
	rateLimiter *middleware.RateLimiter
}

func (r *Router) Stop() {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
}

func Initialize(cfg *config.Config, store repository.Store, db handlers.Pinger, svc *Services) *Router {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, Version)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, svc.Inventory)
	inventoryHandler := handlers.NewInventoryHandler(svc.Inventory)
	rentalHandler := handlers.NewRentalHandler(svc.Rentals)
	orderHandler := handlers.NewOrderHandler(svc.Carts, svc.Orders)
	paymentHandler := handlers.NewPaymentHandler(svc.Payments)
	userHandler := handlers.NewUserHandler(svc.Users)

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateBurst)
	authRequired := middleware.AuthRequired(svc.Users)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(rateLimiter.Middleware())
	r.Use(middleware.AuditLogMiddleware(store.Audit()))

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/v1")
	{
		// Public catalog
		v1.GET("/products", catalogHandler.ListProducts)
		v1.GET("/products/:id", middleware.OptionalAuth(svc.Users), catalogHandler.GetProduct)
		v1.GET("/variants/:id", catalogHandler.GetVariant)
		v1.GET("/variants/:id/availability", catalogHandler.GetAvailability)

		// Provider callbacks re-verify with the provider, so they need no auth.
		webhooks := v1.Group("/webhooks")
		{
			webhooks.GET("/:provider", paymentHandler.Webhook)
			webhooks.POST("/:provider", paymentHandler.Webhook)
		}

		v1.GET("/users/me", authRequired, userHandler.GetMe)

		rentals := v1.Group("/rentals")
		rentals.Use(authRequired)
		{
			rentals.POST("", rentalHandler.CreateRental)
			rentals.GET("", rentalHandler.ListRentals)
			rentals.GET("/:id", rentalHandler.GetRental)
		}

		cart := v1.Group("/cart")
		cart.Use(authRequired)
		{
			cart.GET("", orderHandler.GetCart)
			cart.DELETE("", orderHandler.ClearCart)
			cart.POST("/items", orderHandler.AddCartItem)
			cart.PUT("/items/:id", orderHandler.UpdateCartItem)
			cart.DELETE("/items/:id", orderHandler.RemoveCartItem)
		}

		orders := v1.Group("/orders")
		orders.Use(authRequired)
		{
			orders.POST("/checkout", orderHandler.Checkout)
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
		}

		payments := v1.Group("/payments")
		payments.Use(authRequired)
		{
			payments.POST("", paymentHandler.Initiate)
			payments.GET("/history", paymentHandler.History)
			payments.POST("/:id/verify", paymentHandler.Verify)
		}

		admin := v1.Group("/admin")
		admin.Use(authRequired, middleware.StaffRequired())
		{
			admin.GET("/products", catalogHandler.AdminListProducts)
			admin.GET("/products/:id", catalogHandler.GetProduct)
			admin.POST("/products", catalogHandler.CreateProduct)
			admin.PUT("/products/:id", catalogHandler.UpdateProduct)
			admin.DELETE("/products/:id", catalogHandler.DeleteProduct)
			admin.POST("/products/:id/variants", catalogHandler.CreateVariant)
			admin.POST("/products/:id/images", catalogHandler.UploadProductImage)
			admin.PUT("/variants/:id", catalogHandler.UpdateVariant)

			admin.GET("/units", inventoryHandler.ListUnits)
			admin.POST("/units", inventoryHandler.CreateUnit)
			admin.GET("/units/:id", inventoryHandler.GetUnit)
			admin.PUT("/units/:id", inventoryHandler.UpdateUnit)

			admin.GET("/rentals", rentalHandler.ListRentals)
			admin.PUT("/rentals/:id/status", rentalHandler.TransitionRental)
			admin.POST("/rentals/:id/assignments", rentalHandler.AssignUnits)

			admin.GET("/orders", orderHandler.ListOrders)
			admin.PUT("/orders/:id/status", orderHandler.UpdateOrderStatus)

			// Money movement and account management stay with admins.
			admin.POST("/payments/:id/refund", middleware.AdminRequired(), paymentHandler.Refund)

			adminUsers := admin.Group("/users")
			adminUsers.Use(middleware.AdminRequired())
			{
				adminUsers.GET("", userHandler.ListUsers)
				adminUsers.POST("", userHandler.CreateUser)
				adminUsers.PUT("/:id/status", userHandler.UpdateUserStatus)
				adminUsers.PUT("/:id/role", userHandler.UpdateUserRole)
			}
		}
	}

	// Local uploads are only written when S3 is not configured.
	if !cfg.IsProduction() {
		r.Static("/uploads", "./"+services.LocalUploadDir)
	}

	return &Router{Engine: r, rateLimiter: rateLimiter}
}
