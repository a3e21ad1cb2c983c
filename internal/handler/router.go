package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/flicky/hortifruti-api/internal/auth"
	"github.com/flicky/hortifruti-api/internal/middleware"
)

type Handlers struct {
	Users      *UserHandler
	Categories *CategoryHandler
	Products   *ProductHandler
	Orders     *OrderHandler
	Cart       *CartHandler
	Store      *StoreHandler
	Health     *HealthHandler
}

// StaticDir serves uploaded images; leave Root empty to disable.
type StaticDir struct {
	Prefix string
	Root   string
}

func NewRouter(h Handlers, tokens *auth.TokenManager, static StaticDir, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	router.GET("/readyz", h.Health.Readyz)
	if static.Root != "" {
		router.Static(static.Prefix, static.Root)
	}

	requireAuth := middleware.Auth(tokens)
	adminOnly := middleware.AdminOnly()

	api := router.Group("/api")
	{
		api.GET("/health", h.Health.Health)
		api.GET("/settings", h.Store.Settings)
		api.GET("/notifications", requireAuth, adminOnly, h.Store.Notifications)

		users := api.Group("/users")
		users.POST("/register", h.Users.Register)
		users.POST("/login", h.Users.Login)
		users.POST("/admin/login", h.Users.AdminLogin)
		users.GET("/profile", requireAuth, h.Users.Profile)
		users.PUT("/profile", requireAuth, h.Users.UpdateProfile)
		users.PATCH("/profile", requireAuth, h.Users.UpdateProfile)
		users.PUT("/update", requireAuth, h.Users.UpdateProfile)

		categories := api.Group("/categories")
		categories.GET("", h.Categories.List)
		categories.GET("/:id", h.Categories.GetByID)
		categoriesAdmin := categories.Group("", requireAuth, adminOnly)
		categoriesAdmin.POST("", h.Categories.Create)
		categoriesAdmin.POST("/upload", h.Categories.Upload)
		categoriesAdmin.PUT("/:id", h.Categories.Update)
		categoriesAdmin.DELETE("/:id", h.Categories.Delete)

		products := api.Group("/products")
		products.GET("", middleware.OptionalAuth(tokens), h.Products.List)
		products.GET("/featured", h.Products.Featured)
		products.GET("/count", h.Products.Count)
		products.GET("/:id", h.Products.GetByID)
		productsAdmin := products.Group("", requireAuth, adminOnly)
		productsAdmin.GET("/low-stock", h.Products.LowStock)
		productsAdmin.POST("", h.Products.Create)
		productsAdmin.POST("/upload", h.Products.Upload)
		productsAdmin.PUT("/:id", h.Products.Update)
		productsAdmin.DELETE("/:id", h.Products.Delete)

		api.POST("/cart/quote", requireAuth, h.Cart.Quote)

		orders := api.Group("/orders", requireAuth)
		orders.POST("", h.Orders.CreateOrder)
		orders.GET("", h.Orders.ListOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.PUT("/:id/cancel", h.Orders.Cancel)
		ordersAdmin := orders.Group("", adminOnly)
		ordersAdmin.GET("/count/today", h.Orders.CountToday)
		ordersAdmin.GET("/sales/today", h.Orders.SalesToday)
		ordersAdmin.GET("/recent", h.Orders.Recent)
		ordersAdmin.PUT("/:id/status", h.Orders.UpdateStatus)
	}

	return router
}
