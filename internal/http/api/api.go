// Package api registers the REST routes for the console and the customer
// dashboard on a gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cookiedeck/cookiedeck/internal/access"
	"github.com/cookiedeck/cookiedeck/internal/config"
	"github.com/cookiedeck/cookiedeck/internal/coupon"
	apphttp "github.com/cookiedeck/cookiedeck/internal/http"
	"github.com/cookiedeck/cookiedeck/internal/http/api/handlers"
	"github.com/cookiedeck/cookiedeck/internal/notify"
	"github.com/cookiedeck/cookiedeck/internal/order"
	"github.com/cookiedeck/cookiedeck/internal/registry"
)

// Deps bundles everything the route handlers need.
type Deps struct {
	DB       *gorm.DB
	JWT      config.JWTConfig
	Access   *access.Service
	Registry *registry.Service
	Coupons  *coupon.Service
	Orders   *order.Service
	Notify   *notify.Service
}

// Register mounts all routes on the engine.
func Register(engine *gin.Engine, deps Deps) {
	adminAuth := apphttp.AdminAuth(deps.DB, deps.JWT)
	anyAuth := apphttp.AnyAuth(deps.DB, deps.JWT)

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT)
	adminAuthHandler := handlers.NewAdminAuthHandler(deps.DB, deps.Access, deps.JWT)
	platformHandler := handlers.NewPlatformHandler(deps.Registry)
	couponHandler := handlers.NewCouponHandler(deps.Coupons)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	adminHandler := handlers.NewAdminHandler(deps.Access)
	messageHandler := handlers.NewMessageHandler(deps.Notify)
	miscHandler := handlers.NewMiscHandler(deps.DB)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := engine.Group("/api")

	// Customer authentication.
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/logout", anyAuth, authHandler.Logout)
		authGroup.GET("/me", anyAuth, authHandler.Me)
	}

	// Console authentication and MFA enrollment.
	adminAuthGroup := apiGroup.Group("/admin-auth")
	{
		adminAuthGroup.POST("/login", adminAuthHandler.Login)
		adminAuthGroup.POST("/totp/login", adminAuthHandler.TOTPLogin)
		adminAuthGroup.POST("/totp/prepare", adminAuth, adminAuthHandler.TOTPPrepare)
		adminAuthGroup.POST("/totp/confirm", adminAuth, adminAuthHandler.TOTPConfirm)
		adminAuthGroup.POST("/totp/disable", adminAuth, adminAuthHandler.TOTPDisable)
	}

	// Platform inventory, console only. The route name is a long-standing
	// dashboard contract, typo included.
	platformGroup := apiGroup.Group("/add_cockies_platform", adminAuth)
	{
		platformGroup.GET("", platformHandler.List)
		platformGroup.POST("", platformHandler.Create)
		platformGroup.GET("/:id", platformHandler.Get)
		platformGroup.PUT("/:id", platformHandler.Update)
		platformGroup.PATCH("/:id", platformHandler.Update)
		platformGroup.DELETE("/:id", platformHandler.Delete)
	}

	// Coupons. Validation is open to any signed-in account; management is
	// console only.
	couponGroup := apiGroup.Group("/coupon")
	{
		couponGroup.GET("", adminAuth, couponHandler.List)
		couponGroup.POST("", adminAuth, couponHandler.Create)
		couponGroup.DELETE("/:id", adminAuth, couponHandler.Delete)
		couponGroup.POST("/validate", anyAuth, couponHandler.Validate)
	}

	// Orders. Any signed-in account can place and read; transitions and
	// deletion are console only.
	orderGroup := apiGroup.Group("/order")
	{
		orderGroup.GET("", anyAuth, orderHandler.List)
		orderGroup.POST("", anyAuth, orderHandler.Create)
		orderGroup.GET("/:id", anyAuth, orderHandler.Get)
		orderGroup.PATCH("/:id", adminAuth, orderHandler.UpdateStatus)
		orderGroup.DELETE("/:id", adminAuth, orderHandler.Delete)
	}

	// Console accounts.
	adminGroup := apiGroup.Group("/admin", adminAuth)
	{
		adminGroup.GET("", adminHandler.List)
		adminGroup.POST("", adminHandler.Create)
		adminGroup.PUT("/:id", adminHandler.Update)
		adminGroup.PATCH("/:id", adminHandler.Update)
		adminGroup.DELETE("/:id", adminHandler.Delete)
	}

	// Broadcast messages. Reading is public so dashboards can render the
	// banner before sign-in; publishing is console only.
	apiGroup.GET("/message", messageHandler.Get)
	apiGroup.POST("/message", adminAuth, messageHandler.Publish)

	// Display resources: public reads, console-only writes.
	apiGroup.GET("/quick-links", miscHandler.ListQuickLinks)
	apiGroup.POST("/quick-links", adminAuth, miscHandler.CreateQuickLink)
	apiGroup.DELETE("/quick-links/:id", adminAuth, miscHandler.DeleteQuickLink)

	apiGroup.GET("/category", miscHandler.ListCategories)
	apiGroup.POST("/category", adminAuth, miscHandler.CreateCategory)

	apiGroup.GET("/subscription", miscHandler.ListSubscriptions)
	apiGroup.POST("/subscription", adminAuth, miscHandler.CreateSubscription)

	apiGroup.GET("/settings", miscHandler.ListSettings)
	apiGroup.PUT("/settings/:key", adminAuth, miscHandler.PutSetting)
}
