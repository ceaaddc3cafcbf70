package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/freshmart/api/internal/handlers"
	"github.com/freshmart/api/internal/identity"
)

type Deps struct {
	DB            *gorm.DB
	Identity      *identity.Middleware
	Products      *handlers.ProductHandler
	Orders        *handlers.OrderHandler
	Feedback      *handlers.FeedbackHandler
	Notifications *handlers.NotificationHandler
	Admin         *handlers.AdminHandler
	Search        *handlers.SearchHandler
	Me            *handlers.MeHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.GET("/products", d.Products.GetProducts)
	v1.GET("/products/:id", d.Products.GetProduct)
	v1.GET("/search", d.Search.Search)

	authed := v1.Group("", d.Identity.Require)

	authed.GET("/me", d.Me.Me)
	authed.POST("/feedback/:productId", d.Feedback.CreateFeedback)
	authed.GET("/feedback/:productId", d.Feedback.ListFeedback)
	authed.POST("/orders", d.Orders.PlaceOrder)
	authed.GET("/orders", d.Orders.ListOrders)

	admin := v1.Group("/admin", d.Identity.Require, d.Identity.AdminOnly)

	admin.POST("/products", d.Products.CreateProduct)
	admin.PUT("/products/:id", d.Products.UpdateProduct)
	admin.PATCH("/products/:id", d.Products.PatchProduct)
	admin.DELETE("/products/:id", d.Products.DeleteProduct)
	admin.POST("/products/:id/auto-adjust", d.Products.AutoAdjust)
	admin.POST("/broadcast", d.Notifications.Broadcast)
	admin.GET("/analytics/overview", d.Admin.Overview)
	admin.GET("/analytics/ratings", d.Admin.Ratings)
	admin.GET("/analytics/demand", d.Admin.Demand)
	admin.GET("/analytics/price-trends/:productId", d.Admin.PriceTrends)
}
