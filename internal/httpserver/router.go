package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/echoshop/pkg/middleware/auth"
	"github.com/Skotchmaster/echoshop/pkg/logging"
)

type Deps struct {
	Products *ProductHTTP
	Users    *UserHTTP
	Orders   *OrderHTTP
	Carts    *CartHTTP
	Uploads  *UploadHTTP
	Config   *ConfigHTTP
	Auth     *middleware.SessionAuth

	// UploadDir is served under /uploads when set.
	UploadDir string
	// Ready backs /health/ready. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Warn("not_ready", "status", 503, "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	api := e.Group("/api")
	auth := d.Auth

	products := api.Group("/products")
	products.GET("", d.Products.GetProducts)
	products.GET("/top", d.Products.GetTopProducts)
	products.GET("/:id", d.Products.GetProduct)
	products.POST("/:id/reviews", d.Products.CreateReview, auth.RequireAuth)

	adminProducts := products.Group("", auth.RequireAdmin)
	adminProducts.POST("", d.Products.CreateProduct)
	adminProducts.PUT("/:id", d.Products.UpdateProduct)
	adminProducts.DELETE("/:id", d.Products.DeleteProduct)

	users := api.Group("/users")
	users.POST("", d.Users.Register)
	users.POST("/register", d.Users.Register)
	users.POST("/auth", d.Users.Login)
	users.POST("/logout", d.Users.Logout)
	users.GET("/profile", d.Users.GetProfile, auth.RequireAuth)
	users.PUT("/profile", d.Users.UpdateProfile, auth.RequireAuth)

	adminUsers := users.Group("", auth.RequireAdmin)
	adminUsers.GET("", d.Users.ListUsers)
	adminUsers.GET("/:id", d.Users.GetUser)
	adminUsers.PUT("/:id", d.Users.UpdateUser)
	adminUsers.DELETE("/:id", d.Users.DeleteUser)

	orders := api.Group("/orders", auth.RequireAuth)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/mine", d.Orders.MyOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.PUT("/:id/pay", d.Orders.PayOrder)

	adminOrders := api.Group("/orders", auth.RequireAdmin)
	adminOrders.GET("", d.Orders.ListOrders)
	adminOrders.PUT("/:id/deliver", d.Orders.DeliverOrder)

	cart := api.Group("/cart", auth.RequireAuth)
	cart.GET("", d.Carts.GetCart)
	cart.PUT("", d.Carts.PutCart)
	cart.DELETE("", d.Carts.ClearCart)

	api.POST("/upload", d.Uploads.UploadImage, auth.RequireAuth)
	api.GET("/config/paypal", d.Config.PayPal)
}
