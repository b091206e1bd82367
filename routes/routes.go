package routes

import (
	"giftshop/controllers"
	"giftshop/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *controllers.Handler, authn middleware.Authenticator) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/logout", middleware.AuthMiddleware(authn), h.Logout)

		api.GET("/products", h.GetProductsPublic)
		api.GET("/products/:id", h.GetProductPublic)
		api.GET("/categories", h.GetCategories)
		api.GET("/occasions", h.GetOccasions)
		api.GET("/blogs", h.GetBlogsPublic)
		api.GET("/blogs/:slug", h.GetBlogBySlug)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(authn))
		{
			admin := protected.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.POST("/products", h.CreateProduct)
				admin.PUT("/products/:id", h.UpdateProduct)
				admin.DELETE("/products/:id", h.DeleteProduct)
				admin.GET("/products", h.GetProductsAdmin)

				admin.POST("/categories", h.CreateCategory)
				admin.PUT("/categories/:id", h.UpdateCategory)
				admin.DELETE("/categories/:id", h.DeleteCategory)

				admin.POST("/occasions", h.CreateOccasion)
				admin.PUT("/occasions/:id", h.UpdateOccasion)
				admin.DELETE("/occasions/:id", h.DeleteOccasion)

				admin.GET("/blogs", h.GetBlogsAdmin)
				admin.POST("/blogs", h.CreateBlog)
				admin.PUT("/blogs/:id", h.UpdateBlog)
				admin.DELETE("/blogs/:id", h.DeleteBlog)

				admin.GET("/orders", h.GetOrdersAdmin)
				admin.GET("/orders/:id", h.GetOrderByIDAdmin)
				admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
				admin.PUT("/orders/:id/cancel", h.CancelOrderAdmin)
			}

			user := protected.Group("/user")
			{
				user.POST("/cart", h.AddToCart)
				user.GET("/cart", h.GetCart)
				user.PUT("/cart/:productId", h.UpdateCart)
				user.DELETE("/cart/:productId", h.RemoveFromCart)
				user.DELETE("/cart", h.ClearCart)

				user.POST("/wishlist", h.AddToWishlist)
				user.GET("/wishlist", h.GetWishlist)
				user.DELETE("/wishlist/:productId", h.RemoveFromWishlist)
				user.POST("/wishlist/:productId/move-to-cart", h.MoveWishlistToCart)

				user.POST("/checkout", h.Checkout)
				user.GET("/orders", h.GetOrders)
				user.GET("/orders/:id", h.GetOrder)
				user.PUT("/orders/:id/cancel", h.CancelOrder)
			}
		}
	}
}
