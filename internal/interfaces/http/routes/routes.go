// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/favorite"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/pkg/cache"
	"github.com/your-org/storefront-api/internal/realtime"
	"gorm.io/gorm"
)

// Router holds the process-scoped services built while wiring routes.
type Router struct {
	Hub   *realtime.Hub
	Cache *cache.Cache
}

type services struct {
	jwt       *auth.JWTManager
	users     *user.Service
	admin     *user.AdminService
	products  *product.Service
	reviews   *product.ReviewService
	carts     *cart.Service
	favorites *favorite.Service
}

// SetupRoutes builds the services and registers every route on r: the API
// under /api/v1 and the recommendation socket at /ws.
func SetupRoutes(r *gin.Engine, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *Router {
	productCache := cache.New(redisClient, cfg.Cache.Prefix, cfg.Cache.ProductTTL)
	jwtManager := auth.NewJWTManager(cfg)

	products := product.NewService(db, productCache, log)
	reviews := product.NewReviewService(db, products)
	carts := cart.NewService(db, log)
	favorites := favorite.NewService(db)
	products.RegisterDeleteHook(carts)
	products.RegisterRepriceHook(carts)
	products.RegisterDeleteHook(favorites)

	svc := &services{
		jwt:       jwtManager,
		users:     user.NewService(db, cfg, jwtManager),
		admin:     user.NewAdminService(db, log, reviews, carts, favorites),
		products:  products,
		reviews:   reviews,
		carts:     carts,
		favorites: favorites,
	}

	hub := realtime.NewHub(jwtManager, cfg.Realtime, log)

	apiV1 := r.Group("/api/v1")
	setupAuthRoutes(apiV1, svc)
	setupProductRoutes(apiV1, svc, hub, cfg, log)
	setupReviewRoutes(apiV1, svc, cfg)
	setupCartRoutes(apiV1, svc, cfg)
	setupFavoriteRoutes(apiV1, svc, cfg)
	setupAdminRoutes(apiV1, svc, hub, cfg, log)

	r.GET("/ws", handlers.NewRealtimeHandler(hub, cfg, log).Connect)

	return &Router{Hub: hub, Cache: productCache}
}

func setupAuthRoutes(rg *gin.RouterGroup, svc *services) {
	authHandler := handlers.NewAuthHandler(svc.users)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)

		protected := authGroup.Group("")
		protected.Use(middleware.AuthMiddleware(svc.jwt))
		{
			protected.POST("/logout", authHandler.Logout)
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)
			protected.PUT("/password", authHandler.ChangePassword)
		}
	}
}

func setupProductRoutes(rg *gin.RouterGroup, svc *services, hub *realtime.Hub, cfg *config.Config, log *logrus.Logger) {
	productHandler := handlers.NewProductHandler(svc.products, hub, cfg, log)
	reviewHandler := handlers.NewReviewHandler(svc.reviews, cfg)

	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(svc.jwt))
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/categories", productHandler.GetCategories)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/reviews", reviewHandler.GetProductReviews)
		products.GET("/:id/reviews/summary", reviewHandler.GetReviewSummary)
		products.POST("/:id/reviews", middleware.AuthMiddleware(svc.jwt), reviewHandler.CreateReview)
	}
}

func setupReviewRoutes(rg *gin.RouterGroup, svc *services, cfg *config.Config) {
	reviewHandler := handlers.NewReviewHandler(svc.reviews, cfg)

	reviews := rg.Group("/reviews")
	{
		reviews.GET("/:id", reviewHandler.GetReview)

		protected := reviews.Group("")
		protected.Use(middleware.AuthMiddleware(svc.jwt))
		{
			protected.PUT("/:id", reviewHandler.UpdateReview)
			protected.DELETE("/:id", reviewHandler.DeleteReview)
		}
	}
}

func setupCartRoutes(rg *gin.RouterGroup, svc *services, cfg *config.Config) {
	cartHandler := handlers.NewCartHandler(svc.carts, cfg)

	cartGroup := rg.Group("/cart")
	cartGroup.Use(middleware.AuthMiddleware(svc.jwt))
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
		cartGroup.GET("/items", cartHandler.GetCartItems)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:id", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveFromCart)
	}
}

func setupFavoriteRoutes(rg *gin.RouterGroup, svc *services, cfg *config.Config) {
	favoriteHandler := handlers.NewFavoriteHandler(svc.favorites, cfg)

	favorites := rg.Group("/favorites")
	favorites.Use(middleware.AuthMiddleware(svc.jwt))
	{
		favorites.GET("", favoriteHandler.GetFavorites)
		favorites.POST("", favoriteHandler.AddFavorite)
		favorites.GET("/summary", favoriteHandler.GetSummary)
		favorites.GET("/:product_id/check", favoriteHandler.CheckFavorite)
		favorites.DELETE("/:product_id", favoriteHandler.RemoveFavorite)
	}
}

func setupAdminRoutes(rg *gin.RouterGroup, svc *services, hub *realtime.Hub, cfg *config.Config, log *logrus.Logger) {
	productHandler := handlers.NewProductHandler(svc.products, hub, cfg, log)
	userAdminHandler := handlers.NewUserAdminHandler(svc.admin, cfg)

	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(svc.jwt))
	admin.Use(middleware.AdminMiddleware())
	{
		products := admin.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.POST("", productHandler.AdminCreateProduct)
			products.PUT("/:id", productHandler.AdminUpdateProduct)
			products.DELETE("/:id", productHandler.AdminDeleteProduct)
		}

		users := admin.Group("/users")
		{
			users.GET("", userAdminHandler.GetUsers)
			users.GET("/:id", userAdminHandler.GetUser)
			users.PUT("/:id/status", userAdminHandler.UpdateUserStatus)
			users.PUT("/:id/admin", userAdminHandler.ToggleAdminStatus)
			users.DELETE("/:id", userAdminHandler.DeleteUser)
		}
	}
}
