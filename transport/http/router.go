package http

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/learnchain/ports"
	"github.com/layer-3/learnchain/service"
	"github.com/rs/zerolog"
)

// Config holds the transport options.
type Config struct {
	// Wallet signs on behalf of users that do not send a signature. Nil
	// disables server side signing.
	Wallet       ports.Wallet
	Logger       zerolog.Logger
	CORSOrigins  []string
	SecureCookie bool
}

// SetupRouter sets up the Gin router
func SetupRouter(sessions *service.SessionService, marketplace *service.MarketplaceService, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(CORS(cfg.CORSOrigins))
	}

	handlers := NewHandlers(sessions, marketplace, cfg.Wallet, cfg.SecureCookie)

	router.GET("/healthz", handlers.Healthz)
	router.POST("/login", handlers.Login)
	router.POST("/signup", handlers.Signup)

	// Page routes behind the session gate
	gated := router.Group("/", AuthGate(sessions))
	{
		gated.POST("/logout", handlers.Logout)
		gated.GET("/session", handlers.Session)
		gated.GET("/marketplace", handlers.Marketplace)
		gated.POST("/marketplace/:uuid/buy", handlers.BuyCourse)
		gated.GET("/my-courses", handlers.MyCourses)
		gated.POST("/my-courses", handlers.MyCourses)
		gated.GET("/my-courses/:uuid", handlers.CourseDetail)
		gated.POST("/create-course", handlers.CreateCourse)
	}

	return router
}
