package http

import (
	"time"

	"scamfeed/internal/config"
	"scamfeed/internal/http/handlers"
	"scamfeed/internal/http/middleware"
	"scamfeed/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limits configures the request limiters
type Limits struct {
	APIRequests    int
	APIWindow      time.Duration
	AuthRequests   int
	AuthWindow     time.Duration
	SubmitRequests int
	SubmitWindow   time.Duration
}

func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		APIRequests:    cfg.APIRateLimit,
		APIWindow:      cfg.APIRateWindow,
		AuthRequests:   cfg.AuthRateLimit,
		AuthWindow:     cfg.AuthRateWindow,
		SubmitRequests: cfg.SubmitRateLimit,
		SubmitWindow:   time.Minute,
	}
}

// Server bundles everything the router needs
type Server struct {
	Handler       *handlers.Handler
	Health        *handlers.HealthHandler
	Tokens        middleware.TokenParser
	Hub           *ws.Hub
	Limits        Limits
	AllowedOrigin string
	UploadDir     string
	UploadPrefix  string
}

func RegisterRoutes(r *gin.Engine, s Server) {
	r.Use(middleware.RequestLogger(), cors(s.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", s.Health.Health)
	r.GET("/healthz", s.Health.Liveness)
	r.GET("/readyz", s.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.UploadDir != "" && s.UploadPrefix != "" {
		r.Static(s.UploadPrefix, s.UploadDir)
	}

	if s.Hub != nil {
		r.GET("/ws/feed", ws.HandleWS(s.Hub, s.Tokens, s.AllowedOrigin))
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(s.Limits.APIRequests, s.Limits.APIWindow))
	registerAPIRoutes(v1, s)
}

func registerAPIRoutes(api *gin.RouterGroup, s Server) {
	h := s.Handler
	auth := middleware.JWT(s.Tokens)
	authRL := middleware.RateLimit(s.Limits.AuthRequests, s.Limits.AuthWindow)
	submitRL := middleware.SubmitRateLimit(s.Limits.SubmitRequests, s.Limits.SubmitWindow)

	// Auth
	api.POST("/auth/register", authRL, h.Register)
	api.POST("/auth/login", authRL, h.Login)
	api.GET("/auth/me", auth, h.Me)

	// Feed
	posts := api.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", auth, submitRL, h.CreatePost)
		posts.POST("/analyze", auth, submitRL, h.AnalyzePost)
		posts.POST("/analyze-json", auth, submitRL, h.AnalyzeJSON)
		posts.GET("/stats/trending", h.TrendingTypes)
		posts.GET("/stats/summary", h.StatsSummary)
		posts.GET("/:id", h.GetPost)
		posts.POST("/:id/like", auth, h.LikePost)
		posts.GET("/:id/comments", h.ListComments)
		posts.POST("/:id/comments", auth, h.AddComment)
	}

	// Wallet
	wallet := api.Group("/wallet")
	wallet.Use(auth)
	{
		wallet.GET("", h.Wallet)
		wallet.GET("/status", h.WalletStatus)
		wallet.GET("/transactions", h.WalletTransactions)
		wallet.POST("/quiz", h.QuizAnswer)
		wallet.POST("/redeem", h.Redeem)
	}
}

// cors reflects the request origin, or only allowedOrigin when set
func cors(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
