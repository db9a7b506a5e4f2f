package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type RouterOptions struct {
	Logger  *zap.Logger
	Origins []string
	Service string
	// Gatherer backs /metrics; the default registry when nil.
	Gatherer prometheus.Gatherer
}

func NewRouter(h *Handler, o RouterOptions) *gin.Engine {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Gatherer == nil {
		o.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Trace(o.Service))
	r.Use(AccessLog(o.Logger))
	r.Use(Metrics())
	r.Use(CORS(o.Origins))

	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/.well-known/jwks.json", h.JWKS)

	api := r.Group("/api/auth")
	{
		api.POST("/signup", h.Signup)
		api.POST("/login", h.Login)
		api.GET("/google", h.GoogleStart)
		api.GET("/google/callback", h.GoogleCallback)
		api.POST("/logout", h.Logout)
		api.POST("/forgot-password", h.ForgotPassword)
		api.POST("/reset-password/:token", h.ResetPassword)
		api.GET("/me", RequireSession(h.Session), h.Me)
	}
	return r
}
