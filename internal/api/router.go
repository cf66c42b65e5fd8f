package api

import (
	"regexp"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/gossip-server/config"
	_ "github.com/d60-Lab/gossip-server/docs"
	"github.com/d60-Lab/gossip-server/internal/api/handler"
	"github.com/d60-Lab/gossip-server/internal/api/middleware"
	"github.com/d60-Lab/gossip-server/internal/service"
	"github.com/d60-Lab/gossip-server/pkg/response"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernameRe.MatchString(fl.Field().String())
		})
	}
}

// NewRouter 组装中间件与全部路由
func NewRouter(cfg *config.Config, h *handler.Handler, authSvc service.AuthService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Otel.Enabled {
		r.Use(otelgin.Middleware("gossip-server"))
	}
	if cfg.RateLimit.RPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	r.GET("/healthz", func(c *gin.Context) { response.Success(c, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.Auth(authSvc)
	v1 := r.Group("/api/v1")
	{
		ag := v1.Group("/auth")
		{
			ag.POST("/register", h.Register)
			ag.POST("/verify-otp", h.VerifyOtp)
			ag.POST("/resend-otp", h.ResendOtp)
			ag.POST("/login", h.Login)
			ag.POST("/refresh", h.Refresh)
			ag.POST("/logout", h.Logout)
			ag.GET("/me", auth, h.Me)
			ag.GET("/username-available", h.UsernameAvailable)
		}

		fg := v1.Group("/follows", auth)
		{
			fg.POST("/request", h.SendFollowRequest)
			fg.POST("/accept", h.AcceptFollowRequest)
			fg.POST("/reject", h.RejectFollowRequest)
			fg.POST("/cancel", h.CancelFollowRequest)
			fg.POST("/unfollow", h.Unfollow)
			fg.GET("/requests", h.GetPendingRequests)
			fg.GET("/status/:user_id", h.GetRelationshipStatus)
			fg.GET("/connections", h.GetConnections)
		}

		ug := v1.Group("/users", auth)
		{
			ug.GET("/search", h.SearchUsers)
			ug.GET("/:user_id", h.GetUserByID)
			ug.GET("/:user_id/followers", h.GetFollowers)
		}

		ng := v1.Group("/notifications", auth)
		{
			ng.GET("", h.ListNotifications)
			ng.POST("/:id/read", h.MarkNotificationRead)
		}

		rg := v1.Group("/recent-searches", auth)
		{
			rg.GET("", h.ListRecentSearches)
			rg.POST("", h.SaveRecentSearch)
			rg.DELETE("/:user_id", h.DeleteRecentSearch)
		}
	}
	return r
}
