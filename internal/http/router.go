package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/swiftfreight/quote-engine/internal/config"
	"github.com/swiftfreight/quote-engine/internal/http/handlers"
	"github.com/swiftfreight/quote-engine/internal/http/middleware"
	"github.com/swiftfreight/quote-engine/internal/service"

	_ "github.com/swiftfreight/quote-engine/docs"
)

func Router(cfg config.Config, svc *service.QuoteService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Reviewer-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Svc:       svc,
		Store:     svc.Store,
		Queue:     svc.Queue,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/quote", h.CreateQuote)
		api.POST("/intake", h.Intake)
		api.GET("/quotes", h.ListQuotes)
		api.GET("/quotes/:id", h.GetQuote)
		api.GET("/zips", h.ListZips)
	}

	reviewGroup := api.Group("/review")
	reviewGroup.Use(middleware.ReviewerKey(cfg.ReviewerKey))
	{
		reviewGroup.GET("/queue", h.ReviewQueue)
		reviewGroup.POST("/next", h.ClaimNext)
		reviewGroup.POST("/:id/decision", h.Decide)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
