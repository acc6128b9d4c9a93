package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/atsaeid/weather-wise-api/api/swagger"
	"github.com/atsaeid/weather-wise-api/internal/handler"
	"github.com/atsaeid/weather-wise-api/internal/middleware"
	"github.com/atsaeid/weather-wise-api/internal/repository"
	"github.com/atsaeid/weather-wise-api/internal/service"
	"github.com/atsaeid/weather-wise-api/pkg/cache"
	"github.com/atsaeid/weather-wise-api/pkg/config"
	"github.com/atsaeid/weather-wise-api/pkg/database"
	"github.com/atsaeid/weather-wise-api/pkg/logger"
	corsmiddleware "github.com/atsaeid/weather-wise-api/pkg/middleware/cors"
	reqidmiddleware "github.com/atsaeid/weather-wise-api/pkg/middleware/requestid"
)

// @title WeatherWise API
// @version 1.0.0
// @description Backend-for-frontend for the WeatherWise client
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := database.Migrate(migrateCtx, db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	// Redis is optional: without it weather responses are fetched
	// upstream on every request.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, weather caching disabled", zap.Error(err))
		redisClient = nil
	}

	issuer, err := service.NewTokenIssuer(cfg.JWT)
	if err != nil {
		logr.Fatal("invalid token signing configuration", zap.Error(err))
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	pushRepo := repository.NewPushRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.WeatherTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, tokenRepo, issuer, validate, logr, cfg.JWT.RefreshExpiry)
	weatherSvc := service.NewWeatherService(cfg.Weather, favoriteRepo, cacheSvc, metricsSvc, logr)
	mapSvc := service.NewMapService(cfg.Map, metricsSvc, logr)
	favoritesSvc := service.NewFavoritesService(favoriteRepo, weatherSvc, logr)
	pushSvc := service.NewPushService(cfg.Push, pushRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	weatherHandler := handler.NewWeatherHandler(weatherSvc)
	mapHandler := handler.NewMapHandler(mapSvc)
	favoritesHandler := handler.NewFavoritesHandler(favoritesSvc)
	pushHandler := handler.NewPushHandler(pushSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/revoke", authHandler.Revoke)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	weather := api.Group("/weather", middleware.OptionalJWT(authSvc))
	{
		weather.GET("/coordinates", weatherHandler.GetByCoordinates)
		weather.GET("/search", weatherHandler.Search)
		weather.GET("/:location", weatherHandler.GetByLocation)
	}

	api.GET("/map/static", mapHandler.GetStaticMap)

	favorites := api.Group("/favorites", middleware.JWT(authSvc))
	{
		favorites.GET("", favoritesHandler.List)
		favorites.POST("/:location", favoritesHandler.Add)
		favorites.DELETE("/:location", favoritesHandler.Remove)
	}

	push := api.Group("/push")
	{
		push.GET("/vapid-public-key", pushHandler.PublicKey)
		push.POST("/subscribe", middleware.JWT(authSvc), pushHandler.Subscribe)
		push.DELETE("/unsubscribe", middleware.JWT(authSvc), pushHandler.Unsubscribe)
		push.POST("/test", middleware.JWT(authSvc), pushHandler.Test)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
