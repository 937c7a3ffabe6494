package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/config"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/logger"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/notification"
	"github.com/junaidrashid-git/storefront-api/routes"
	"github.com/junaidrashid-git/storefront-api/services/cart"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/services/order"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger isn't configured yet
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.Info().Str("env", cfg.AppEnv).Msg("starting storefront api")

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("auto migrate failed")
	}

	var cache catalog.ProductCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, product cache disabled")
		} else {
			cache = catalog.NewRedisCache(rdb)
		}
		cancel()
	}
	store := catalog.NewStore(db, cache, log)

	carts := cart.NewService(db, store, cart.PricingPolicy{
		StrictPricing:        cfg.StrictPricing,
		RemoveAtCurrentPrice: cfg.CartRemovalPricing == "current",
	}, log)

	var notifier notification.Gateway
	if cfg.WhatsAppAPIURL != "" {
		notifier = notification.NewWhatsApp(notification.WhatsAppConfig{
			URL:        cfg.WhatsAppAPIURL,
			Token:      cfg.WhatsAppToken,
			From:       cfg.WhatsAppFrom,
			Timeout:    cfg.NotifyTimeout,
			MaxRetries: cfg.NotifyMaxRetries,
		}, log)
	} else {
		log.Warn().Msg("WHATSAPP_API_URL not set, order notifications will only be logged")
		notifier = notification.NewLogGateway(log)
	}

	hub := events.NewHub(log)
	publishers := events.Multi{hub}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(brokers, cfg.KafkaOrderTopic, log)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.Error().Err(err).Msg("close kafka writer")
			}
		}()
		publishers = append(publishers, kafkaPublisher)
	}

	// every attempt plus a little slack for the backoff between them
	notifyBudget := cfg.NotifyTimeout*time.Duration(cfg.NotifyMaxRetries+1) + 2*time.Second
	orders := order.NewService(db, notifier, publishers, order.Options{
		ClearCartOnOrder:      cfg.ClearCartOnOrder,
		EmptyOrdersAsNotFound: cfg.EmptyOrdersAsNotFound,
		NotifyTimeout:         notifyBudget,
	}, log)

	tokens := auth.NewTokenMaker(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(db, tokens, cfg.Admins(), log)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log))

	origins := cfg.AllowedOrigins()
	r.Use(cors.New(middleware.CORSConfig(origins)))

	// product images
	r.MaxMultipartMemory = 32 << 20
	r.Static("/uploads", cfg.UploadsDir)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupRoutes(r, routes.Services{
		DB:             db,
		Tokens:         tokens,
		Auth:           authService,
		Catalog:        store,
		Cart:           carts,
		Orders:         orders,
		OrderFeed:      hub,
		UploadsDir:     cfg.UploadsDir,
		AllowedOrigins: origins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: notifyBudget + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
