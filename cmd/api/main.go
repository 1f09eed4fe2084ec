package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/fairyhunter13/storefront-pricing/internal/config"
	"github.com/fairyhunter13/storefront-pricing/internal/handler"
	"github.com/fairyhunter13/storefront-pricing/internal/metrics"
	"github.com/fairyhunter13/storefront-pricing/internal/repository"
	"github.com/fairyhunter13/storefront-pricing/internal/service"
	"github.com/fairyhunter13/storefront-pricing/internal/validator"
	"github.com/fairyhunter13/storefront-pricing/pkg/database"
)

const connectRetries = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Coupon registry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), connectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Product catalog
	mongoClient, err := database.NewMongoClient(ctx, cfg.Mongo.URI, connectRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to catalog")
	}
	products := mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.ProductsCollection)

	var couponRepo service.CouponRepositoryInterface = repository.NewCouponRepository(pool)
	health := []handler.Dependency{
		{Name: "database", Pinger: pool},
		{Name: "catalog", Pinger: handler.PingerFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		})},
	}

	// Coupon cache, optional
	var closeCache func() error
	if ttl := cfg.Redis.CouponCacheTTL(); ttl > 0 {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, connectRetries)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to coupon cache")
		}
		couponRepo = repository.NewCachedCouponRepository(couponRepo, rdb, ttl)
		health = append(health, handler.Dependency{Name: "cache", Pinger: handler.PingerFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})})
		closeCache = rdb.Close
	} else {
		log.Info().Msg("coupon cache disabled")
	}
	catalogRepo := repository.NewCatalogRepository(products)

	app := fiber.New(fiber.Config{
		AppName:      "Storefront Pricing",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())

	validate := validator.New()

	couponService := service.NewCouponService(couponRepo)
	pricingService := service.NewPricingService(couponRepo, catalogRepo, cfg.Pricing.Timeout())
	catalogService := service.NewCatalogService(catalogRepo)

	couponHandler := handler.NewCouponHandler(couponService, validate)
	verifyHandler := handler.NewVerifyHandler(pricingService, validate, cfg.Pricing.CurrencySymbol)
	productHandler := handler.NewProductHandler(catalogService, validate)
	healthHandler := handler.NewHealthHandler(health...)

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Verify is registered before the :code route so it is never read as a code
	app.Post("/api/coupons/verify", verifyHandler.VerifyCoupon)
	app.Post("/api/coupons", couponHandler.CreateCoupon)
	app.Get("/api/coupons/:code", couponHandler.GetCoupon)
	app.Post("/api/products/lookup", productHandler.LookupProducts)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Backends close after the server so in-flight verifications can finish
	log.Info().Msg("closing backend connections...")
	pool.Close()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error disconnecting catalog")
	}
	if closeCache != nil {
		if err := closeCache(); err != nil {
			log.Error().Err(err).Msg("error closing coupon cache")
		}
	}
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
