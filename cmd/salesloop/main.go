package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/andreguimel/salesloop-kit-sub001/internal/abacatepay"
	"github.com/andreguimel/salesloop-kit-sub001/internal/audit"
	"github.com/andreguimel/salesloop-kit-sub001/internal/handlers"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ledger"
	"github.com/andreguimel/salesloop-kit-sub001/internal/lookup"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/cnpjws"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/ibge"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/receitaws"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/serper"
	"github.com/andreguimel/salesloop-kit-sub001/internal/providers/zapi"
	"github.com/andreguimel/salesloop-kit-sub001/internal/ratelimit"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/auth"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/config"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/database"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/logging"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/monitoring"
	"github.com/andreguimel/salesloop-kit-sub001/pkg/server"
)

var version = "dev"

func main() {
	logger := logging.NewLoggerWithService("salesloop")
	config.LoadEnv(logger)

	jwtSecret := config.RequireEnv("JWT_SECRET")
	cnpjwsToken := config.RequireEnv("CNPJ_WS_TOKEN")
	serperKey := config.RequireEnv("SERPER_API_KEY")
	abacateKey := config.RequireEnv("ABACATEPAY_API_KEY")
	webhookSecret := config.RequireEnv("ABACATEPAY_WEBHOOK_SECRET")
	webhookHMACKey := config.GetEnv("ABACATEPAY_WEBHOOK_HMAC_KEY", "")

	dbCfg := database.DefaultConfig()
	dbCfg.URL = config.RequireEnv("DATABASE_URL")
	db := database.MustConnect(dbCfg, logger)
	defer db.Close()

	if err := database.ApplySchema(context.Background(), db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.GetEnv("REDIS_ADDR", "localhost:6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetEnvInt("REDIS_DB", 0),
	})
	defer redisClient.Close()

	lookupService := lookup.NewService(
		receitaws.NewClient(),
		cnpjws.NewClient(cnpjwsToken),
		serper.NewClient(serperKey),
		ibge.NewClient(),
	)

	zapiClient := zapi.NewClient(
		config.RequireEnv("ZAPI_INSTANCE_ID"),
		config.RequireEnv("ZAPI_TOKEN"),
		config.GetEnv("ZAPI_CLIENT_TOKEN", ""),
	)

	metricsCollector := monitoring.NewMetricsCollector("salesloop", version, config.GetEnv("GIT_COMMIT", "unknown"))

	handlers.Init(handlers.Config{
		DB:             db,
		Logger:         logger,
		Lookup:         lookupService,
		Ledger:         ledger.New(db, logger),
		Limiter:        ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient), logger),
		Auditor:        audit.NewRecorder(db, logger),
		Payments:       abacatepay.NewClient(abacateKey),
		PhoneChecker:   zapiClient,
		Metrics:        metricsCollector,
		WebhookSecret:  webhookSecret,
		WebhookHMACKey: webhookHMACKey,
	})

	healthChecker := monitoring.NewHealthChecker("salesloop", version)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"JWT_SECRET":         jwtSecret,
		"CNPJ_WS_TOKEN":      cnpjwsToken,
		"SERPER_API_KEY":     serperKey,
		"ABACATEPAY_API_KEY": abacateKey,
	}))

	router := server.SetupServiceRouter(logger, "salesloop", healthChecker, metricsCollector)

	authRequired := auth.JWTAuthMiddleware([]byte(jwtSecret))

	lookupGroup := router.Group("/lookup", authRequired)
	{
		lookupGroup.POST("/cnpj", handlers.LookupCNPJ)
		lookupGroup.POST("/cnae", handlers.LookupCNAE)
		lookupGroup.POST("/cep", handlers.LookupCEP)
		lookupGroup.POST("/search", handlers.LookupSearch)
		lookupGroup.POST("/companies", handlers.SearchCompanies)
		lookupGroup.GET("/cnaes", handlers.GetCNAECatalog)
	}

	checkoutGroup := router.Group("/checkout", authRequired)
	{
		checkoutGroup.POST("", handlers.CreateCheckout)
		checkoutGroup.POST("/status", handlers.CheckPaymentStatus)
	}

	creditsGroup := router.Group("/credits", authRequired)
	{
		creditsGroup.GET("/balance", handlers.GetBalance)
		creditsGroup.GET("/packages", handlers.GetPackages)
		creditsGroup.GET("/transactions", handlers.GetTransactions)
	}

	router.POST("/phones/validate", authRequired, handlers.ValidatePhones)

	// webhook authenticates by shared secret, not bearer token
	router.POST("/webhooks/abacatepay", handlers.AbacatePayWebhook)

	if err := server.Start(server.DefaultConfig("salesloop", "8080"), router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}
