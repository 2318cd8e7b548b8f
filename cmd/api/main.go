package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shirapay/shirapay/internal/config"
	"github.com/shirapay/shirapay/internal/events"
	gateway "github.com/shirapay/shirapay/internal/gateways"
	"github.com/shirapay/shirapay/internal/handlers"
	"github.com/shirapay/shirapay/internal/repository"
	"github.com/shirapay/shirapay/internal/services"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/shirapay/shirapay/pkg/logger"
	"github.com/shirapay/shirapay/pkg/pg"
	"github.com/shirapay/shirapay/pkg/prom"
	"github.com/shirapay/shirapay/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Error("failed to create metrics", "error", err)
		}
		if config.Get().AppDebugMetricsAddr != "" {
			go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}
	}

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 15))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	stream, err := events.NewStream(redisAdap, events.StreamConfig{
		Name:              config.Get().EventStreamName,
		ConsumerGroup:     config.Get().EventStreamConsumerGroup,
		ConsumerName:      config.Get().EventStreamConsumerName,
		MaxDeliveries:     config.Get().EventStreamMaxRetries,
		VisibilityTimeout: config.Get().EventStreamVisibilityTimeout,
		PollInterval:      config.Get().EventStreamPollInterval,
		BatchSize:         config.Get().EventStreamBatchSize,
		MaxLen:            config.Get().EventStreamMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event stream", "error", err)
		return
	}

	paystack, err := gateway.NewPaystackClient(gateway.PaystackConfig{
		BaseURL:   config.Get().PaystackBaseURL,
		SecretKey: config.Get().PaystackSecretKey,
		Timeout:   config.Get().PaystackTimeout,
	})
	if err != nil {
		logger.Error("failed creating paystack client", "error", err)
		return
	}

	transactionRepo := repository.NewTransactionRepository(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)

	publisher := events.NewStreamPublisher(stream)
	replayGuard := events.NewReplayGuard(redisAdap, 24*time.Hour)

	// services
	transactionService := services.NewTransactionService(transactionRepo, userRepo, orgRepo, paystack, publisher)
	userService := services.NewUserService(userRepo)
	orgService := services.NewOrganizationService(orgRepo)

	// v1 handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	webhookHandler := handlers.NewWebhookHandler(transactionService, replayGuard, config.Get().PaystackWebhookSecret)
	userHandler := handlers.NewUserHandler(userService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	healthHandler := handlers.NewHealthHandler()

	g := s.Router.Group("/api/v1")
	handlers.RegisterTransactionRoutes(g, transactionHandler)
	handlers.RegisterWebhookRoutes(g, webhookHandler)
	handlers.RegisterUserRoutes(g, userHandler)
	handlers.RegisterOrganizationRoutes(g, orgHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	if config.Get().AssistBaseURL != "" {
		assist, err := gateway.NewAssistClient(gateway.AssistConfig{
			BaseURL: config.Get().AssistBaseURL,
			APIKey:  config.Get().AssistAPIKey,
			Timeout: config.Get().AssistTimeout,
		})
		if err != nil {
			logger.Error("failed creating assist client", "error", err)
			return
		}
		assistService := services.NewAssistService(assist, assist, orgRepo)
		handlers.RegisterAssistRoutes(g, handlers.NewAssistHandler(assistService))
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(config.Get().HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	logger.Info("api started", "version", version, "commit", commit, "build_date", date)

	<-c
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
