package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uitvaartpay/internal/clients"
	"uitvaartpay/internal/config"
	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/events"
	"uitvaartpay/internal/rail"
	"uitvaartpay/internal/repository"
	"uitvaartpay/internal/service"
	"uitvaartpay/internal/transport/rest"
	"uitvaartpay/internal/transport/websocket"
	"uitvaartpay/pkg/database/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	db := mustInitPostgres(cfg.Postgres)
	defer postgres.Close(db)

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	streamClient := clients.NewEventStreamClient(wsHub)

	sinks := events.Fanout{streamClient}
	if cfg.AMQP.URI != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQP.URI)
		if err != nil {
			log.Fatalf("amqp init error: %v", err)
		}
		amqpSink := events.NewPublisherSink(publisher, cfg.AMQP.Topic)
		defer amqpSink.Close()
		sinks = append(sinks, amqpSink)
	}

	intentRepo := repository.NewPaymentIntentRepository(db)
	refundRepo := repository.NewRefundRepository(db)
	disputeRepo := repository.NewDisputeRepository(db)

	rails := rail.NewRegistry(
		rail.NewStripeGateway(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret),
		rail.NewBankTransferGateway(cfg.BankTransfer.BaseURL, cfg.BankTransfer.APIKey, cfg.BankTransfer.WebhookSecret),
	)

	splitSvc := service.NewSplitService(
		domain.FeeStructure{
			FamilyFee:                domain.NewMoney(cfg.Fees.FamilyFeeCents, cfg.Fees.Currency),
			ProviderCommissionRate:   cfg.Fees.ProviderCommissionRate,
			MunicipalBurialReduction: cfg.Fees.MunicipalBurialReduction,
			PlatformFeeRate:          cfg.Fees.PlatformFeeRate,
		},
		service.EligibilityPolicy{
			AmountCeiling:     domain.NewMoney(cfg.Eligibility.AmountCeilingCents, cfg.Fees.Currency),
			AllowedCategories: cfg.Eligibility.AllowedCategories,
			RequiredDocuments: cfg.Eligibility.RequiredDocuments,
		},
	)
	paymentSvc := service.NewPaymentService(rails, intentRepo, splitSvc, sinks)
	refundSvc := service.NewRefundService(intentRepo, refundRepo, rails, sinks)
	disputeSvc := service.NewDisputeService(disputeRepo, intentRepo, refundSvc, streamClient, sinks)

	deduper := service.NewRedisDeduper(redisClient, 72*time.Hour)
	webhookSvc := service.NewWebhookService(rails, deduper, paymentSvc, refundSvc, disputeSvc)

	handler := rest.NewHandler(splitSvc, paymentSvc, refundSvc, disputeSvc, webhookSvc)
	router := handler.InitRouter()

	// event stream for downstream consumers: the full firehose or one
	// provider's notifications
	router.Get("/events/stream", func(w http.ResponseWriter, r *http.Request) {
		channel := clients.EventStreamChannel
		if providerID := r.URL.Query().Get("provider_id"); providerID != "" {
			channel = clients.ProviderChannel(providerID)
		}
		wsHub.HandleWebSocket(w, r, channel)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run HTTP server in goroutine so we can listen for shutdown signals
	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// Listen for OS shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		// Give server up to 10 seconds to finish ongoing requests
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		// Cancel top-level context so background services (websocket hub) stop
		cancel()

		postgres.Close(db)
		redisClient.Close()

		log.Println("Shutdown complete")
	}
}

func mustInitPostgres(cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}
