package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"football-trends/analysis"
	"football-trends/config"
	"football-trends/database"
	"football-trends/footballapi"
	"football-trends/logger"
	"football-trends/services"
	"football-trends/web"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Println("Starting football trends service...")

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	model, err := analysis.NewModel(cfg.Model)
	if err != nil {
		logger.Fatalf("Invalid model parameters: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := footballapi.NewClientWithConfig(footballapi.Config{
		BaseURL: cfg.FootballAPIBaseURL,
		APIKey:  cfg.FootballAPIKey,
		Host:    cfg.FootballAPIHost,
		Timeout: cfg.FootballAPITimeout,
	})

	cache := services.NewQueryCache(cfg.CacheTTL)
	go cache.StartCleanup(ctx, cfg.CacheCleanupInterval())
	provider := services.NewStatsProvider(client, cache, cfg.Model.FormWindow)

	wsHub := web.NewHub()
	go wsHub.Run(ctx)

	sinks := services.MultiSink{wsHub}

	var (
		db      *sql.DB
		history web.PredictionHistory
	)
	if cfg.DatabaseURL != "" {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Println("Database connected and migrated")

		store := services.NewPredictionStore(db)
		sinks = append(sinks, store)
		history = store
	} else {
		logger.Println("DATABASE_URL not set, prediction history disabled")
	}

	var publisher *services.AMQPPublisher
	if cfg.AMQPURL != "" {
		publisher = services.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err := publisher.Connect(); err != nil {
			// Publish redials, so a broker that comes up later is picked up
			logger.Errorf("AMQP connect failed: %v", err)
		} else {
			logger.Printf("Publishing predictions to exchange %s", cfg.AMQPExchange)
		}
		sinks = append(sinks, publisher)
	}

	svc := services.NewAnalysisService(provider, model, sinks, cfg.DefaultLeague, cfg.DefaultSeason)

	var liveFeed *services.LiveFeed
	if cfg.MQTTBroker != "" {
		liveFeed = services.NewLiveFeed(services.LiveFeedConfig{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, svc)
		if err := liveFeed.Connect(); err != nil {
			logger.Errorf("Live feed disabled: %v", err)
			liveFeed = nil
		}
	}

	server := web.NewServer(cfg, svc, cache, history, wsHub)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	logger.Printf("Service started on port %s (league %d, season %d)", cfg.Port, cfg.DefaultLeague, cfg.DefaultSeason)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down...")
	server.Stop()
	if liveFeed != nil {
		liveFeed.Disconnect()
	}
	if publisher != nil {
		publisher.Close()
	}
	cancel()
	time.Sleep(100 * time.Millisecond)
	logger.Println("Service stopped")
}
