// Command matching-engine wires configuration, the matching core, its
// persistence/journal/messaging collaborators, and the HTTP/WebSocket
// transport into one running process.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/config"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/engine"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventbus"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/eventjournal"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/fees"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/logging"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/messaging"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/persistence"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/pricecache"
	"github.com/Prajwaal25/CRYPTO-MATCHING-ENGINE/internal/trading/transport"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML/JSON configuration file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	bus := eventbus.New(logger)
	calc := fees.NewCalculator(logger)
	eng := engine.New(logger, bus, calc, cfg.SymbolConfigs(), cfg.MaxCascadeDepth)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		eng.SetPriceCache(pricecache.New(redisClient, "", logger))
	}

	store := persistence.NewStore(cfg.SnapshotDir, logger)
	if err := store.ImportAll(eng); err != nil {
		logger.Fatal("failed to import order book snapshots", zap.Error(err))
	}

	journal, err := eventjournal.New(cfg.EventJournal, logger)
	if err != nil {
		logger.Fatal("failed to open trade journal", zap.Error(err))
	}
	for _, symbol := range eng.Symbols() {
		journal.Subscribe(bus, symbol)
	}

	var publisher *messaging.TradePublisher
	if cfg.Kafka.Enabled {
		client := messaging.NewKafkaClient(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Group, logger)
		publisher = messaging.NewTradePublisher(client, logger)
		for _, symbol := range eng.Symbols() {
			publisher.Subscribe(bus, symbol)
		}
		defer client.Close()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	handler := transport.NewHandler(eng, logger)
	if publisher != nil {
		handler.SetHealthChecker(publisher.Healthy)
	}
	transport.RegisterRoutes(router, handler)
	router.GET("/healthz", handler.Healthz)
	metricsHandler := promhttp.Handler()
	router.GET("/metrics", func(c *gin.Context) { metricsHandler.ServeHTTP(c.Writer, c.Request) })

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: router}
	go func() {
		logger.Info("starting matching engine HTTP server", zap.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if publisher != nil {
		publisher.Close()
	}
	if err := journal.Close(); err != nil {
		logger.Error("failed to close trade journal", zap.Error(err))
	}

	if err := store.ExportAll(eng); err != nil {
		logger.Error("failed to export order book snapshots", zap.Error(err))
	}
	eng.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}
