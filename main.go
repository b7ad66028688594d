// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"moveup-booking/cmd"
	"moveup-booking/internal/data/repository"
	"moveup-booking/internal/events"
	"moveup-booking/internal/gateway"
	"moveup-booking/internal/pricing"
	"moveup-booking/internal/usecase"
	"moveup-booking/internal/wire"
	"moveup-booking/pkg/database"
	"moveup-booking/pkg/lock"
	"moveup-booking/pkg/mq"
	"moveup-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("storage", config.App.Storage),
		zap.String("gateway", config.Payment.Gateway),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var repos *repository.Repository
	switch config.App.Storage {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		repos = repository.NewMemoryRepository()
	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		logger.Info("Database connected successfully")
		repos = repository.NewRepository(db, logger)
	}

	deps, cleanup, err := buildDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize adapters", zap.Error(err))
	}
	defer cleanup()

	// Wire all dependencies
	app := wire.Wiring(repos, config, deps, logger)

	sweeper := usecase.NewNoShowSweeper(app.Service.Booking, config.Booking.NoShowGrace, config.Booking.SweepInterval, logger)
	go sweeper.Run(ctx)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}

// buildDeps picks the locker, publisher and payment gateway from config.
// cleanup closes whatever was opened.
func buildDeps(ctx context.Context, config *utils.Config, logger *zap.Logger) (usecase.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	fees, err := feeSchedule(config.Fee)
	if err != nil {
		return usecase.Deps{}, func() {}, err
	}
	deps := usecase.Deps{Fees: fees}

	// Locker
	if config.Redis.Enabled {
		client, err := lock.NewRedisClient(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		if err != nil {
			return usecase.Deps{}, func() {}, err
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Locker = lock.NewRedisLocker(client, config.Redis.LockTTL, logger)
		logger.Info("Redis locker enabled", zap.String("addr", config.Redis.Addr))
	} else {
		deps.Locker = lock.NewKeyedMutex()
	}

	// Event publisher
	if config.RabbitMQ.Enabled {
		pub, err := mq.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange)
		if err != nil {
			cleanup()
			return usecase.Deps{}, func() {}, err
		}
		closers = append(closers, func() { _ = pub.Close() })
		deps.Publisher = events.NewMQPublisher(pub)
		logger.Info("RabbitMQ publisher enabled", zap.String("exchange", config.RabbitMQ.Exchange))
	} else {
		deps.Publisher = events.NewLogPublisher(logger)
	}

	// Payment gateway
	switch config.Payment.Gateway {
	case "omise":
		gw, err := gateway.NewOmise(config.Payment.OmisePublicKey, config.Payment.OmiseSecretKey, logger)
		if err != nil {
			cleanup()
			return usecase.Deps{}, func() {}, err
		}
		deps.Gateway = gw
	case "simulated", "":
		deps.Gateway = gateway.NewSimulated(config.Payment.SimulatedSuccess, time.Now().UnixNano(), logger)
	default:
		cleanup()
		return usecase.Deps{}, func() {}, fmt.Errorf("unknown payment gateway %q", config.Payment.Gateway)
	}

	return deps, cleanup, nil
}

func feeSchedule(cfg utils.FeeConfig) (pricing.FeeSchedule, error) {
	rate, err := decimal.NewFromString(cfg.Rate)
	if err != nil {
		return pricing.FeeSchedule{}, fmt.Errorf("parse FEE_RATE %q: %w", cfg.Rate, err)
	}
	fixed, err := decimal.NewFromString(cfg.Fixed)
	if err != nil {
		return pricing.FeeSchedule{}, fmt.Errorf("parse FEE_FIXED %q: %w", cfg.Fixed, err)
	}
	return pricing.FeeSchedule{Rate: rate, Fixed: fixed}, nil
}
