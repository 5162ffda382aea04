package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/duelcraft/battle-server-go/internal/card"
	"github.com/duelcraft/battle-server-go/internal/config"
	"github.com/duelcraft/battle-server-go/internal/game"
	"github.com/duelcraft/battle-server-go/internal/game/rules"
	"github.com/duelcraft/battle-server-go/internal/repository"
	"github.com/duelcraft/battle-server-go/internal/room"
	"github.com/duelcraft/battle-server-go/internal/server"
	"github.com/duelcraft/battle-server-go/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting battle server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var db *repository.DB
	if cfg.Database.Enabled {
		db, err = repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
	}

	catalog, err := openCatalog(ctx, cfg.Catalog, db, logger)
	if err != nil {
		logger.Fatal("failed to open card catalog", zap.Error(err))
	}

	redisClient, err := session.Dial(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to session store", zap.Error(err))
	}
	sessions := session.NewRedisStore(redisClient, cfg.Redis.KeyPrefix, logger.Named("session"))
	logger.Info("session store initialized",
		zap.String("address", cfg.Redis.Address),
		zap.Int("db", cfg.Redis.DB),
	)

	rooms := room.NewManager(logger.Named("room"))

	opts := game.Options{
		InitialHandSize:     cfg.Battle.InitialHandSize,
		MainCharacterHealth: cfg.Battle.MainCharacterHealth,
		EnergyPerTurn:       cfg.Battle.EnergyPerTurn,
		DrawPerTurn:         cfg.Battle.DrawPerTurn,
		MythicMinimumRound:  cfg.Battle.MythicMinimumRound,
		Shuffler:            game.NewSeededShuffler(uint64(cfg.Battle.ShuffleSeed)),
	}
	engine := game.NewEngine(logger.Named("engine"), sessions, catalog, rooms, game.NewMemoryStores(), nil, opts)

	dispatcher := server.NewDispatcher(engine, logger.Named("dispatcher"))
	hub := server.NewHub(cfg.Server.WebSocket, dispatcher, sessions, logger.Named("ws"))
	engine.SetNotifier(hub)

	// A defeated main character ends the battle. The room is closed after
	// the action that killed it releases the room lock.
	engine.Events().SubscribeTyped(rules.EventMainCharacterDied, func(e rules.Event) {
		r, err := rooms.RoomOf(e.AccountID)
		if err != nil {
			return
		}
		roomID := r.ID
		go func() {
			if err := engine.CloseBattle(roomID); err != nil && !errors.Is(err, game.ErrNotFound) {
				logger.Warn("failed to close finished battle",
					zap.String("room_id", roomID),
					zap.Error(err),
				)
			}
		}()
	})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTP.Address,
		Handler: server.NewRouter(hub, engine, cfg.Server.WebSocket.AllowedOrigins, logger.Named("http")),
	}

	grpcServer, healthServer := server.NewGRPCServer(cfg.Server.GRPC, logger.Named("grpc"))
	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.HTTP.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	healthServer.Shutdown()
	hub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, httpServer.Shutdown(shutdownCtx))
	grpcServer.GracefulStop()
	shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	if shutdownErr != nil {
		logger.Warn("shutdown finished with errors", zap.Error(shutdownErr))
	}

	logger.Info("battle server stopped")
}

// openCatalog selects the card catalog source.
func openCatalog(ctx context.Context, cfg config.CatalogConfig, db *repository.DB, logger *zap.Logger) (card.Catalog, error) {
	switch cfg.Source {
	case "postgres":
		repo := repository.NewCardRepository(db, logger.Named("cards"))
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		logger.Info("card catalog backed by postgres")
		return repo, nil
	default:
		catalog, err := card.LoadFile(cfg.Path, logger.Named("cards"))
		if err != nil {
			return nil, err
		}
		logger.Info("card catalog loaded from file", zap.String("path", cfg.Path))
		return catalog, nil
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
