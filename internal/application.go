package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
	"github.com/rocketscienceinc/gomoku-backend/transport/rest"
	"github.com/rocketscienceinc/gomoku-backend/transport/websocket"
)

type repositories struct {
	players repository.PlayerRepository
	games   repository.GameRepository
	locker  repository.Locker
	close   func()
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	repos, err := initRepositories(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer repos.close()

	gameUseCase := usecase.NewGameManager(logger, repos.players, repos.games, repos.locker, conf.Game.DefaultSize)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameUseCase)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// initRepositories picks the game store configured by storage.
func initRepositories(ctx context.Context, logger *slog.Logger, conf *config.Config) (*repositories, error) {
	log := logger.With("component", "app")

	if conf.Storage != config.StorageRedis {
		log.Info("Using in-memory storage")

		return &repositories{
			players: repository.NewMemoryPlayerRepository(),
			games:   repository.NewMemoryGameRepository(),
			locker:  repository.NewLocalLocker(),
			close:   func() {},
		}, nil
	}

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	log.Info("Using redis storage", "addr", conf.Redis.GetRedisAddr(), "ttl", conf.Game.TTL)

	return &repositories{
		players: repository.NewPlayerRepository(redisStorage, conf.Game.TTL),
		games:   repository.NewGameRepository(redisStorage, conf.Game.TTL),
		locker:  repository.NewRedisLocker(logger, redisStorage),
		close: func() {
			if err := redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		},
	}, nil
}
