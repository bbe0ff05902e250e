package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/pkg"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

var ErrNoActiveGame = errors.New("player has no active game")

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type GameManager struct {
	logger      *slog.Logger
	playerRepo  playerRepo
	gameRepo    gameRepo
	locker      locker
	defaultSize int
}

func NewGameManager(logger *slog.Logger, playerRepo playerRepo, gameRepo gameRepo, locker locker, defaultSize int) *GameManager {
	return &GameManager{
		logger: logger.With("component", "gameManager"),

		playerRepo:  playerRepo,
		gameRepo:    gameRepo,
		locker:      locker,
		defaultSize: defaultSize,
	}
}

// GetOrCreatePlayer returns the session player. An empty id gets a fresh
// player, an unknown id becomes the id of a new player.
func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		id = pkg.GenerateNewSessionID()
	}

	player, err := that.playerRepo.GetByID(ctx, id)
	if err == nil {
		return player, nil
	}

	if !errors.Is(err, repository.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	player, err = that.createPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to create new player: %w", err)
	}

	return player, nil
}

// GetPlayer returns a known player only.
func (that *GameManager) GetPlayer(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

// NewGame starts a game of the given size. Size 0 means the configured default.
// When playerID is set the game replaces that player's active game.
func (that *GameManager) NewGame(ctx context.Context, playerID string, size int) (*entity.Game, error) {
	if size == 0 {
		size = that.defaultSize
	}

	game, err := entity.NewGame(pkg.GenerateGameID(), size)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if playerID == "" {
		if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to save game: %w", err)
		}

		that.logger.Debug("game created", "gameID", game.ID, "size", size)

		return game, nil
	}

	unlock, err := that.locker.Lock(ctx, playerLockKey(playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	defer unlock()

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if err = that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	if player.GameID != "" {
		if err = that.DeleteGame(ctx, player.GameID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
			return nil, err
		}
	}

	player.GameID = game.ID
	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	that.logger.Debug("game created", "gameID", game.ID, "size", size, "playerID", playerID)

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// GetGameByPlayerID returns the player's active game.
func (that *GameManager) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, ErrNoActiveGame
	}

	return that.GetGame(ctx, player.GameID)
}

// DeleteGame drops a game from the store before its ttl runs out.
func (that *GameManager) DeleteGame(ctx context.Context, gameID string) error {
	unlock, err := that.locker.Lock(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to lock game: %w", err)
	}
	defer unlock()

	if err = that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.Debug("game deleted", "gameID", gameID)

	return nil
}

// LeaveGame deletes the player's active game and unbinds it from the player.
func (that *GameManager) LeaveGame(ctx context.Context, playerID string) (*entity.Player, error) {
	unlock, err := that.locker.Lock(ctx, playerLockKey(playerID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	defer unlock()

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return player, nil
	}

	if err = that.DeleteGame(ctx, player.GameID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		return nil, err
	}

	player.GameID = ""
	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	return player, nil
}

func (that *GameManager) PlaceMark(ctx context.Context, gameID string, row, col int) (*entity.Game, error) {
	return that.update(ctx, gameID, "placeMark", func(game *entity.Game) error {
		return gomoku.PlaceMark(game, row, col)
	})
}

func (that *GameManager) Undo(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.update(ctx, gameID, "undo", gomoku.Undo)
}

func (that *GameManager) Redo(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.update(ctx, gameID, "redo", gomoku.Redo)
}

func (that *GameManager) Reset(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.update(ctx, gameID, "reset", func(game *entity.Game) error {
		gomoku.Reset(game)
		return nil
	})
}

func (that *GameManager) Resize(ctx context.Context, gameID string, size int) (*entity.Game, error) {
	return that.update(ctx, gameID, "resize", func(game *entity.Game) error {
		return gomoku.Resize(game, size)
	})
}

func (that *GameManager) DismissAnnouncement(ctx context.Context, gameID string) (*entity.Game, error) {
	return that.update(ctx, gameID, "dismissAnnouncement", func(game *entity.Game) error {
		gomoku.DismissAnnouncement(game)
		return nil
	})
}

// update runs one operation against a game under its lock and stores the result.
// No-op outcomes hand back the unchanged game together with the no-op error.
func (that *GameManager) update(ctx context.Context, gameID, method string, apply func(*entity.Game) error) (*entity.Game, error) {
	log := that.logger.With("method", method, "gameID", gameID)

	unlock, err := that.locker.Lock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	defer unlock()

	game, err := that.getGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err = apply(game); err != nil {
		if apperror.IsNoop(err) {
			log.Debug("action ignored", "reason", err)
			return game, err
		}

		return nil, fmt.Errorf("failed to %s: %w", method, err)
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	if game.IsFinished() && method == "placeMark" {
		log.Info("game won", "winner", game.Winner, "moves", game.Cursor)
	}

	return game, nil
}

func (that *GameManager) createPlayer(ctx context.Context, id string) (*entity.Player, error) {
	player := &entity.Player{
		ID: id,
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

func playerLockKey(playerID string) string {
	return "player:" + playerID
}
