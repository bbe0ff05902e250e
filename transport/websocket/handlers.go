package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
	"github.com/rocketscienceinc/gomoku-backend/internal/usecase"
)

// msgNotConnected answers game actions sent before connect.
const msgNotConnected = "connect first"

type gameAction func(ctx context.Context, gameID string, req Request) (*entity.Game, error)

func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleConnect")

	req, err := decodeRequest(msg)
	if err != nil {
		return conn.sendError(msg.Action, "malformed payload")
	}

	player, err := that.connectPlayer(ctx, conn, req)
	if err != nil {
		log.Error("failed to create or get player", "error", err)
		return conn.sendError(msg.Action, "failed to create a new player")
	}

	conn.playerID = player.ID
	log = log.With("playerID", player.ID)

	payload := Payload{Player: player}

	if player.GameID != "" {
		game, err := that.uGame.GetGameByPlayerID(ctx, player.ID)
		switch {
		case err == nil:
			payload.Game = game.View()
		case errors.Is(err, repository.ErrGameNotFound):
			log.Debug("active game expired", "gameID", player.GameID)
		default:
			log.Error("failed to get game", "gameID", player.GameID, "error", err)
			return conn.sendError(msg.Action, "failed to get the game")
		}
	}

	if err = conn.sendMessage(msg.Action, payload); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Debug("successfully connected player")

	return nil
}

// connectPlayer resumes the player named in the payload, otherwise the one
// keyed by the session cookie, creating it on first use.
func (that *Server) connectPlayer(ctx context.Context, conn *connection, req Request) (*entity.Player, error) {
	if req.Player != nil && req.Player.ID != "" {
		player, err := that.uGame.GetPlayer(ctx, req.Player.ID)
		if err == nil {
			return player, nil
		}

		if !errors.Is(err, repository.ErrPlayerNotFound) {
			return nil, err
		}
	}

	return that.uGame.GetOrCreatePlayer(ctx, conn.sessionID)
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleNewGame")

	req, err := decodeRequest(msg)
	if err != nil {
		return conn.sendError(msg.Action, "malformed payload")
	}

	playerID := conn.playerID
	if playerID == "" {
		return conn.sendError(msg.Action, msgNotConnected)
	}

	game, err := that.uGame.NewGame(ctx, playerID, req.Size)
	switch {
	case errors.Is(err, apperror.ErrInvalidSize):
		return conn.sendError(msg.Action, err.Error())
	case errors.Is(err, repository.ErrPlayerNotFound):
		return conn.sendError(msg.Action, "player not found")
	case err != nil:
		log.Error("failed to create game", "playerID", playerID, "error", err)
		return conn.sendError(msg.Action, "failed to create a new game")
	}

	return conn.sendMessage(msg.Action, Payload{
		Player: &entity.Player{ID: playerID, GameID: game.ID},
		Game:   game.View(),
	})
}

func (that *Server) handleGameState(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, _ Request) (*entity.Game, error) {
		return that.uGame.GetGame(ctx, gameID)
	})
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, req Request) (*entity.Game, error) {
		if req.Row == nil || req.Col == nil {
			return nil, apperror.ErrInvalidCell
		}

		return that.uGame.PlaceMark(ctx, gameID, *req.Row, *req.Col)
	})
}

func (that *Server) handleUndo(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, _ Request) (*entity.Game, error) {
		return that.uGame.Undo(ctx, gameID)
	})
}

func (that *Server) handleRedo(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, _ Request) (*entity.Game, error) {
		return that.uGame.Redo(ctx, gameID)
	})
}

func (that *Server) handleReset(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, _ Request) (*entity.Game, error) {
		return that.uGame.Reset(ctx, gameID)
	})
}

func (that *Server) handleResize(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, req Request) (*entity.Game, error) {
		return that.uGame.Resize(ctx, gameID, req.Size)
	})
}

func (that *Server) handleDismiss(ctx context.Context, msg *Message, conn *connection) error {
	return that.withActiveGame(ctx, msg, conn, func(ctx context.Context, gameID string, _ Request) (*entity.Game, error) {
		return that.uGame.DismissAnnouncement(ctx, gameID)
	})
}

func (that *Server) handleLeave(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleLeave")

	playerID := conn.playerID
	if playerID == "" {
		return conn.sendError(msg.Action, msgNotConnected)
	}

	player, err := that.uGame.LeaveGame(ctx, playerID)
	switch {
	case errors.Is(err, repository.ErrPlayerNotFound):
		return conn.sendError(msg.Action, "player not found")
	case err != nil:
		log.Error("failed to leave game", "playerID", playerID, "error", err)
		return conn.sendError(msg.Action, "failed to leave the game")
	}

	return conn.sendMessage(msg.Action, Payload{Player: player})
}

// withActiveGame resolves the player's active game, runs action on it and
// answers with the resulting state. No-op outcomes are answered with the
// unchanged state and no error.
func (that *Server) withActiveGame(ctx context.Context, msg *Message, conn *connection, action gameAction) error {
	log := that.logger.With("method", "withActiveGame", "action", msg.Action)

	req, err := decodeRequest(msg)
	if err != nil {
		return conn.sendError(msg.Action, "malformed payload")
	}

	playerID := conn.playerID
	if playerID == "" {
		return conn.sendError(msg.Action, msgNotConnected)
	}

	active, err := that.uGame.GetGameByPlayerID(ctx, playerID)
	switch {
	case errors.Is(err, usecase.ErrNoActiveGame), errors.Is(err, repository.ErrGameNotFound):
		return conn.sendError(msg.Action, "no active game")
	case errors.Is(err, repository.ErrPlayerNotFound):
		return conn.sendError(msg.Action, "player not found")
	case err != nil:
		log.Error("failed to get active game", "playerID", playerID, "error", err)
		return conn.sendError(msg.Action, "failed to get the game")
	}

	game, err := action(ctx, active.ID, req)
	switch {
	case err == nil, apperror.IsNoop(err) && game != nil:
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, apperror.ErrInvalidSize):
		return conn.sendError(msg.Action, err.Error())
	case errors.Is(err, repository.ErrGameNotFound):
		return conn.sendError(msg.Action, "no active game")
	default:
		log.Error("failed to apply action", "gameID", active.ID, "error", err)
		return conn.sendError(msg.Action, "failed to apply the action")
	}

	return conn.sendMessage(msg.Action, Payload{
		Player: &entity.Player{ID: playerID, GameID: game.ID},
		Game:   game.View(),
	})
}
