package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/rocketscienceinc/gomoku-backend/internal/gomoku"
	"github.com/rocketscienceinc/gomoku-backend/internal/repository"
)

type sizeRequest struct {
	Size int `json:"size"`
}

type moveRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	// an empty body means the default size
	var req sizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := that.uGame.NewGame(r.Context(), "", req.Size)
	if err != nil {
		that.writeGameError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, game.View())
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		that.writeGameError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game.View())
}

func (that *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.uGame.DeleteGame(r.Context(), chi.URLParam(r, "gameID")); err != nil {
		that.writeGameError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		that.writeGameError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write([]byte(gomoku.Render(game))); err != nil {
		that.logger.Error("failed to write board", "error", err)
	}
}

func (that *Server) handlePlaceMark(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Row == nil || req.Col == nil {
		that.writeError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	game, err := that.uGame.PlaceMark(r.Context(), chi.URLParam(r, "gameID"), *req.Row, *req.Col)
	that.respond(w, r, game, err)
}

func (that *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.Undo(r.Context(), chi.URLParam(r, "gameID"))
	that.respond(w, r, game, err)
}

func (that *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.Redo(r.Context(), chi.URLParam(r, "gameID"))
	that.respond(w, r, game, err)
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.Reset(r.Context(), chi.URLParam(r, "gameID"))
	that.respond(w, r, game, err)
}

func (that *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := that.uGame.Resize(r.Context(), chi.URLParam(r, "gameID"), req.Size)
	that.respond(w, r, game, err)
}

func (that *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.DismissAnnouncement(r.Context(), chi.URLParam(r, "gameID"))
	that.respond(w, r, game, err)
}

// respond writes the game state. No-op outcomes are answered like successes.
func (that *Server) respond(w http.ResponseWriter, r *http.Request, game *entity.Game, err error) {
	if err != nil && !(apperror.IsNoop(err) && game != nil) {
		that.writeGameError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game.View())
}

func (that *Server) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		that.writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, apperror.ErrInvalidSize):
		that.writeError(w, http.StatusBadRequest, err.Error())
	default:
		that.logger.Error("request failed", "path", r.URL.Path, "error", err)
		that.writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, message string) {
	that.writeJSON(w, status, errorResponse{Error: message})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
