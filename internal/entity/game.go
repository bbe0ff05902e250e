package entity

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
)

const DefaultSize = 10

// SupportedSizes lists the board dimensions a game can be played on.
var SupportedSizes = []int{10, 15, 20, 25, 30}

func IsSupportedSize(size int) bool {
	return slices.Contains(SupportedSizes, size)
}

// Snapshot is one entry of the undo history.
// Move is nil for the initial empty board.
type Snapshot struct {
	Grid Grid  `json:"grid"`
	Move *Move `json:"move,omitempty"`
}

// Game is the full session state: the live board plus everything needed to undo and redo.
// Grid always equals History[Cursor].Grid.
type Game struct {
	ID          string     `json:"id"`
	Size        int        `json:"size"`
	Grid        Grid       `json:"grid"`
	History     []Snapshot `json:"history"`
	Cursor      int        `json:"cursor"`
	Turn        Mark       `json:"player_turn"`
	Winner      Mark       `json:"winner"`
	WinningLine []Coord    `json:"winning_line"`
	Status      string     `json:"status"`

	// AnnouncementOpen drives the dismissible winner overlay.
	AnnouncementOpen bool `json:"announcement_open"`
}

func NewGame(id string, size int) (*Game, error) {
	if !IsSupportedSize(size) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	game := &Game{ID: id}
	game.Clear(size)

	return game, nil
}

// Clear puts the game back to an empty board of the given size with X to move.
func (that *Game) Clear(size int) {
	grid := NewGrid(size)

	that.Size = size
	that.Grid = grid
	that.History = []Snapshot{{Grid: grid.Clone()}}
	that.Cursor = 0
	that.Turn = PlayerX
	that.Winner = EmptyCell
	that.WinningLine = []Coord{}
	that.Status = StatusOngoing
	that.AnnouncementOpen = false
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) CanUndo() bool {
	return that.IsOngoing() && that.Cursor > 0
}

func (that *Game) CanRedo() bool {
	return that.IsOngoing() && that.Cursor < len(that.History)-1
}

// LastMove returns the move that produced the displayed board, if any.
func (that *Game) LastMove() *Move {
	if that.Cursor < 0 || that.Cursor >= len(that.History) {
		return nil
	}
	return that.History[that.Cursor].Move
}

// IsWinningCell reports whether (row, col) is highlighted as part of the winning run.
func (that *Game) IsWinningCell(row, col int) bool {
	return slices.Contains(that.WinningLine, Coord{Row: row, Col: col})
}

// GameView is what clients see: the displayed board without the stored history.
type GameView struct {
	ID               string  `json:"id"`
	Size             int     `json:"size"`
	Grid             Grid    `json:"grid"`
	Turn             Mark    `json:"player_turn"`
	Winner           Mark    `json:"winner"`
	WinningLine      []Coord `json:"winning_line"`
	Status           string  `json:"status"`
	Step             int     `json:"step"`
	Steps            int     `json:"steps"`
	CanUndo          bool    `json:"can_undo"`
	CanRedo          bool    `json:"can_redo"`
	LastMove         *Move   `json:"last_move,omitempty"`
	AnnouncementOpen bool    `json:"announcement_open"`
}

func (that *Game) View() *GameView {
	return &GameView{
		ID:               that.ID,
		Size:             that.Size,
		Grid:             that.Grid,
		Turn:             that.Turn,
		Winner:           that.Winner,
		WinningLine:      that.WinningLine,
		Status:           that.Status,
		Step:             that.Cursor,
		Steps:            len(that.History),
		CanUndo:          that.CanUndo(),
		CanRedo:          that.CanRedo(),
		LastMove:         that.LastMove(),
		AnnouncementOpen: that.AnnouncementOpen,
	}
}
