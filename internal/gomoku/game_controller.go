package gomoku

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// PlaceMark puts the current player's mark on (row, col).
// An occupied cell or a decided game leaves the state as is and returns a no-op error.
func PlaceMark(gameInstance *entity.Game, row, col int) error {
	if !gameInstance.Grid.InBounds(row, col) {
		return fmt.Errorf("%w: %d,%d", apperror.ErrInvalidCell, row, col)
	}

	if gameInstance.IsFinished() {
		return apperror.ErrGameFinished
	}

	if gameInstance.Grid[row][col] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	mark := gameInstance.Turn
	grid := gameInstance.Grid.Clone()
	grid[row][col] = mark

	// a new move discards whatever could have been redone
	gameInstance.History = append(gameInstance.History[:gameInstance.Cursor+1], entity.Snapshot{
		Grid: grid,
		Move: &entity.Move{Row: row, Col: col, Mark: mark},
	})
	gameInstance.Cursor++
	gameInstance.Grid = grid.Clone()

	updateGameStatus(gameInstance, row, col)
	gameInstance.Turn = toggleMark(mark)

	return nil
}

// Undo steps back one snapshot.
func Undo(gameInstance *entity.Game) error {
	if gameInstance.IsFinished() {
		return apperror.ErrGameFinished
	}

	if gameInstance.Cursor == 0 {
		return apperror.ErrNothingToUndo
	}

	moveCursor(gameInstance, gameInstance.Cursor-1)

	return nil
}

// Redo steps forward one snapshot.
func Redo(gameInstance *entity.Game) error {
	if gameInstance.IsFinished() {
		return apperror.ErrGameFinished
	}

	if gameInstance.Cursor >= len(gameInstance.History)-1 {
		return apperror.ErrNothingToRedo
	}

	moveCursor(gameInstance, gameInstance.Cursor+1)

	return nil
}

// Reset starts over on a board of the same size.
func Reset(gameInstance *entity.Game) {
	gameInstance.Clear(gameInstance.Size)
}

// Resize starts over on a board of a new size.
func Resize(gameInstance *entity.Game, size int) error {
	if !entity.IsSupportedSize(size) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidSize, size)
	}

	gameInstance.Clear(size)

	return nil
}

// DismissAnnouncement closes the winner overlay. The winner itself stays.
func DismissAnnouncement(gameInstance *entity.Game) {
	gameInstance.AnnouncementOpen = false
}

func moveCursor(gameInstance *entity.Game, cursor int) {
	gameInstance.Cursor = cursor
	gameInstance.Grid = gameInstance.History[cursor].Grid.Clone()
	gameInstance.Turn = toggleMark(gameInstance.Turn)
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(gameInstance *entity.Game, row, col int) {
	winner, line := CheckWinner(gameInstance.Grid, row, col)
	if winner == entity.EmptyCell {
		return
	}

	gameInstance.Winner = winner
	gameInstance.WinningLine = line
	gameInstance.Status = entity.StatusFinished
	gameInstance.AnnouncementOpen = true
}

func toggleMark(currentMark entity.Mark) entity.Mark {
	return currentMark.Opponent()
}
