package apperror

import "errors"

var (
	ErrGameFinished  = errors.New("game is already finished")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	ErrInvalidCell = errors.New("invalid cell")
	ErrInvalidSize = errors.New("unsupported board size")
)

// IsNoop reports whether err marks an action that leaves the game untouched.
// Such actions are not failures for the client, it just gets the same state back.
func IsNoop(err error) bool {
	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrNothingToUndo) ||
		errors.Is(err, ErrNothingToRedo)
}
