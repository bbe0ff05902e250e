package gomoku

import "github.com/rocketscienceinc/gomoku-backend/internal/entity"

// WinLength is how many marks in a row end the game. Longer runs count too.
const WinLength = 5

// axes are scanned in this order: vertical, horizontal, diagonal \, diagonal /.
// Each axis is a pair of opposite directions walked outward from the placed cell.
var axes = [4][2][2]int{
	{{-1, 0}, {1, 0}},
	{{0, -1}, {0, 1}},
	{{-1, -1}, {1, 1}},
	{{-1, 1}, {1, -1}},
}

// CheckWinner looks for a run of WinLength or more through the mark at (row, col).
// It returns the winning mark and the cells of the run in scan order:
// the placed cell, then the first direction outward, then the second.
// The first qualifying axis wins.
func CheckWinner(grid entity.Grid, row, col int) (entity.Mark, []entity.Coord) {
	if !grid.InBounds(row, col) {
		return entity.EmptyCell, nil
	}

	mark := grid[row][col]
	if mark == entity.EmptyCell {
		return entity.EmptyCell, nil
	}

	for _, axis := range axes {
		cells := []entity.Coord{{Row: row, Col: col}}

		for _, dir := range axis {
			r, c := row+dir[0], col+dir[1]
			for grid.InBounds(r, c) && grid[r][c] == mark {
				cells = append(cells, entity.Coord{Row: r, Col: c})
				r += dir[0]
				c += dir[1]
			}
		}

		if len(cells) >= WinLength {
			return mark, cells
		}
	}

	return entity.EmptyCell, nil
}
