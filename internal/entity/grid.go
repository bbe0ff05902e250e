package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Mark string

const (
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
	EmptyCell Mark = ""
)

// emptyRune is how an empty cell is spelled in the compact row encoding.
const emptyRune = '.'

var ErrMalformedGrid = errors.New("malformed grid")

// Opponent returns the mark that moves after that.
func (that Mark) Opponent() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Coord addresses a single cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is a mark placed on a cell.
type Move struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Mark Mark `json:"mark"`
}

// Grid is a square board indexed as grid[row][col].
type Grid [][]Mark

func NewGrid(size int) Grid {
	grid := make(Grid, size)
	for i := range grid {
		grid[i] = make([]Mark, size)
	}

	return grid
}

func (that Grid) Size() int {
	return len(that)
}

func (that Grid) InBounds(row, col int) bool {
	return row >= 0 && row < len(that) && col >= 0 && col < len(that)
}

// Clone returns a deep copy so snapshots never share rows.
func (that Grid) Clone() Grid {
	out := make(Grid, len(that))
	for i, row := range that {
		out[i] = append([]Mark(nil), row...)
	}

	return out
}

func (that Grid) IsEmpty() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell != EmptyCell {
				return false
			}
		}
	}

	return true
}

// Rows flattens every row into a string of '.', 'X' and 'O'.
func (that Grid) Rows() []string {
	rows := make([]string, len(that))
	for i, row := range that {
		var sb strings.Builder
		sb.Grow(len(row))
		for _, cell := range row {
			if cell == EmptyCell {
				sb.WriteByte(emptyRune)
				continue
			}
			sb.WriteString(string(cell))
		}
		rows[i] = sb.String()
	}

	return rows
}

func (that Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(that.Rows())
}

func (that *Grid) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedGrid, err)
	}

	grid := NewGrid(len(rows))
	for r, row := range rows {
		if len(row) != len(rows) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedGrid, r, len(row), len(rows))
		}

		for c, ch := range row {
			switch ch {
			case emptyRune:
				grid[r][c] = EmptyCell
			case 'X':
				grid[r][c] = PlayerX
			case 'O':
				grid[r][c] = PlayerO
			default:
				return fmt.Errorf("%w: unexpected %q at %d,%d", ErrMalformedGrid, ch, r, c)
			}
		}
	}

	*that = grid

	return nil
}
