package gomoku

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// Render draws the displayed board as plain text.
// Empty cells are '.', cells of the winning run are lower-cased.
func Render(gameInstance *entity.Game) string {
	var sb strings.Builder

	for r, row := range gameInstance.Grid {
		for c, cell := range row {
			if c > 0 {
				sb.WriteByte(' ')
			}

			switch {
			case cell == entity.EmptyCell:
				sb.WriteByte('.')
			case gameInstance.IsWinningCell(r, c):
				sb.WriteString(strings.ToLower(string(cell)))
			default:
				sb.WriteString(string(cell))
			}
		}
		sb.WriteByte('\n')
	}

	sb.WriteString(statusLine(gameInstance))
	sb.WriteByte('\n')

	return sb.String()
}

func statusLine(gameInstance *entity.Game) string {
	line := fmt.Sprintf("Current turn: %s", gameInstance.Turn)
	if gameInstance.Winner != entity.EmptyCell {
		line += fmt.Sprintf(" | Winner: %s", gameInstance.Winner)
	}

	return line
}
