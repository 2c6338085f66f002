package game

import "github.com/user/furusato-strategy/internal/types"

// Board is the fixed 20-cell play field. Cells never change after
// construction; positions wrap around the end of the board.
type Board struct {
	cells []types.BoardCell
}

// DefaultBoard returns the reference board layout.
func DefaultBoard() *Board {
	cells := []types.BoardCell{
		{ID: 0, Type: types.CellStart, Label: "Start"},
		{ID: 1, Type: types.CellAction, Label: "Action"},
		{ID: 2, Type: types.CellEvent, Label: "Event"},
		{ID: 3, Type: types.CellAction, Label: "Action"},
		{ID: 4, Type: types.CellSpecial, Label: "Subsidy", Special: types.SpecialSubsidy},
		{ID: 5, Type: types.CellAction, Label: "Action"},
		{ID: 6, Type: types.CellEvent, Label: "Event"},
		{ID: 7, Type: types.CellAction, Label: "Action"},
		{ID: 8, Type: types.CellAction, Label: "Action"},
		{ID: 9, Type: types.CellSpecial, Label: "Exchange", Special: types.SpecialExchange},
		{ID: 10, Type: types.CellAction, Label: "Action"},
		{ID: 11, Type: types.CellEvent, Label: "Event"},
		{ID: 12, Type: types.CellAction, Label: "Action"},
		{ID: 13, Type: types.CellAction, Label: "Action"},
		{ID: 14, Type: types.CellSpecial, Label: "Subsidy", Special: types.SpecialSubsidy},
		{ID: 15, Type: types.CellAction, Label: "Action"},
		{ID: 16, Type: types.CellEvent, Label: "Event"},
		{ID: 17, Type: types.CellAction, Label: "Action"},
		{ID: 18, Type: types.CellAction, Label: "Action"},
		{ID: 19, Type: types.CellSpecial, Label: "Settlement", Special: types.SpecialSettlement},
	}
	return &Board{cells: cells}
}

// Size returns the number of cells on the board.
func (b *Board) Size() int {
	return len(b.cells)
}

// CellAt returns the cell at position. Position is validated upstream
// and always falls inside the board.
func (b *Board) CellAt(position int) types.BoardCell {
	return b.cells[position]
}

// Advance moves steps cells forward from position, wrapping at the end
// of the board.
func (b *Board) Advance(position, steps int) int {
	return (position + steps) % len(b.cells)
}

// Cells returns a copy of the board layout.
func (b *Board) Cells() []types.BoardCell {
	out := make([]types.BoardCell, len(b.cells))
	copy(out, b.cells)
	return out
}
