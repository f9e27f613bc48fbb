package game

import "strings"

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Board boundaries
	CellMin   = 0
	CellMax   = 8
	BoardSize = 9
)

// Board is a 3x3 grid stored row-major: cell i sits at row i/3, column i%3.
type Board [BoardSize]PlayerMark

// lines lists the winning triples in the order they are checked.
var lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner returns the mark occupying the first complete line, or None.
func Winner(b Board) PlayerMark {
	for _, l := range lines {
		a := b[l[0]]
		if a != None && a == b[l[1]] && a == b[l[2]] {
			return a
		}
	}
	return None
}

// IsFull reports whether every cell is occupied.
func IsFull(b Board) bool {
	for _, c := range b {
		if c == None {
			return false
		}
	}
	return true
}

// Valid reports whether m is one of the marks a cell may hold.
func (m PlayerMark) Valid() bool {
	return m == None || m == PlayerX || m == PlayerO
}

// Strings converts the board to a slice of strings, empty cells as "".
func (b Board) Strings() []string {
	out := make([]string, BoardSize)
	for i, c := range b {
		out[i] = string(c)
	}
	return out
}

// String renders the board as three rows, empty cells as '.'.
func (b Board) String() string {
	var sb strings.Builder
	for i, c := range b {
		if c == None {
			sb.WriteByte('.')
		} else {
			sb.WriteString(string(c))
		}
		if i%3 == 2 && i != CellMax {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
