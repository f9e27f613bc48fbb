package session

import (
	"ctchen222/tictactoe-timetravel/internal/game"
	"ctchen222/tictactoe-timetravel/internal/repository"
)

// View is everything a client needs to draw a session.
type View struct {
	ID     string          `json:"id"`
	Board  []string        `json:"board"`
	Status string          `json:"status"`
	Winner game.PlayerMark `json:"winner,omitempty"`
	Next   game.PlayerMark `json:"next"`
	Step   int             `json:"step"`
	Moves  []game.Move     `json:"moves"`
	Full   bool            `json:"full"`
}

// NewView renders the current step of a session.
func NewView(s *repository.Session) *View {
	board := s.State.CurrentBoard()
	return &View{
		ID:     s.ID,
		Board:  board.Strings(),
		Status: s.State.Status(),
		Winner: game.Winner(board),
		Next:   s.State.Next(),
		Step:   s.State.Step(),
		Moves:  s.State.MoveList(),
		Full:   game.IsFull(board),
	}
}
