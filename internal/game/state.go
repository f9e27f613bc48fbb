package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// State is an immutable game: every board reached so far plus the step being shown.
// Transitions return a new State and never touch the receiver.
type State struct {
	history []Board
	step    int
}

// Move is one entry of the move list shown to players.
type Move struct {
	Step  int    `json:"step"`
	Label string `json:"label"`
}

// New returns a game with a single empty board and X to move.
func New() State {
	return State{history: []Board{{}}}
}

// Step returns the index of the board currently shown.
func (s State) Step() int {
	return s.step
}

// Len returns the number of recorded boards.
func (s State) Len() int {
	return len(s.history)
}

// XIsNext reports whether X moves from the current step.
func (s State) XIsNext() bool {
	return s.step%2 == 0
}

// Next returns the mark that moves from the current step.
func (s State) Next() PlayerMark {
	if s.XIsNext() {
		return PlayerX
	}
	return PlayerO
}

// CurrentBoard returns a copy of the board at the current step.
func (s State) CurrentBoard() Board {
	return s.history[s.step]
}

// History returns a copy of every recorded board.
func (s State) History() []Board {
	return append([]Board(nil), s.history...)
}

// ApplyMove places the next mark on cell and drops any boards after the current step.
func (s State) ApplyMove(cell int) (State, error) {
	if cell < CellMin || cell > CellMax {
		return s, ErrCellOutOfRange
	}
	current := s.history[s.step]
	if Winner(current) != None {
		return s, ErrGameOver
	}
	if current[cell] != None {
		return s, ErrCellOccupied
	}

	next := current
	next[cell] = s.Next()

	history := make([]Board, s.step+2)
	copy(history, s.history[:s.step+1])
	history[s.step+1] = next

	return State{history: history, step: s.step + 1}, nil
}

// JumpTo moves the cursor to a recorded step. History is left as is.
func (s State) JumpTo(step int) (State, error) {
	if step < 0 || step >= len(s.history) {
		return s, ErrStepOutOfRange
	}
	return State{history: s.history, step: step}, nil
}

// MoveList returns one entry per recorded board.
func (s State) MoveList() []Move {
	moves := make([]Move, len(s.history))
	for i := range s.history {
		label := "Go to game start"
		if i > 0 {
			label = fmt.Sprintf("Go to move #%d", i)
		}
		moves[i] = Move{Step: i, Label: label}
	}
	return moves
}

// Status is the line shown above the board.
// A full board with no winner still reports the next player.
func (s State) Status() string {
	if w := Winner(s.CurrentBoard()); w != None {
		return "Winner: " + string(w)
	}
	return "Next player: " + string(s.Next())
}

type snapshot struct {
	History []Board `json:"history"`
	Step    int     `json:"step"`
}

// Restore rebuilds a State from recorded boards, checking the invariants New and
// the transitions maintain.
func Restore(history []Board, step int) (State, error) {
	if len(history) == 0 {
		return State{}, errors.New("history is empty")
	}
	if history[0] != (Board{}) {
		return State{}, errors.New("history does not start from an empty board")
	}
	if step < 0 || step >= len(history) {
		return State{}, fmt.Errorf("step %d outside history of %d boards", step, len(history))
	}
	for i, b := range history {
		for j, c := range b {
			if !c.Valid() {
				return State{}, fmt.Errorf("board %d cell %d holds invalid mark %q", i, j, c)
			}
		}
	}
	return State{history: append([]Board(nil), history...), step: step}, nil
}

// MarshalJSON encodes the full history and the current step.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{History: s.history, Step: s.step})
}

// UnmarshalJSON decodes a State written by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	restored, err := Restore(snap.History, snap.Step)
	if err != nil {
		return fmt.Errorf("invalid game state: %w", err)
	}
	*s = restored
	return nil
}
