package game

import (
	"errors"
	"fmt"
)

// ErrRejected is returned for every transition the game refuses.
// The caller keeps its current state.
var ErrRejected = errors.New("rejected")

var (
	ErrCellOutOfRange = fmt.Errorf("%w: cell out of range", ErrRejected)
	ErrCellOccupied   = fmt.Errorf("%w: cell already occupied", ErrRejected)
	ErrGameOver       = fmt.Errorf("%w: game already has a winner", ErrRejected)
	ErrStepOutOfRange = fmt.Errorf("%w: step out of range", ErrRejected)
)
