package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidMatrix is returned when the solver cannot be set up for the given input.
	ErrInvalidMatrix = errors.New("invalid cost matrix")
	// ErrSolveCanceled is returned when the context ends before an optimum is found.
	ErrSolveCanceled = errors.New("solve canceled")
	// ErrSolveUnknown is returned when the solver finishes without a usable optimum.
	ErrSolveUnknown = errors.New("solve status unknown")
)

// Pair is a selected (task row, worker column) cell.
type Pair struct {
	Task   int
	Worker int
}

// Solver finds a maximum-weight assignment in which each task row and each
// worker column is used at most once. Cells holding SentinelLow are never returned.
type Solver interface {
	Solve(ctx context.Context, m CostMatrix, taskCount, workerCount int) ([]Pair, error)
}

func validateMatrix(m CostMatrix, taskCount, workerCount int) error {
	if taskCount < 0 || workerCount < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidMatrix, taskCount, workerCount)
	}
	if len(m) != taskCount {
		return fmt.Errorf("%w: have %d rows, want %d", ErrInvalidMatrix, len(m), taskCount)
	}
	for i, row := range m {
		if len(row) != workerCount {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMatrix, i, len(row), workerCount)
		}
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: cell (%d,%d) is not finite", ErrInvalidMatrix, i, j)
			}
		}
	}
	return nil
}

// Objective sums the weights of the selected pairs.
func Objective(m CostMatrix, pairs []Pair) float64 {
	var total float64
	for _, p := range pairs {
		total += m[p.Task][p.Worker]
	}
	return total
}
