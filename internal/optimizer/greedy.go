package optimizer

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// GreedySolver repeatedly takes the heaviest remaining usable cell. It is
// fast and respects the degree constraints but is not guaranteed optimal;
// it serves as a baseline for comparing against HungarianSolver.
type GreedySolver struct{}

var _ Solver = GreedySolver{}

func (GreedySolver) Solve(ctx context.Context, m CostMatrix, taskCount, workerCount int) ([]Pair, error) {
	if err := validateMatrix(m, taskCount, workerCount); err != nil {
		return nil, err
	}
	if taskCount == 0 || workerCount == 0 {
		return nil, nil
	}

	type cell struct {
		Pair
		w float64
	}
	cells := make([]cell, 0, taskCount*workerCount)
	for i, row := range m {
		for j, w := range row {
			if usable(w) {
				cells = append(cells, cell{Pair{Task: i, Worker: j}, w})
			}
		}
	}
	slices.SortStableFunc(cells, func(a, b cell) int { return cmp.Compare(b.w, a.w) })

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolveCanceled, err)
	}

	taskUsed := make([]bool, taskCount)
	workerUsed := make([]bool, workerCount)
	var pairs []Pair
	for _, c := range cells {
		if taskUsed[c.Task] || workerUsed[c.Worker] {
			continue
		}
		taskUsed[c.Task] = true
		workerUsed[c.Worker] = true
		pairs = append(pairs, c.Pair)
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return a.Task - b.Task })
	return pairs, nil
}
