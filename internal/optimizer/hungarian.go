package optimizer

import (
	"context"
	"fmt"
	"math"
	"slices"
)

// HungarianSolver solves the assignment problem exactly with the
// Kuhn-Munkres algorithm in O(n^3), n = max(tasks, workers).
//
// The rectangular matrix is padded to a square one. Padding and sentinel
// cells cost zero, which models "leave this task or worker unused"; they are
// dropped from the result. Negative weights are treated the same way.
type HungarianSolver struct{}

var _ Solver = HungarianSolver{}

func (HungarianSolver) Solve(ctx context.Context, m CostMatrix, taskCount, workerCount int) ([]Pair, error) {
	if err := validateMatrix(m, taskCount, workerCount); err != nil {
		return nil, err
	}
	if taskCount == 0 || workerCount == 0 {
		return nil, nil
	}

	n := max(taskCount, workerCount)
	// Minimization form: cost = -weight for usable cells, 0 otherwise.
	cost := func(i, j int) float64 {
		if i < taskCount && j < workerCount && usable(m[i][j]) {
			return -m[i][j]
		}
		return 0
	}

	// 1-indexed potentials and matching; p[j] is the row matched to column j.
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSolveCanceled, err)
		}
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 || math.IsInf(delta, 0) || math.IsNaN(delta) {
				return nil, fmt.Errorf("%w: no augmenting path for row %d", ErrSolveUnknown, i)
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	var pairs []Pair
	for j := 1; j <= n; j++ {
		row, col := p[j]-1, j-1
		if row < 0 || row >= taskCount || col >= workerCount {
			continue
		}
		if !usable(m[row][col]) {
			continue
		}
		pairs = append(pairs, Pair{Task: row, Worker: col})
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return a.Task - b.Task })
	return pairs, nil
}
