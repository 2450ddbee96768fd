package optimizer

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// bruteForce returns the best objective over all valid matchings.
func bruteForce(m CostMatrix, taskCount, workerCount int) float64 {
	used := make([]bool, workerCount)
	var rec func(i int) float64
	rec = func(i int) float64 {
		if i == taskCount {
			return 0
		}
		best := rec(i + 1) // leave task i unassigned
		for j := 0; j < workerCount; j++ {
			if used[j] || Forbidden(m[i][j]) {
				continue
			}
			used[j] = true
			best = math.Max(best, m[i][j]+rec(i+1))
			used[j] = false
		}
		return best
	}
	return rec(0)
}

func randomMatrix(r *rand.Rand, rows, cols int) CostMatrix {
	m := make(CostMatrix, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			if r.IntN(3) == 0 {
				m[i][j] = SentinelLow
			} else {
				m[i][j] = float64(r.IntN(100))
			}
		}
	}
	return m
}

func TestHungarianSolver_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for iter := 0; iter < 200; iter++ {
		rows, cols := 1+r.IntN(5), 1+r.IntN(5)
		m := randomMatrix(r, rows, cols)

		pairs, err := HungarianSolver{}.Solve(context.Background(), m, rows, cols)
		require.NoError(t, err)
		require.NoError(t, checkPairs(m, pairs, rows, cols))
		require.InDelta(t, bruteForce(m, rows, cols), Objective(m, pairs), 1e-9, "matrix %v", m)
	}
}

func TestHungarianSolver_AllForbidden(t *testing.T) {
	m := CostMatrix{{SentinelLow, SentinelLow}, {SentinelLow, SentinelLow}}

	pairs, err := HungarianSolver{}.Solve(context.Background(), m, 2, 2)

	require.NoError(t, err)
	require.Empty(t, pairs)
}

func TestSolvers_SkipNegativeWeights(t *testing.T) {
	cases := []struct {
		name string
		m    CostMatrix
		want float64
	}{
		{"single negative cell", CostMatrix{{-5}}, 0},
		{"negative beside positive", CostMatrix{{-5, 3}, {-1, -2}}, 3},
	}
	for _, solver := range []Solver{HungarianSolver{}, GreedySolver{}} {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rows, cols := len(tc.m), len(tc.m[0])
				pairs, err := solver.Solve(context.Background(), tc.m, rows, cols)
				require.NoError(t, err)
				for _, p := range pairs {
					require.GreaterOrEqual(t, tc.m[p.Task][p.Worker], 0.0, "pair %+v", p)
				}
				require.Equal(t, tc.want, Objective(tc.m, pairs))
			})
		}
	}
}

func TestHungarianSolver_PrefersTwoPairsOverOneHeavy(t *testing.T) {
	// Greedy takes (0,0)=10 and strands row 1; the optimum is 9+9.
	m := CostMatrix{
		{10, 9},
		{9, SentinelLow},
	}

	pairs, err := HungarianSolver{}.Solve(context.Background(), m, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 18.0, Objective(m, pairs))

	greedy, err := GreedySolver{}.Solve(context.Background(), m, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 10.0, Objective(m, greedy))
}

func TestSolvers_RejectInvalidMatrix(t *testing.T) {
	cases := []struct {
		name string
		m    CostMatrix
		rows int
		cols int
	}{
		{"row count mismatch", CostMatrix{{1}}, 2, 1},
		{"ragged row", CostMatrix{{1, 2}, {3}}, 2, 2},
		{"NaN cell", CostMatrix{{math.NaN()}}, 1, 1},
		{"infinite cell", CostMatrix{{math.Inf(1)}}, 1, 1},
		{"negative size", CostMatrix{}, -1, 0},
	}
	for _, solver := range []Solver{HungarianSolver{}, GreedySolver{}} {
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := solver.Solve(context.Background(), tc.m, tc.rows, tc.cols)
				require.ErrorIs(t, err, ErrInvalidMatrix)
			})
		}
	}
}

func TestGreedySolver_RespectsDegreeConstraint(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for iter := 0; iter < 50; iter++ {
		rows, cols := 1+r.IntN(6), 1+r.IntN(6)
		m := randomMatrix(r, rows, cols)

		pairs, err := GreedySolver{}.Solve(context.Background(), m, rows, cols)
		require.NoError(t, err)
		require.NoError(t, checkPairs(m, pairs, rows, cols))
		require.LessOrEqual(t, Objective(m, pairs), bruteForce(m, rows, cols)+1e-9)
	}
}
