// Package optimizer computes task-to-worker assignments.
//
// A run takes an immutable snapshot of tasks, workers and assignment history
// and proceeds in four steps:
//
//  1. FilterEligible drops tasks whose prerequisite has no accepted assignment.
//  2. BuildCostMatrix scores every (task, worker) pair. Pairs where the worker
//     lacks the skill, or that were rejected before, get SentinelLow.
//  3. A Solver picks a maximum-weight matching where each task and each worker
//     is used at most once. Sentinel cells are never selected.
//  4. BuildAssignments turns the matching into Pending assignment records.
//
// The package performs no I/O and keeps no state between runs, so an Optimizer
// can be shared by concurrent callers. Persisting the result is the caller's job.
package optimizer
