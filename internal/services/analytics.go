package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/wmsopt/backend/internal/models"
	"github.com/wmsopt/backend/internal/optimizer"
)

// StatusCounter is implemented by *repository.AssignmentRepo.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[models.AssignmentStatus]int, error)
	List(ctx context.Context) ([]models.Assignment, error)
}

// SkillCoverage is the number of workers holding one skill.
type SkillCoverage struct {
	SkillID   int    `json:"skillId"`
	SkillName string `json:"skillName,omitempty"`
	Workers   int    `json:"workers"`
}

// Summary is the supervisor dashboard overview.
type Summary struct {
	Tasks           int             `json:"tasks"`
	Workers         int             `json:"workers"`
	Assignments     map[string]int  `json:"assignments"`
	EligibleTasks   int             `json:"eligibleTasks"`
	IneligibleTasks int             `json:"ineligibleTasks"`
	WorkersPerSkill []SkillCoverage `json:"workersPerSkill"`
}

type Analytics struct {
	tasks       TaskStore
	workers     WorkerStore
	assignments StatusCounter
}

func NewAnalytics(tasks TaskStore, workers WorkerStore, assignments StatusCounter) *Analytics {
	return &Analytics{tasks: tasks, workers: workers, assignments: assignments}
}

// Summary reads tasks, workers and assignments concurrently and aggregates them.
func (a *Analytics) Summary(ctx context.Context) (*Summary, error) {
	var (
		tasks   []models.Task
		workers []models.Worker
		history []models.Assignment
		counts  map[models.AssignmentStatus]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tasks, err = a.tasks.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		workers, err = a.workers.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		history, err = a.assignments.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = a.assignments.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Summary{
		Tasks:       len(tasks),
		Workers:     len(workers),
		Assignments: make(map[string]int, len(counts)),
	}
	for status, n := range counts {
		out.Assignments[status.String()] = n
	}
	out.EligibleTasks = len(optimizer.FilterEligible(tasks, history))
	out.IneligibleTasks = out.Tasks - out.EligibleTasks

	coverage := make(map[int]*SkillCoverage)
	for _, w := range workers {
		for _, s := range models.CollapseSkills(w.Skills) {
			c, ok := coverage[s.SkillID]
			if !ok {
				c = &SkillCoverage{SkillID: s.SkillID, SkillName: s.SkillName}
				coverage[s.SkillID] = c
			}
			c.Workers++
		}
	}
	out.WorkersPerSkill = make([]SkillCoverage, 0, len(coverage))
	for _, c := range coverage {
		out.WorkersPerSkill = append(out.WorkersPerSkill, *c)
	}
	sort.Slice(out.WorkersPerSkill, func(i, j int) bool {
		return out.WorkersPerSkill[i].SkillID < out.WorkersPerSkill[j].SkillID
	})
	return out, nil
}
