// Package seed loads sample workers and tasks from a YAML file into empty tables.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wmsopt/backend/internal/models"
)

type Skill struct {
	ID           int    `yaml:"id"`
	Name         string `yaml:"name"`
	Level        int    `yaml:"level"`
	Productivity int    `yaml:"productivity"`
}

type Shift struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Day   string `yaml:"day"`
}

type Worker struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Age    int     `yaml:"age"`
	Skills []Skill `yaml:"skills"`
	Shifts []Shift `yaml:"shifts"`
}

type Task struct {
	Name     string `yaml:"name"`
	SkillID  int    `yaml:"skill_id"`
	Type     string `yaml:"type"`
	Priority *int   `yaml:"priority"`
	Units    int    `yaml:"units"`
	// DependsOn is the 1-based position of an earlier task in the file.
	DependsOn int `yaml:"depends_on"`
}

// File is the seed document.
type File struct {
	Workers []Worker `yaml:"workers"`
	Tasks   []Task   `yaml:"tasks"`
}

// TaskStore is implemented by *repository.TaskRepo.
type TaskStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, t *models.Task) error
}

// WorkerStore is implemented by *repository.WorkerRepo.
type WorkerStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, w *models.Worker) error
}

// Load reads and checks a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, t := range f.Tasks {
		if t.DependsOn < 0 || t.DependsOn > i {
			return nil, fmt.Errorf("seed task %d (%s): depends_on must name an earlier task", i+1, t.Name)
		}
	}
	return &f, nil
}

// Apply inserts the file's workers when the workers table is empty and its
// tasks when the tasks table is empty.
func Apply(ctx context.Context, f *File, workers WorkerStore, tasks TaskStore, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	n, err := workers.Count(ctx)
	if err != nil {
		return fmt.Errorf("count workers: %w", err)
	}
	if n == 0 {
		for _, w := range f.Workers {
			mw := w.model()
			if err := workers.Create(ctx, &mw); err != nil {
				return fmt.Errorf("seed worker %s: %w", w.ID, err)
			}
		}
		log.Info("seeded workers", "count", len(f.Workers))
	}

	n, err = tasks.Count(ctx)
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	if n == 0 {
		ids := make([]int64, len(f.Tasks))
		for i, t := range f.Tasks {
			mt := models.Task{
				SkillID:   t.SkillID,
				Name:      t.Name,
				Type:      t.Type,
				Priority:  t.Priority,
				UnitCount: t.Units,
			}
			if mt.UnitCount == 0 {
				mt.UnitCount = 1
			}
			if t.DependsOn > 0 {
				dep := ids[t.DependsOn-1]
				mt.DependentTaskID = &dep
			}
			if err := tasks.Create(ctx, &mt); err != nil {
				return fmt.Errorf("seed task %q: %w", t.Name, err)
			}
			ids[i] = mt.ID
		}
		log.Info("seeded tasks", "count", len(f.Tasks))
	}
	return nil
}

// LoadAndApply is Load followed by Apply. A missing file is not an error.
func LoadAndApply(ctx context.Context, path string, workers WorkerStore, tasks TaskStore, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	f, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return Apply(ctx, f, workers, tasks, log)
}

func (w Worker) model() models.Worker {
	out := models.Worker{ID: w.ID, Name: w.Name, Age: w.Age}
	for _, s := range w.Skills {
		out.Skills = append(out.Skills, models.SkillInfo{
			SkillID: s.ID, SkillName: s.Name, SkillLevel: s.Level, Productivity: s.Productivity,
		})
	}
	for _, s := range w.Shifts {
		out.Shifts = append(out.Shifts, models.ShiftInfo{
			ShiftID: s.ID, ShiftName: s.Name, StartTime: s.Start, EndTime: s.End, DayOfWeek: s.Day,
		})
	}
	return out
}
