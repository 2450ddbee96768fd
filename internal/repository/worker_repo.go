package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wmsopt/backend/internal/models"
)

type WorkerRepo struct {
	pool *pgxpool.Pool
}

func NewWorkerRepo(pool *pgxpool.Pool) *WorkerRepo {
	return &WorkerRepo{pool: pool}
}

// Create inserts the worker with its skills and shifts in one transaction.
func (r *WorkerRepo) Create(ctx context.Context, w *models.Worker) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO workers (worker_id, worker_name, age) VALUES ($1, $2, $3)
	`, w.ID, w.Name, w.Age); err != nil {
		return err
	}
	for _, s := range w.Skills {
		if _, err := tx.Exec(ctx, `
			INSERT INTO worker_skills (worker_id, skill_id, skill_name, skill_level, productivity)
			VALUES ($1, $2, $3, $4, $5)
		`, w.ID, s.SkillID, s.SkillName, s.SkillLevel, s.Productivity); err != nil {
			return err
		}
	}
	for _, s := range w.Shifts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO worker_shifts (worker_id, shift_id, shift_name, start_time, end_time, day_of_week)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, w.ID, s.ShiftID, s.ShiftName, s.StartTime, s.EndTime, s.DayOfWeek); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *WorkerRepo) GetByID(ctx context.Context, id string) (*models.Worker, error) {
	var w models.Worker
	err := r.pool.QueryRow(ctx, `
		SELECT worker_id, worker_name, age FROM workers WHERE worker_id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Age)
	if err != nil {
		return nil, err
	}
	list := []models.Worker{w}
	if err := attachDetails(ctx, r.pool, list, `WHERE worker_id = $1`, id); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *WorkerRepo) Delete(ctx context.Context, id string) error {
	return notFoundIfNone(r.pool.Exec(ctx, "DELETE FROM workers WHERE worker_id = $1", id))
}

// List returns all workers with their skills and shifts.
func (r *WorkerRepo) List(ctx context.Context) ([]models.Worker, error) {
	return listWorkers(ctx, r.pool)
}

// ListTx reads all workers inside the caller's transaction.
func (r *WorkerRepo) ListTx(ctx context.Context, tx pgx.Tx) ([]models.Worker, error) {
	return listWorkers(ctx, tx)
}

func (r *WorkerRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM workers`).Scan(&n)
	return n, err
}

// ListSkills returns each distinct skill id once, with its best-known name.
func (r *WorkerRepo) ListSkills(ctx context.Context) ([]models.SkillInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT skill_id, max(skill_name), max(skill_level), max(productivity)
		FROM worker_skills GROUP BY skill_id ORDER BY skill_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.SkillInfo{}
	for rows.Next() {
		var s models.SkillInfo
		if err := rows.Scan(&s.SkillID, &s.SkillName, &s.SkillLevel, &s.Productivity); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListShifts returns the distinct shift definitions across workers.
func (r *WorkerRepo) ListShifts(ctx context.Context) ([]models.ShiftInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT shift_id, shift_name, start_time, end_time, day_of_week
		FROM worker_shifts ORDER BY shift_id, day_of_week
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.ShiftInfo{}
	for rows.Next() {
		var s models.ShiftInfo
		if err := rows.Scan(&s.ShiftID, &s.ShiftName, &s.StartTime, &s.EndTime, &s.DayOfWeek); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func listWorkers(ctx context.Context, q querier) ([]models.Worker, error) {
	rows, err := q.Query(ctx, `SELECT worker_id, worker_name, age FROM workers ORDER BY worker_id`)
	if err != nil {
		return nil, err
	}
	list := []models.Worker{}
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Age); err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachDetails(ctx, q, list, ""); err != nil {
		return nil, err
	}
	return list, nil
}

// attachDetails loads skills and shifts for the given workers. where filters
// both detail tables; an empty where loads everything.
func attachDetails(ctx context.Context, q querier, workers []models.Worker, where string, args ...any) error {
	idx := make(map[string]int, len(workers))
	for i, w := range workers {
		idx[w.ID] = i
		workers[i].Skills = []models.SkillInfo{}
		workers[i].Shifts = []models.ShiftInfo{}
	}

	rows, err := q.Query(ctx, `
		SELECT worker_id, skill_id, skill_name, skill_level, productivity
		FROM worker_skills `+where+` ORDER BY worker_id, skill_id
	`, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		var s models.SkillInfo
		if err := rows.Scan(&id, &s.SkillID, &s.SkillName, &s.SkillLevel, &s.Productivity); err != nil {
			rows.Close()
			return err
		}
		if i, ok := idx[id]; ok {
			workers[i].Skills = append(workers[i].Skills, s)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
		SELECT worker_id, shift_id, shift_name, start_time, end_time, day_of_week
		FROM worker_shifts `+where+` ORDER BY worker_id, shift_id
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var s models.ShiftInfo
		if err := rows.Scan(&id, &s.ShiftID, &s.ShiftName, &s.StartTime, &s.EndTime, &s.DayOfWeek); err != nil {
			return err
		}
		if i, ok := idx[id]; ok {
			workers[i].Shifts = append(workers[i].Shifts, s)
		}
	}
	return rows.Err()
}
