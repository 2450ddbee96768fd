package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wmsopt/backend/internal/models"
)

const taskColumns = `id, skill_id, task_name, task_type, priority, dependent_task_id, task_count, created_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(&t.ID, &t.SkillID, &t.Name, &t.Type, &t.Priority, &t.DependentTaskID, &t.UnitCount, &t.CreatedAt)
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (skill_id, task_name, task_type, priority, dependent_task_id, task_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, t.SkillID, t.Name, t.Type, t.Priority, t.DependentTaskID, t.UnitCount).Scan(&t.ID, &t.CreatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	var t models.Task
	if err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	return notFoundIfNone(r.pool.Exec(ctx, `
		UPDATE tasks SET skill_id = $2, task_name = $3, task_type = $4, priority = $5, dependent_task_id = $6, task_count = $7
		WHERE id = $1
	`, t.ID, t.SkillID, t.Name, t.Type, t.Priority, t.DependentTaskID, t.UnitCount))
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	return notFoundIfNone(r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id))
}

func (r *TaskRepo) List(ctx context.Context) ([]models.Task, error) {
	return listTasks(ctx, r.pool)
}

// ListTx reads all tasks inside the caller's transaction.
func (r *TaskRepo) ListTx(ctx context.Context, tx pgx.Tx) ([]models.Task, error) {
	return listTasks(ctx, tx)
}

func (r *TaskRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tasks`).Scan(&n)
	return n, err
}

func listTasks(ctx context.Context, q querier) ([]models.Task, error) {
	rows, err := q.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
