package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wmsopt/backend/internal/models"
)

const assignmentColumns = `id, worker_id, task_id, assigned_at, status, feedback`

type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

func scanAssignment(row pgx.Row, a *models.Assignment) error {
	var status string
	if err := row.Scan(&a.ID, &a.WorkerID, &a.TaskID, &a.AssignedAt, &status, &a.Feedback); err != nil {
		return err
	}
	s, err := models.ParseAssignmentStatus(status)
	if err != nil {
		return err
	}
	a.Status = s
	return nil
}

func (r *AssignmentRepo) Create(ctx context.Context, a *models.Assignment) error {
	return insertAssignment(ctx, r.pool, a)
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	var a models.Assignment
	if err := scanAssignment(r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetForUpdateTx reads one assignment and locks its row until the transaction ends.
func (r *AssignmentRepo) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*models.Assignment, error) {
	var a models.Assignment
	if err := scanAssignment(tx.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1 FOR UPDATE`, id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepo) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status models.AssignmentStatus, feedback *string) error {
	return notFoundIfNone(tx.Exec(ctx, `
		UPDATE assignments SET status = $2, feedback = $3 WHERE id = $1
	`, id, status.String(), feedback))
}

func (r *AssignmentRepo) Delete(ctx context.Context, id int64) error {
	return notFoundIfNone(r.pool.Exec(ctx, "DELETE FROM assignments WHERE id = $1", id))
}

func (r *AssignmentRepo) List(ctx context.Context) ([]models.Assignment, error) {
	return listAssignments(ctx, r.pool, `ORDER BY id`)
}

// ListTx reads the full assignment history inside the caller's transaction.
func (r *AssignmentRepo) ListTx(ctx context.Context, tx pgx.Tx) ([]models.Assignment, error) {
	return listAssignments(ctx, tx, `ORDER BY id`)
}

// ListByWorker returns a worker's assignments, newest first.
func (r *AssignmentRepo) ListByWorker(ctx context.Context, workerID string) ([]models.Assignment, error) {
	return listAssignments(ctx, r.pool, `WHERE worker_id = $1 ORDER BY assigned_at DESC, id DESC`, workerID)
}

// InsertTx persists the records and fills in their ids.
func (r *AssignmentRepo) InsertTx(ctx context.Context, tx pgx.Tx, list []models.Assignment) error {
	for i := range list {
		if err := insertAssignment(ctx, tx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeletePendingTx removes all Pending records; reviewed ones are kept.
func (r *AssignmentRepo) DeletePendingTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM assignments WHERE status = $1`, models.AssignmentPending.String())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountByStatus returns the number of assignments per status.
func (r *AssignmentRepo) CountByStatus(ctx context.Context) (map[models.AssignmentStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM assignments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[models.AssignmentStatus]int{
		models.AssignmentPending:  0,
		models.AssignmentAccepted: 0,
		models.AssignmentRejected: 0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		s, err := models.ParseAssignmentStatus(status)
		if err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func insertAssignment(ctx context.Context, q querier, a *models.Assignment) error {
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	return q.QueryRow(ctx, `
		INSERT INTO assignments (worker_id, task_id, assigned_at, status, feedback)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.WorkerID, a.TaskID, a.AssignedAt, a.Status.String(), a.Feedback).Scan(&a.ID)
}

func listAssignments(ctx context.Context, q querier, tail string, args ...any) ([]models.Assignment, error) {
	rows, err := q.Query(ctx, `SELECT `+assignmentColumns+` FROM assignments `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Assignment{}
	for rows.Next() {
		var a models.Assignment
		if err := scanAssignment(rows, &a); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
