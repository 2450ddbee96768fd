package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates all tables if they don't exist.
// dependent_task_id has no foreign key: a dangling dependency is legal and
// only makes the task ineligible.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS tasks (
		id BIGSERIAL PRIMARY KEY,
		skill_id INTEGER NOT NULL,
		task_name TEXT NOT NULL,
		task_type TEXT NOT NULL DEFAULT '',
		priority INTEGER,
		dependent_task_id BIGINT,
		task_count INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS workers (
		worker_id TEXT PRIMARY KEY,
		worker_name TEXT NOT NULL,
		age INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS worker_skills (
		worker_id TEXT NOT NULL REFERENCES workers(worker_id) ON DELETE CASCADE,
		skill_id INTEGER NOT NULL,
		skill_name TEXT NOT NULL DEFAULT '',
		skill_level INTEGER NOT NULL,
		productivity INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_worker_skills_worker_id ON worker_skills(worker_id);

	CREATE TABLE IF NOT EXISTS worker_shifts (
		worker_id TEXT NOT NULL REFERENCES workers(worker_id) ON DELETE CASCADE,
		shift_id INTEGER NOT NULL,
		shift_name TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		day_of_week TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_worker_shifts_worker_id ON worker_shifts(worker_id);

	CREATE TABLE IF NOT EXISTS assignments (
		id BIGSERIAL PRIMARY KEY,
		worker_id TEXT NOT NULL REFERENCES workers(worker_id) ON DELETE CASCADE,
		task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		assigned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'ACCEPTED', 'REJECTED')),
		feedback TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_status ON assignments(status);
	CREATE INDEX IF NOT EXISTS idx_assignments_worker_id ON assignments(worker_id);

	CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		key_hash TEXT NOT NULL UNIQUE,
		key_prefix TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	return err
}
