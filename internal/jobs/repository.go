package jobs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worklance/backend/internal/lifecycle"
	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const jobColumns = `id, owner_id, title, description, status, salary_units, slots, escrow_subaccount, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.OwnerID, &j.Title, &j.Description, &j.Status, &j.SalaryUnits,
		&j.Slots, &j.EscrowSubaccount, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repository) Create(ctx context.Context, job *models.Job) (*models.Job, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO jobs (id, owner_id, title, description, status, salary_units, slots, escrow_subaccount)
		VALUES ($1, $2, $3, $4, 'OPEN', $5, $6, $7)
		RETURNING `+jobColumns+`
	`, job.ID, job.OwnerID, job.Title, job.Description, job.SalaryUnits, job.Slots, job.EscrowSubaccount)
	return scanJob(row)
}

func (r *Repository) GetByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &payments.NotFoundError{Kind: "job", ID: jobID.String()}
	}
	return j, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

func (r *Repository) ListOpen(ctx context.Context) ([]*models.Job, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'OPEN' ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, j)
	}
	return list, rows.Err()
}

// markStatus performs a guarded transition. The WHERE clause carries the
// expected current status, so of two racing callers exactly one wins; the
// loser gets ErrStatusConflict.
func (r *Repository) markStatus(ctx context.Context, jobID uuid.UUID, from, to string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE jobs SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, jobID, from)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return lifecycle.ErrStatusConflict
	}
	return nil
}

func (r *Repository) MarkOngoing(ctx context.Context, jobID uuid.UUID) error {
	return r.markStatus(ctx, jobID, models.JobStatusOpen, models.JobStatusOngoing)
}

func (r *Repository) MarkFinished(ctx context.Context, jobID uuid.UUID) error {
	return r.markStatus(ctx, jobID, models.JobStatusOngoing, models.JobStatusFinished)
}

func (r *Repository) MarkCancelled(ctx context.Context, jobID uuid.UUID) error {
	return r.markStatus(ctx, jobID, models.JobStatusOpen, models.JobStatusCancelled)
}

func (r *Repository) Apply(ctx context.Context, jobID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO job_appliers (job_id, user_id, applied_at, accepted)
		VALUES ($1, $2, now(), false)
		ON CONFLICT (job_id, user_id) DO NOTHING
	`, jobID, userID)
	return err
}

func (r *Repository) AcceptApplier(ctx context.Context, jobID, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE job_appliers SET accepted = true WHERE job_id = $1 AND user_id = $2
	`, jobID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return &payments.NotFoundError{Kind: "applier", ID: userID.String()}
	}
	return nil
}

func (r *Repository) ListAppliers(ctx context.Context, jobID uuid.UUID) ([]models.JobApplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT job_id, user_id, applied_at, accepted
		FROM job_appliers WHERE job_id = $1 ORDER BY applied_at ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.JobApplier
	for rows.Next() {
		var a models.JobApplier
		if err := rows.Scan(&a.JobID, &a.UserID, &a.AppliedAt, &a.Accepted); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *Repository) ListAcceptedFreelancers(ctx context.Context, jobID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM job_appliers
		WHERE job_id = $1 AND accepted = true ORDER BY applied_at ASC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ lifecycle.JobStore = (*Repository)(nil)
