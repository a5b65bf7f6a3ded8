package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/worklance/backend/internal/models"
	"github.com/worklance/backend/internal/payments"
)

// SubaccountDeriver derives a job's dedicated escrow sub-account.
type SubaccountDeriver interface {
	JobSubaccount(jobID uuid.UUID) []byte
}

type Service interface {
	CreateJob(ctx context.Context, ownerID uuid.UUID, title, desc string, salary int64, slots int) (*models.Job, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error)
	ListOpen(ctx context.Context) ([]*models.Job, error)
	Apply(ctx context.Context, jobID, userID uuid.UUID) error
	AcceptApplier(ctx context.Context, jobID, ownerID, userID uuid.UUID) error
	ListAppliers(ctx context.Context, jobID uuid.UUID) ([]models.JobApplier, error)
}

type service struct {
	repo    *Repository
	deriver SubaccountDeriver
}

func NewService(repo *Repository, deriver SubaccountDeriver) Service {
	return &service{repo: repo, deriver: deriver}
}

var _ Service = (*service)(nil)

func (s *service) CreateJob(ctx context.Context, ownerID uuid.UUID, title, desc string, salary int64, slots int) (*models.Job, error) {
	if title == "" {
		return nil, &payments.ValidationError{Reason: "title is required"}
	}
	if salary <= 0 {
		return nil, &payments.ValidationError{Reason: "salary must be positive"}
	}
	if slots <= 0 {
		return nil, &payments.ValidationError{Reason: "slots must be positive"}
	}
	job := &models.Job{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: desc,
		SalaryUnits: salary,
		Slots:       slots,
	}
	job.EscrowSubaccount = s.deriver.JobSubaccount(job.ID)
	created, err := s.repo.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return created, nil
}

func (s *service) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	return s.repo.GetByID(ctx, jobID)
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Job, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) ListOpen(ctx context.Context) ([]*models.Job, error) {
	return s.repo.ListOpen(ctx)
}

func (s *service) Apply(ctx context.Context, jobID, userID uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusOpen {
		return &payments.ValidationError{Reason: "applications are only accepted for OPEN jobs"}
	}
	if job.OwnerID == userID {
		return &payments.ValidationError{Reason: "job owner cannot apply to their own job"}
	}
	return s.repo.Apply(ctx, jobID, userID)
}

func (s *service) AcceptApplier(ctx context.Context, jobID, ownerID, userID uuid.UUID) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.OwnerID != ownerID {
		return &payments.ValidationError{Reason: "only the job owner can accept appliers"}
	}
	accepted, err := s.repo.ListAcceptedFreelancers(ctx, jobID)
	if err != nil {
		return err
	}
	if len(accepted) >= job.Slots {
		return &payments.ValidationError{Reason: "all slots are filled"}
	}
	return s.repo.AcceptApplier(ctx, jobID, userID)
}

func (s *service) ListAppliers(ctx context.Context, jobID uuid.UUID) ([]models.JobApplier, error) {
	return s.repo.ListAppliers(ctx, jobID)
}
