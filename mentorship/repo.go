package mentorship

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type StudentRequests interface {
	repository.Repository[*StudentRequest]

	Create(ctx context.Context, record *StudentRequest, criteria ...repository.InsertCriteria) (*StudentRequest, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *StudentRequest, criteria ...repository.InsertCriteria) (*StudentRequest, error)

	FindPending(ctx context.Context, studentID, mentorID uuid.UUID) (*StudentRequest, error)
	ListForMentor(ctx context.Context, mentorID uuid.UUID, status string) ([]*StudentRequest, error)
	CountPending(ctx context.Context, mentorID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status RequestStatus) (*StudentRequest, error)
}

type studentRequests struct {
	repository.Repository[*StudentRequest]
	db *bun.DB
}

var (
	_ StudentRequests                        = (*studentRequests)(nil)
	_ repository.Repository[*StudentRequest] = (*studentRequests)(nil)
)

func NewStudentRequestsRepository(db *bun.DB) StudentRequests {
	repo := repository.NewRepository[*StudentRequest](db, repository.ModelHandlers[*StudentRequest]{
		NewRecord: func() *StudentRequest { return &StudentRequest{} },
		GetID: func(r *StudentRequest) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *StudentRequest, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &studentRequests{
		Repository: repo,
		db:         db,
	}
}

func (r *studentRequests) Create(ctx context.Context, record *StudentRequest, criteria ...repository.InsertCriteria) (*StudentRequest, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *studentRequests) CreateTx(ctx context.Context, tx bun.IDB, record *StudentRequest, criteria ...repository.InsertCriteria) (*StudentRequest, error) {
	prepareRequestDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// FindPending returns the open request for the (student, mentor) pair, if any
func (r *studentRequests) FindPending(ctx context.Context, studentID, mentorID uuid.UUID) (*StudentRequest, error) {
	record := &StudentRequest{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.student_id = ?", studentID.String()).
		Where("?TableAlias.mentor_id = ?", mentorID.String()).
		Where("?TableAlias.status = ?", string(StatusPending)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListForMentor returns the mentor's requests, newest first, optionally
// narrowed by status
func (r *studentRequests) ListForMentor(ctx context.Context, mentorID uuid.UUID, status string) ([]*StudentRequest, error) {
	var records []*StudentRequest

	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.mentor_id = ?", mentorID.String())

	if status = strings.TrimSpace(status); status != "" {
		q = q.Where("?TableAlias.status = ?", status)
	}

	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// CountPending counts the mentor's open requests
func (r *studentRequests) CountPending(ctx context.Context, mentorID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*StudentRequest)(nil)).
		Where("?TableAlias.mentor_id = ?", mentorID.String()).
		Where("?TableAlias.status = ?", string(StatusPending)).
		Count(ctx)
}

func (r *studentRequests) UpdateStatus(ctx context.Context, id uuid.UUID, status RequestStatus) (*StudentRequest, error) {
	record := &StudentRequest{}
	record.ID = id
	record.Status = status

	return r.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func prepareRequestDefaults(record *StudentRequest) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.EnsureStatus()
}
