package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListFilter narrows the course listing. Zero values mean "no filter".
type ListFilter struct {
	Category string
	Search   string
	Mentor   string
	Enrolled string
}

type Courses interface {
	repository.Repository[*Course]

	Create(ctx context.Context, record *Course, criteria ...repository.InsertCriteria) (*Course, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Course, criteria ...repository.InsertCriteria) (*Course, error)

	ListFiltered(ctx context.Context, filter ListFilter) ([]*Course, error)
	ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]*Course, error)
	CountEnrolled(ctx context.Context, studentID uuid.UUID) (int, error)

	ReplaceEnrollment(ctx context.Context, id uuid.UUID, enrolled UUIDList) error
	ReplaceRatings(ctx context.Context, id uuid.UUID, ratings RatingList) error
}

type courses struct {
	repository.Repository[*Course]
	db *bun.DB
}

var (
	_ Courses                        = (*courses)(nil)
	_ repository.Repository[*Course] = (*courses)(nil)
)

func NewCoursesRepository(db *bun.DB) Courses {
	repo := repository.NewRepository[*Course](db, repository.ModelHandlers[*Course]{
		NewRecord: func() *Course { return &Course{} },
		GetID: func(c *Course) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Course, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &courses{
		Repository: repo,
		db:         db,
	}
}

func (r *courses) Create(ctx context.Context, record *Course, criteria ...repository.InsertCriteria) (*Course, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *courses) CreateTx(ctx context.Context, tx bun.IDB, record *Course, criteria ...repository.InsertCriteria) (*Course, error) {
	prepareCourseDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// List applies the optional filters and sorts newest first. The enrolled
// filter matches against the JSON id list, same trick as the interests
// matching on users.
func (r *courses) ListFiltered(ctx context.Context, filter ListFilter) ([]*Course, error) {
	var records []*Course

	q := r.db.NewSelect().Model(&records)

	if category := strings.TrimSpace(filter.Category); category != "" {
		q = q.Where("?TableAlias.category = ?", category)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where("LOWER(?TableAlias.title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if mentor := strings.TrimSpace(filter.Mentor); mentor != "" {
		q = q.Where("?TableAlias.mentor_id = ?", mentor)
	}

	if enrolled := strings.TrimSpace(filter.Enrolled); enrolled != "" {
		q = q.Where("?TableAlias.enrolled_students LIKE ?", "%"+strings.ToLower(enrolled)+"%")
	}

	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *courses) ListByMentor(ctx context.Context, mentorID uuid.UUID) ([]*Course, error) {
	return r.ListFiltered(ctx, ListFilter{Mentor: mentorID.String()})
}

// CountEnrolled counts courses holding the student in their enrolled list
func (r *courses) CountEnrolled(ctx context.Context, studentID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*Course)(nil)).
		Where("?TableAlias.enrolled_students LIKE ?", "%"+strings.ToLower(studentID.String())+"%").
		Count(ctx)
}

// replaceCourseColumnSQL writes a whole embedded list back in one statement.
// Read-modify-write, same trade-off as the user session list: concurrent
// writers race and the last one wins.
const replaceCourseColumnSQL = `UPDATE "courses" AS "crs"
SET
	"%s" = ?
WHERE
	"crs"."deleted_at" IS NULL
AND (
	"crs"."id" = ?
) RETURNING *;`

func (r *courses) ReplaceEnrollment(ctx context.Context, id uuid.UUID, enrolled UUIDList) error {
	return r.replaceColumn(ctx, id, "enrolled_students", enrolled)
}

func (r *courses) ReplaceRatings(ctx context.Context, id uuid.UUID, ratings RatingList) error {
	return r.replaceColumn(ctx, id, "ratings", ratings)
}

func (r *courses) replaceColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	res, err := r.Repository.RawTx(ctx, r.db, fmt.Sprintf(replaceCourseColumnSQL, column), value, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func prepareCourseDefaults(record *Course) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
