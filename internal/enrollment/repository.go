package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vasiliy-maslov/educore/internal/db"
)

var (
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("user is already enrolled in this course")
)

type Repository interface {
	// Insert fails with ErrAlreadyEnrolled when the (user, course) pair exists.
	Insert(ctx context.Context, e *Enrollment) error
	// EnsureEnrolled inserts missing enrollments and skips existing ones. It returns how many rows
	// were created.
	EnsureEnrolled(ctx context.Context, userID uuid.UUID, courseIDs []int64) (int64, error)
	Get(ctx context.Context, userID uuid.UUID, courseID int64) (*Enrollment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Enrollment, error)
	Touch(ctx context.Context, userID uuid.UUID, courseID int64, at time.Time) error
	// UpdateProgress writes progress to an enrollment that is not yet completed and reports
	// whether a row changed.
	UpdateProgress(ctx context.Context, userID uuid.UUID, courseID int64, percentage int, complete bool, at time.Time) (bool, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const enrollmentColumns = `e.id, e.user_id, e.course_id, c.title, e.enrolled_at, e.progress_percentage,
	e.is_completed, e.completed_at, e.last_accessed_at`

func scanEnrollment(row pgx.Row, e *Enrollment) error {
	return row.Scan(
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.CourseTitle,
		&e.EnrolledAt,
		&e.ProgressPercentage,
		&e.IsCompleted,
		&e.CompletedAt,
		&e.LastAccessedAt,
	)
}

func (r *postgresRepository) Insert(ctx context.Context, e *Enrollment) error {
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx,
		"INSERT INTO enrollments (user_id, course_id, enrolled_at) VALUES ($1, $2, $3) RETURNING id",
		e.UserID, e.CourseID, now,
	).Scan(&e.ID)
	if err != nil {
		if db.IsUniqueViolation(err, "enrollments_user_course_key") {
			return ErrAlreadyEnrolled
		}
		return fmt.Errorf("repository: failed to insert enrollment: %w", err)
	}
	e.EnrolledAt = now
	return nil
}

func (r *postgresRepository) EnsureEnrolled(ctx context.Context, userID uuid.UUID, courseIDs []int64) (int64, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO enrollments (user_id, course_id, enrolled_at)
		SELECT $1, course_id, $3 FROM UNNEST($2::BIGINT[]) AS course_id
		ON CONFLICT ON CONSTRAINT enrollments_user_course_key DO NOTHING`,
		userID, courseIDs, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("repository: failed to ensure enrollments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) Get(ctx context.Context, userID uuid.UUID, courseID int64) (*Enrollment, error) {
	query := "SELECT " + enrollmentColumns + `
		FROM enrollments e JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1 AND e.course_id = $2`
	var e Enrollment
	if err := scanEnrollment(r.db.QueryRow(ctx, query, userID, courseID), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("repository: failed to select enrollment: %w", err)
	}
	return &e, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Enrollment, error) {
	query := "SELECT " + enrollmentColumns + `
		FROM enrollments e JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		ORDER BY COALESCE(e.last_accessed_at, e.enrolled_at) DESC, e.id DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]Enrollment, 0)
	for rows.Next() {
		var e Enrollment
		if err := scanEnrollment(rows, &e); err != nil {
			return nil, fmt.Errorf("repository: failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *postgresRepository) Touch(ctx context.Context, userID uuid.UUID, courseID int64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		"UPDATE enrollments SET last_accessed_at = $3 WHERE user_id = $1 AND course_id = $2",
		userID, courseID, at)
	if err != nil {
		return fmt.Errorf("repository: failed to touch enrollment: %w", err)
	}
	return nil
}

func (r *postgresRepository) UpdateProgress(ctx context.Context, userID uuid.UUID, courseID int64, percentage int, complete bool, at time.Time) (bool, error) {
	// NOT is_completed keeps the first completion timestamp under concurrent updates.
	tag, err := r.db.Exec(ctx, `
		UPDATE enrollments
		SET progress_percentage = CASE WHEN $4::BOOLEAN THEN 100 ELSE $3::SMALLINT END,
		    is_completed = $4::BOOLEAN,
		    completed_at = CASE WHEN $4::BOOLEAN THEN $5::TIMESTAMPTZ ELSE NULL END,
		    last_accessed_at = $5::TIMESTAMPTZ
		WHERE user_id = $1 AND course_id = $2 AND NOT is_completed`,
		userID, courseID, percentage, complete, at)
	if err != nil {
		return false, fmt.Errorf("repository: failed to update progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
