package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/educore/internal/db"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCourseLocked   = errors.New("course has been purchased and can no longer be modified")
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Course, int64, error)
	GetByID(ctx context.Context, id int64) (*Course, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Course, error)
	Create(ctx context.Context, c *Course) error
	// Update and Delete only touch courses that are not purchased; they report ErrCourseLocked
	// or ErrCourseNotFound otherwise.
	Update(ctx context.Context, c *Course) error
	Delete(ctx context.Context, id int64) error
	MarkPurchased(ctx context.Context, ids []int64) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const courseColumns = `id, title, description, price, category_id, instructor_id, rating, review_count, is_purchased, created_at, updated_at`

func scanCourse(row pgx.Row, c *Course) error {
	return row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Price,
		&c.CategoryID,
		&c.InstructorID,
		&c.Rating,
		&c.ReviewCount,
		&c.IsPurchased,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Course, int64, error) {
	filter = filter.normalized()

	var (
		where []string
		args  []any
	)
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM courses "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count courses: %w", err)
	}

	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query := fmt.Sprintf("SELECT %s FROM courses %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		courseColumns, whereSQL, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]Course, 0)
	for rows.Next() {
		var c Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating courses: %w", err)
	}
	return courses, total, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Course, error) {
	var c Course
	err := scanCourse(r.db.QueryRow(ctx, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("repository: failed to select course %d: %w", id, err)
	}
	return &c, nil
}

// GetByIDs returns the courses that exist among ids, ordered by id. Callers compare lengths to
// detect missing ids.
func (r *postgresRepository) GetByIDs(ctx context.Context, ids []int64) ([]Course, error) {
	if len(ids) == 0 {
		return []Course{}, nil
	}
	rows, err := r.db.Query(ctx, "SELECT "+courseColumns+" FROM courses WHERE id = ANY($1) ORDER BY id", ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query courses by ids: %w", err)
	}
	defer rows.Close()

	courses := make([]Course, 0, len(ids))
	for rows.Next() {
		var c Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, fmt.Errorf("repository: failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating courses by ids: %w", err)
	}
	return courses, nil
}

func (r *postgresRepository) Create(ctx context.Context, c *Course) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO courses (title, description, price, category_id, instructor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, c.Title, c.Description, c.Price, c.CategoryID, c.InstructorID, now, now).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert course: %w", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, c *Course) error {
	now := time.Now().UTC()
	query := `
		UPDATE courses
		SET title = $1, description = $2, price = $3, category_id = $4, instructor_id = $5, updated_at = $6
		WHERE id = $7 AND NOT is_purchased
	`
	tag, err := r.db.Exec(ctx, query, c.Title, c.Description, c.Price, c.CategoryID, c.InstructorID, now, c.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update course %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.lockedOrMissing(ctx, c.ID)
	}
	c.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM courses WHERE id = $1 AND NOT is_purchased", id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete course %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return r.lockedOrMissing(ctx, id)
	}
	return nil
}

func (r *postgresRepository) lockedOrMissing(ctx context.Context, id int64) error {
	var purchased bool
	err := r.db.QueryRow(ctx, "SELECT is_purchased FROM courses WHERE id = $1", id).Scan(&purchased)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCourseNotFound
	}
	if err != nil {
		return fmt.Errorf("repository: failed to check course %d: %w", id, err)
	}
	if purchased {
		return ErrCourseLocked
	}
	return fmt.Errorf("repository: course %d changed concurrently", id)
}

func (r *postgresRepository) MarkPurchased(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, "UPDATE courses SET is_purchased = TRUE, updated_at = NOW() WHERE id = ANY($1) AND NOT is_purchased", ids)
	if err != nil {
		return fmt.Errorf("repository: failed to mark courses purchased: %w", err)
	}
	return nil
}
