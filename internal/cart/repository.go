package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/db"
)

// Repository stores cart rows keyed by (user_id, course_id).
type Repository interface {
	// Add reports false when the course is already in the cart.
	Add(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
	Remove(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
	RemoveCourses(ctx context.Context, userID uuid.UUID, courseIDs []int64) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ListCourses(ctx context.Context, userID uuid.UUID) ([]course.Course, error)
	CourseIDs(ctx context.Context, userID uuid.UUID) ([]int64, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) Add(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	_, err := r.db.Exec(ctx,
		"INSERT INTO cart_items (user_id, course_id, added_at) VALUES ($1, $2, $3)",
		userID, courseID, time.Now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err, "cart_items_pkey") {
			return false, nil
		}
		return false, fmt.Errorf("repository: failed to insert cart item: %w", err)
	}
	return true, nil
}

func (r *postgresRepository) Remove(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2", userID, courseID)
	if err != nil {
		return false, fmt.Errorf("repository: failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) RemoveCourses(ctx context.Context, userID uuid.UUID, courseIDs []int64) error {
	if len(courseIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND course_id = ANY($2)", userID, courseIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to delete purchased cart items: %w", err)
	}
	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("repository: failed to clear cart: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListCourses(ctx context.Context, userID uuid.UUID) ([]course.Course, error) {
	query := `
		SELECT c.id, c.title, c.description, c.price, c.category_id, c.instructor_id,
		       c.rating, c.review_count, c.is_purchased, c.created_at, c.updated_at
		FROM cart_items ci
		JOIN courses c ON c.id = ci.course_id
		WHERE ci.user_id = $1
		ORDER BY ci.added_at DESC, c.id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart: %w", err)
	}
	defer rows.Close()

	courses := make([]course.Course, 0)
	for rows.Next() {
		var c course.Course
		err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.CategoryID, &c.InstructorID,
			&c.Rating, &c.ReviewCount, &c.IsPurchased, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating cart: %w", err)
	}
	return courses, nil
}

func (r *postgresRepository) CourseIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	rows, err := r.db.Query(ctx, "SELECT course_id FROM cart_items WHERE user_id = $1 ORDER BY added_at, course_id", userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart course ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart course id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating cart course ids: %w", err)
	}
	return ids, nil
}
