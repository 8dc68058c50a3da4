package dashboard

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Totals struct {
	TotalRevenue    decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	CompletedOrders int64           `db:"completed_orders" json:"completed_orders"`
	Students        int64           `db:"students" json:"students"`
	Courses         int64           `db:"courses" json:"courses"`
}

type PopularCourse struct {
	CourseID    int64  `db:"course_id" json:"course_id"`
	Title       string `db:"title" json:"title"`
	Enrollments int64  `db:"enrollments" json:"enrollments"`
}

// Repository reads aggregate figures; it never writes.
type Repository interface {
	Totals(ctx context.Context) (Totals, error)
	PopularCourses(ctx context.Context, limit int) ([]PopularCourse, error)
}

type sqlxRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlxRepository{db: db}
}

func (r *sqlxRepository) Totals(ctx context.Context) (Totals, error) {
	const query = `
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = 'Completed') AS total_revenue,
			(SELECT COUNT(*) FROM orders WHERE status = 'Completed') AS completed_orders,
			(SELECT COUNT(*) FROM users WHERE role = 'student') AS students,
			(SELECT COUNT(*) FROM courses) AS courses`

	var t Totals
	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return Totals{}, fmt.Errorf("failed to read dashboard totals: %w", err)
	}
	return t, nil
}

func (r *sqlxRepository) PopularCourses(ctx context.Context, limit int) ([]PopularCourse, error) {
	const query = `
		SELECT c.id AS course_id, c.title, COUNT(e.id) AS enrollments
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		GROUP BY c.id, c.title
		ORDER BY enrollments DESC, c.id
		LIMIT $1`

	courses := make([]PopularCourse, 0, limit)
	if err := r.db.SelectContext(ctx, &courses, query, limit); err != nil {
		return nil, fmt.Errorf("failed to read popular courses: %w", err)
	}
	return courses, nil
}
