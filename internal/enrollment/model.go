package enrollment

import (
	"time"

	"github.com/gofrs/uuid"
)

type Enrollment struct {
	ID                 int64      `json:"id" db:"id"`
	UserID             uuid.UUID  `json:"user_id" db:"user_id"`
	CourseID           int64      `json:"course_id" db:"course_id"`
	CourseTitle        string     `json:"course_title,omitempty" db:"course_title"`
	EnrolledAt         time.Time  `json:"enrolled_at" db:"enrolled_at"`
	ProgressPercentage int        `json:"progress_percentage" db:"progress_percentage"`
	IsCompleted        bool       `json:"is_completed" db:"is_completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	LastAccessedAt     *time.Time `json:"last_accessed_at,omitempty" db:"last_accessed_at"`
}
