package enrollment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/course"
)

var ErrInvalidProgress = errors.New("progress percentage must be a number")

type CourseGetter interface {
	Get(ctx context.Context, id int64) (*course.Course, error)
}

type Service interface {
	Enroll(ctx context.Context, userID uuid.UUID, courseID int64) (*Enrollment, error)
	MyCourses(ctx context.Context, userID uuid.UUID) ([]Enrollment, error)
	GetProgress(ctx context.Context, userID uuid.UUID, courseID int64) (*Enrollment, error)
	UpdateProgress(ctx context.Context, userID uuid.UUID, courseID int64, percentage float64, completed bool) (*Enrollment, error)
}

type service struct {
	repo    Repository
	courses CourseGetter
	now     func() time.Time
}

func NewService(repo Repository, courses CourseGetter) Service {
	return &service{repo: repo, courses: courses, now: func() time.Time { return time.Now().UTC() }}
}

func (s *service) Enroll(ctx context.Context, userID uuid.UUID, courseID int64) (*Enrollment, error) {
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			return nil, course.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to check course %d: %w", courseID, err)
	}

	e := &Enrollment{UserID: userID, CourseID: courseID}
	if err := s.repo.Insert(ctx, e); err != nil {
		if errors.Is(err, ErrAlreadyEnrolled) {
			log.Warn().Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: already enrolled")
			return nil, ErrAlreadyEnrolled
		}
		log.Error().Err(err).Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: failed to enroll")
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}

	log.Info().Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: user enrolled")
	return s.repo.Get(ctx, userID, courseID)
}

func (s *service) MyCourses(ctx context.Context, userID uuid.UUID) ([]Enrollment, error) {
	enrollments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list enrollments")
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

// GetProgress returns the enrollment and records the access.
func (s *service) GetProgress(ctx context.Context, userID uuid.UUID, courseID int64) (*Enrollment, error) {
	if err := s.repo.Touch(ctx, userID, courseID, s.now()); err != nil {
		log.Warn().Err(err).Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: failed to record course access")
	}
	e, err := s.repo.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return e, nil
}

// ClampProgress limits p to [0, 100] and rounds it to a whole percent.
func ClampProgress(p float64) (int, error) {
	if math.IsNaN(p) {
		return 0, ErrInvalidProgress
	}
	return int(math.Round(math.Max(0, math.Min(100, p)))), nil
}

// UpdateProgress clamps the percentage. Completion is one-way: it forces 100 and stamps
// completed_at once; later calls leave a completed enrollment untouched.
func (s *service) UpdateProgress(ctx context.Context, userID uuid.UUID, courseID int64, percentage float64, completed bool) (*Enrollment, error) {
	pct, err := ClampProgress(percentage)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.UpdateProgress(ctx, userID, courseID, pct, completed, s.now())
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: failed to update progress")
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	e, err := s.repo.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			log.Warn().Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: progress update for missing enrollment")
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	if !changed {
		log.Info().Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: enrollment already completed, progress unchanged")
	}
	return e, nil
}
