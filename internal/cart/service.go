package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/course"
)

// CourseGetter is the slice of the catalog the cart needs.
type CourseGetter interface {
	Get(ctx context.Context, id int64) (*course.Course, error)
}

type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) ([]course.Course, error)
	Add(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
	Remove(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	CourseIDs(ctx context.Context, userID uuid.UUID) ([]int64, error)
}

type service struct {
	repo    Repository
	courses CourseGetter
}

func NewService(repo Repository, courses CourseGetter) Service {
	return &service{repo: repo, courses: courses}
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) ([]course.Course, error) {
	items, err := s.repo.ListCourses(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return items, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			return false, course.ErrCourseNotFound
		}
		return false, fmt.Errorf("failed to check course %d: %w", courseID, err)
	}

	added, err := s.repo.Add(ctx, userID, courseID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: failed to add to cart")
		return false, fmt.Errorf("failed to add course %d to cart: %w", courseID, err)
	}
	if !added {
		log.Warn().Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: course already in cart")
	}
	return added, nil
}

func (s *service) Remove(ctx context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	removed, err := s.repo.Remove(ctx, userID, courseID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Int64("course_id", courseID).Msg("service: failed to remove from cart")
		return false, fmt.Errorf("failed to remove course %d from cart: %w", courseID, err)
	}
	return removed, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *service) CourseIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	return s.repo.CourseIDs(ctx, userID)
}
