package course

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrInvalidCourse = errors.New("invalid course data")

type Service interface {
	List(ctx context.Context, filter Filter) (*Page, error)
	Get(ctx context.Context, id int64) (*Course, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Course, error)
	Create(ctx context.Context, c *Course) (*Course, error)
	Update(ctx context.Context, c *Course) (*Course, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter Filter) (*Page, error) {
	filter = filter.normalized()
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list courses")
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return &Page{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Course, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			log.Warn().Int64("course_id", id).Msg("service: course not found")
			return nil, ErrCourseNotFound
		}
		log.Error().Err(err).Int64("course_id", id).Msg("service: failed to get course")
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return c, nil
}

func (s *service) GetByIDs(ctx context.Context, ids []int64) ([]Course, error) {
	courses, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return courses, nil
}

func validate(c *Course) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidCourse)
	}
	if c.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidCourse)
	}
	return nil
}

func (s *service) Create(ctx context.Context, c *Course) (*Course, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		log.Error().Err(err).Msg("service: failed to create course")
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	log.Info().Int64("course_id", c.ID).Msg("service: course created")
	return c, nil
}

func (s *service) Update(ctx context.Context, c *Course) (*Course, error) {
	if err := validate(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrCourseNotFound) || errors.Is(err, ErrCourseLocked) {
			log.Warn().Err(err).Int64("course_id", c.ID).Msg("service: course update rejected")
			return nil, err
		}
		log.Error().Err(err).Int64("course_id", c.ID).Msg("service: failed to update course")
		return nil, fmt.Errorf("failed to update course %d: %w", c.ID, err)
	}
	return s.Get(ctx, c.ID)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCourseNotFound) || errors.Is(err, ErrCourseLocked) {
			log.Warn().Err(err).Int64("course_id", id).Msg("service: course delete rejected")
			return err
		}
		log.Error().Err(err).Int64("course_id", id).Msg("service: failed to delete course")
		return fmt.Errorf("failed to delete course %d: %w", id, err)
	}
	log.Info().Int64("course_id", id).Msg("service: course deleted")
	return nil
}
