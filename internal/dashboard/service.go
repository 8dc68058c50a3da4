// Package dashboard serves the admin overview. The figures are read without locking and may lag
// behind in-flight checkouts.
package dashboard

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vasiliy-maslov/educore/internal/activity"
)

const (
	popularLimit  = 5
	activityLimit = 10
)

type Stats struct {
	Totals
	PopularCourses   []PopularCourse     `json:"popular_courses"`
	RecentActivities []activity.Activity `json:"recent_activities"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo       Repository
	activities activity.Repository
}

func NewService(repo Repository, activities activity.Repository) Service {
	return &service{repo: repo, activities: activities}
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := s.repo.Totals(gctx)
		stats.Totals = t
		return err
	})
	g.Go(func() error {
		popular, err := s.repo.PopularCourses(gctx, popularLimit)
		stats.PopularCourses = popular
		return err
	})
	g.Go(func() error {
		recent, err := s.activities.Recent(gctx, activityLimit)
		stats.RecentActivities = recent
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("dashboard: failed to collect stats")
		return nil, err
	}
	if stats.PopularCourses == nil {
		stats.PopularCourses = []PopularCourse{}
	}
	if stats.RecentActivities == nil {
		stats.RecentActivities = []activity.Activity{}
	}
	return &stats, nil
}
