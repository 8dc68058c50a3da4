package dashboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/dashboard"
	"github.com/vasiliy-maslov/educore/internal/store/memstore"
)

type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) Totals(ctx context.Context) (dashboard.Totals, error) {
	args := m.Called(ctx)
	return args.Get(0).(dashboard.Totals), args.Error(1)
}

func (m *MockDashboardRepository) PopularCourses(ctx context.Context, limit int) ([]dashboard.PopularCourse, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.PopularCourse), args.Error(1)
}

func TestService_Stats(t *testing.T) {
	repo := new(MockDashboardRepository)
	db := memstore.New()
	require.NoError(t, db.Store().Activities.Append(context.Background(), &activity.Activity{Type: activity.TypeOrderPlaced, Description: "Order #1 placed for $10.00"}))

	totals := dashboard.Totals{TotalRevenue: decimal.RequireFromString("10.00"), CompletedOrders: 1, Students: 3, Courses: 4}
	repo.On("Totals", mock.Anything).Return(totals, nil).Once()
	repo.On("PopularCourses", mock.Anything, 5).Return(nil, nil).Once()

	stats, err := dashboard.NewService(repo, db.Store().Activities).Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, totals, stats.Totals)
	assert.NotNil(t, stats.PopularCourses)
	assert.Empty(t, stats.PopularCourses)
	require.Len(t, stats.RecentActivities, 1)
	assert.Equal(t, activity.TypeOrderPlaced, stats.RecentActivities[0].Type)
	repo.AssertExpectations(t)
}

func TestService_StatsError(t *testing.T) {
	repo := new(MockDashboardRepository)
	boom := errors.New("boom")
	repo.On("Totals", mock.Anything).Return(dashboard.Totals{}, boom)
	repo.On("PopularCourses", mock.Anything, mock.Anything).Return([]dashboard.PopularCourse{}, nil)

	_, err := dashboard.NewService(repo, memstore.New().Store().Activities).Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}
