package enrollment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/db/dbtest"
	"github.com/vasiliy-maslov/educore/internal/enrollment"
)

func TestPostgresRepository_EnsureEnrolledIsIdempotent(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := enrollment.NewRepository(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "learner@example.com")
	a := dbtest.SeedCourse(t, pool, "A", "1.00")
	b := dbtest.SeedCourse(t, pool, "B", "1.00")

	require.NoError(t, repo.Insert(ctx, &enrollment.Enrollment{UserID: userID, CourseID: a}))

	n, err := repo.EnsureEnrolled(ctx, userID, []int64{a, b})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.EnsureEnrolled(ctx, userID, []int64{a, b})
	require.NoError(t, err)
	assert.Zero(t, n)

	err = repo.Insert(ctx, &enrollment.Enrollment{UserID: userID, CourseID: b})
	assert.ErrorIs(t, err, enrollment.ErrAlreadyEnrolled)

	list, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPostgresRepository_UpdateProgressKeepsFirstCompletion(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := enrollment.NewRepository(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "finisher@example.com")
	courseID := dbtest.SeedCourse(t, pool, "A", "1.00")
	require.NoError(t, repo.Insert(ctx, &enrollment.Enrollment{UserID: userID, CourseID: courseID}))

	first := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	changed, err := repo.UpdateProgress(ctx, userID, courseID, 20, true, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateProgress(ctx, userID, courseID, 100, true, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	e, err := repo.Get(ctx, userID, courseID)
	require.NoError(t, err)
	assert.Equal(t, 100, e.ProgressPercentage)
	require.NotNil(t, e.CompletedAt)
	assert.True(t, first.Equal(*e.CompletedAt))
}
