package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/db/dbtest"
)

func TestPostgresRepository_AddTwiceKeepsOneRow(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := cart.NewRepository(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "cart@example.com")
	courseID := dbtest.SeedCourse(t, pool, "Go", "15.00")

	added, err := repo.Add(ctx, userID, courseID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, userID, courseID)
	require.NoError(t, err)
	assert.False(t, added)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM cart_items WHERE user_id = $1", userID).Scan(&count))
	assert.Equal(t, 1, count)

	courses, err := repo.ListCourses(ctx, userID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, courseID, courses[0].ID)
}

func TestPostgresRepository_RemoveCourses(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := cart.NewRepository(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "cart2@example.com")
	a := dbtest.SeedCourse(t, pool, "A", "1.00")
	b := dbtest.SeedCourse(t, pool, "B", "2.00")

	_, err := repo.Add(ctx, userID, a)
	require.NoError(t, err)
	_, err = repo.Add(ctx, userID, b)
	require.NoError(t, err)

	require.NoError(t, repo.RemoveCourses(ctx, userID, []int64{a}))

	ids, err := repo.CourseIDs(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b}, ids)

	removed, err := repo.Remove(ctx, userID, a)
	require.NoError(t, err)
	assert.False(t, removed)
}
