package activity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/db/dbtest"
)

func TestPostgresRepository_AppendAndRecent(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := activity.NewRepository(pool)
	ctx := context.Background()

	userID := dbtest.SeedUser(t, pool, "feed@example.com")
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, desc := range []string{"Order #1 placed for $10.00", "Order #2 placed for $20.00", "Order #3 placed for $30.00"} {
		a := &activity.Activity{
			Type:        activity.TypeOrderPlaced,
			Description: desc,
			UserID:      &userID,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Append(ctx, a))
		assert.NotZero(t, a.ID)
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Order #3 placed for $30.00", recent[0].Description)
	assert.Equal(t, userID, *recent[0].UserID)
	assert.Nil(t, recent[0].CourseID)
}
