package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/cart"
	"github.com/vasiliy-maslov/educore/internal/course"
)

type cartKey struct {
	user   uuid.UUID
	course int64
}

// memRepository behaves like the table: (user, course) is unique.
type memRepository struct {
	mu    sync.Mutex
	items map[cartKey]bool
	err   error
}

func newMemRepository() *memRepository {
	return &memRepository{items: make(map[cartKey]bool)}
}

func (r *memRepository) Add(_ context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	k := cartKey{userID, courseID}
	if r.items[k] {
		return false, nil
	}
	r.items[k] = true
	return true, nil
}

func (r *memRepository) Remove(_ context.Context, userID uuid.UUID, courseID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := cartKey{userID, courseID}
	if !r.items[k] {
		return false, nil
	}
	delete(r.items, k)
	return true, nil
}

func (r *memRepository) RemoveCourses(_ context.Context, userID uuid.UUID, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.items, cartKey{userID, id})
	}
	return nil
}

func (r *memRepository) Clear(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.items {
		if k.user == userID {
			delete(r.items, k)
		}
	}
	return nil
}

func (r *memRepository) ListCourses(_ context.Context, userID uuid.UUID) ([]course.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []course.Course
	for k := range r.items {
		if k.user == userID {
			out = append(out, course.Course{ID: k.course})
		}
	}
	return out, nil
}

func (r *memRepository) CourseIDs(_ context.Context, userID uuid.UUID) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for k := range r.items {
		if k.user == userID {
			out = append(out, k.course)
		}
	}
	return out, nil
}

type stubCourses struct {
	known map[int64]bool
}

func (s stubCourses) Get(_ context.Context, id int64) (*course.Course, error) {
	if !s.known[id] {
		return nil, course.ErrCourseNotFound
	}
	return &course.Course{ID: id}, nil
}

func TestService_Add_Twice(t *testing.T) {
	repo := newMemRepository()
	svc := cart.NewService(repo, stubCourses{known: map[int64]bool{1: true}})
	userID := uuid.Must(uuid.NewV4())

	added, err := svc.Add(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = svc.Add(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.False(t, added)

	items, err := svc.GetCart(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestService_Add_ConcurrentSameCourse(t *testing.T) {
	repo := newMemRepository()
	svc := cart.NewService(repo, stubCourses{known: map[int64]bool{5: true}})
	userID := uuid.Must(uuid.NewV4())

	const workers = 8
	results := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := svc.Add(context.Background(), userID, 5)
			assert.NoError(t, err)
			results <- added
		}()
	}
	wg.Wait()
	close(results)

	var trues int
	for r := range results {
		if r {
			trues++
		}
	}
	assert.Equal(t, 1, trues)
}

func TestService_Add_UnknownCourse(t *testing.T) {
	repo := newMemRepository()
	svc := cart.NewService(repo, stubCourses{known: map[int64]bool{}})

	added, err := svc.Add(context.Background(), uuid.Must(uuid.NewV4()), 99)
	assert.ErrorIs(t, err, course.ErrCourseNotFound)
	assert.False(t, added)
	assert.Empty(t, repo.items)
}

func TestService_Add_RepositoryError(t *testing.T) {
	repo := newMemRepository()
	repo.err = errors.New("db down")
	svc := cart.NewService(repo, stubCourses{known: map[int64]bool{1: true}})

	_, err := svc.Add(context.Background(), uuid.Must(uuid.NewV4()), 1)
	assert.ErrorIs(t, err, repo.err)
}

func TestService_RemoveAndClear(t *testing.T) {
	repo := newMemRepository()
	svc := cart.NewService(repo, stubCourses{known: map[int64]bool{1: true, 2: true}})
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	_, _ = svc.Add(ctx, userID, 1)
	_, _ = svc.Add(ctx, userID, 2)

	removed, err := svc.Remove(ctx, userID, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, userID, 1)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, svc.Clear(ctx, userID))
	require.NoError(t, svc.Clear(ctx, userID))

	ids, err := svc.CourseIDs(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
