package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vasiliy-maslov/educore/internal/user"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func TestService_CreateUser_HashesPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := user.NewService(repo)
	newID := uuid.Must(uuid.NewV4())

	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.Email == "student@example.com" && u.PasswordHash != "" && u.PasswordHash != "password123"
	})).Return(newID, nil).Once()

	created, err := svc.CreateUser(context.Background(), &user.User{
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     " student@example.com ",
	}, "password123")
	require.NoError(t, err)

	assert.Equal(t, newID, created.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))
	repo.AssertExpectations(t)
}

func TestService_CreateUser_EmailExists(t *testing.T) {
	repo := new(MockUserRepository)
	svc := user.NewService(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(uuid.Nil, user.ErrEmailExists).Once()

	_, err := svc.CreateUser(context.Background(), &user.User{Email: "taken@example.com"}, "password123")
	assert.ErrorIs(t, err, user.ErrEmailExists)
}

func TestService_CreateUser_EmptyPassword(t *testing.T) {
	repo := new(MockUserRepository)
	svc := user.NewService(repo)

	_, err := svc.CreateUser(context.Background(), &user.User{Email: "a@example.com"}, "")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &user.User{ID: uuid.Must(uuid.NewV4()), Email: "a@example.com", PasswordHash: string(hash)}

	tests := []struct {
		name     string
		email    string
		password string
		repoUser *user.User
		repoErr  error
		wantErr  error
	}{
		{name: "success", email: "a@example.com", password: "correct-horse", repoUser: stored},
		{name: "wrong_password", email: "a@example.com", password: "nope", repoUser: stored, wantErr: user.ErrInvalidCredentials},
		{name: "unknown_email", email: "b@example.com", password: "x", repoErr: user.ErrNotFound, wantErr: user.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			svc := user.NewService(repo)
			if tt.repoErr != nil {
				repo.On("GetByEmail", mock.Anything, tt.email).Return(nil, tt.repoErr).Once()
			} else {
				repo.On("GetByEmail", mock.Anything, tt.email).Return(tt.repoUser, nil).Once()
			}

			got, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, got.ID)
		})
	}
}
