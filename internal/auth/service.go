package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/user"
)

var ErrInvalidCredentials = user.ErrInvalidCredentials

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type Session struct {
	Token string
	User  *user.User
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type service struct {
	users      user.Service
	tokens     *TokenManager
	activities activity.Repository
}

func NewService(users user.Service, tokens *TokenManager, activities activity.Repository) Service {
	return &service{users: users, tokens: tokens, activities: activities}
}

// Register always creates students; admins are provisioned out of band.
func (s *service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	u := &user.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      user.RoleStudent,
	}
	created, err := s.users.CreateUser(ctx, u, in.Password)
	if err != nil {
		return nil, err
	}

	if s.activities != nil {
		userID := created.ID
		err := s.activities.Append(ctx, &activity.Activity{
			Type:        activity.TypeUserRegistered,
			Description: fmt.Sprintf("%s %s registered", created.FirstName, created.LastName),
			UserID:      &userID,
		})
		if err != nil {
			log.Warn().Err(err).Stringer("user_id", created.ID).Msg("auth: failed to record registration")
		}
	}

	return s.session(created)
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.Authenticate(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			log.Warn().Msg("auth: rejected login")
		}
		return nil, err
	}
	return s.session(u)
}

func (s *service) session(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("auth: failed to issue token")
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}
