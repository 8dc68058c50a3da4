package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vasiliy-maslov/educore/internal/user"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about the caller.
type Identity struct {
	UserID uuid.UUID
	Role   user.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, issuer: "educore", now: time.Now}
}

// Issue signs an HS256 token with sub set to the user id.
func (m *TokenManager) Issue(u *user.User) (string, error) {
	now := m.now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role := claims.Role
	if role == "" {
		role = user.RoleStudent
	}
	return Identity{UserID: id, Role: role}, nil
}
