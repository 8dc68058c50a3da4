package paymentmethod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/db"
)

var (
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrInvalidCard           = errors.New("invalid card details")
)

// Transactor runs fn with a repository bound to a single transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repo Repository) error) error
}

type pgTransactor struct {
	conn db.TxBeginner
}

func NewTransactor(conn db.TxBeginner) Transactor {
	return &pgTransactor{conn: conn}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(repo Repository) error) error {
	return db.WithTx(ctx, t.conn, func(tx pgx.Tx) error {
		return fn(NewRepository(tx))
	})
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error)
	Save(ctx context.Context, userID uuid.UUID, in SaveInput) (*PaymentMethod, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error)
}

type service struct {
	repo Repository
	tx   Transactor
	now  func() time.Time
}

func NewService(repo Repository, tx Transactor) Service {
	return &service{repo: repo, tx: tx, now: time.Now}
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error) {
	methods, err := s.repo.List(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list payment methods")
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	return methods, nil
}

func (s *service) validate(in SaveInput) (string, error) {
	number := strings.ReplaceAll(strings.ReplaceAll(in.CardNumber, " ", ""), "-", "")
	if len(number) < 12 || len(number) > 19 {
		return "", fmt.Errorf("%w: card number must have 12 to 19 digits", ErrInvalidCard)
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: card number must contain only digits", ErrInvalidCard)
		}
	}
	if in.ExpMonth < 1 || in.ExpMonth > 12 {
		return "", fmt.Errorf("%w: expiry month must be between 1 and 12", ErrInvalidCard)
	}
	now := s.now()
	if in.ExpYear < now.Year() || (in.ExpYear == now.Year() && in.ExpMonth < int(now.Month())) {
		return "", fmt.Errorf("%w: card has expired", ErrInvalidCard)
	}
	return number, nil
}

// Save vaults a card. The first card of a user always becomes the default; a new default
// replaces the previous one in the same transaction.
func (s *service) Save(ctx context.Context, userID uuid.UUID, in SaveInput) (*PaymentMethod, error) {
	number, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	pm := &PaymentMethod{
		UserID:   userID,
		Brand:    cardBrand(number),
		Last4:    number[len(number)-4:],
		ExpMonth: in.ExpMonth,
		ExpYear:  in.ExpYear,
	}

	err = s.tx.WithinTx(ctx, func(repo Repository) error {
		if err := repo.LockOwner(ctx, userID); err != nil {
			return err
		}
		count, err := repo.Count(ctx, userID)
		if err != nil {
			return err
		}
		pm.IsDefault = in.IsDefault || count == 0
		if pm.IsDefault {
			if err := repo.UnsetDefault(ctx, userID); err != nil {
				return err
			}
		}
		return repo.Insert(ctx, pm)
	})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to save payment method")
		return nil, fmt.Errorf("failed to save payment method: %w", err)
	}

	log.Info().Stringer("user_id", userID).Int64("payment_method_id", pm.ID).Bool("default", pm.IsDefault).Msg("service: payment method saved")
	return pm, nil
}

// Delete removes a card owned by userID. Removing the default promotes the newest remaining card.
func (s *service) Delete(ctx context.Context, userID uuid.UUID, id int64) (bool, error) {
	var deleted bool
	err := s.tx.WithinTx(ctx, func(repo Repository) error {
		var wasDefault bool
		var err error
		deleted, wasDefault, err = repo.Delete(ctx, userID, id)
		if err != nil || !deleted || !wasDefault {
			return err
		}
		return repo.PromoteLatest(ctx, userID)
	})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Int64("payment_method_id", id).Msg("service: failed to delete payment method")
		return false, fmt.Errorf("failed to delete payment method: %w", err)
	}
	if !deleted {
		log.Warn().Stringer("user_id", userID).Int64("payment_method_id", id).Msg("service: payment method not found")
	}
	return deleted, nil
}
