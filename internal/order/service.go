package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCompleted:  true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {
		StatusRefunded: true,
	},
	StatusCancelled: {},
	StatusRefunded:  {},
}

// manualTransitions is the part of the state machine an admin may drive by hand. Processing
// orders belong to checkout and the reconcile sweep; Completed is reached only through fulfilment.
var manualTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPending: {
		StatusCancelled: true,
	},
	StatusCompleted: {
		StatusRefunded: true,
	},
}

var (
	ErrForbidden               = errors.New("order belongs to another user")
	ErrOrderInProgress         = errors.New("order payment is still in progress")
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// CanTransition reports whether the state machine allows moving from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return allowedTransitions[from][to]
}

type Service interface {
	GetOrder(ctx context.Context, requester Requester, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, newStatus OrderStatus) error
}

type service struct {
	orderRepo Repository
}

func NewService(orderRepo Repository) Service {
	return &service{orderRepo: orderRepo}
}

func (s *service) GetOrder(ctx context.Context, requester Requester, id int64) (*Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", id).Msg("service: order not found by id")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to fetch order by id")
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	if !requester.IsAdmin && order.UserID != requester.UserID {
		log.Warn().Int64("order_id", id).Stringer("user_id", requester.UserID).Msg("service: order access denied")
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, id int64, newStatus OrderStatus) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	current, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Int64("order_id", id).Stringer("new_status", newStatus).Msg("service: order not found, cannot update status")
			return ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to get order for status update")
		return fmt.Errorf("service: failed to get order for status update: %w", err)
	}

	if current.Status == newStatus {
		log.Info().Int64("order_id", id).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
		return nil
	}

	if current.Status == StatusProcessing {
		log.Warn().Int64("order_id", id).Stringer("new_status", newStatus).Msg("service: order is being paid, manual status change rejected")
		return fmt.Errorf("%w: order %d", ErrOrderInProgress, id)
	}

	if !CanTransition(current.Status, newStatus) || !manualTransitions[current.Status][newStatus] {
		log.Warn().
			Int64("order_id", id).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, current.Status, newStatus)
	}

	updated, err := s.orderRepo.UpdateStatusFrom(ctx, id, current.Status, newStatus)
	if err != nil {
		log.Error().Err(err).Int64("order_id", id).Stringer("new_status", newStatus).Msg("service: failed to update order status")
		return fmt.Errorf("service: failed to update order status: %w", err)
	}
	if !updated {
		// Статус изменился между чтением и записью
		log.Warn().Int64("order_id", id).Stringer("expected_status", current.Status).Msg("service: order status changed concurrently")
		return fmt.Errorf("%w: order %d is no longer %s", ErrInvalidStatusTransition, id, current.Status)
	}

	log.Info().Int64("order_id", id).Stringer("old_status", current.Status).Stringer("new_status", newStatus).Msg("service: order status updated successfully")
	return nil
}
