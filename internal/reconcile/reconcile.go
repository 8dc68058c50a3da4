// Package reconcile resolves orders left in Processing, for example because the process died
// during checkout. Orders whose payment already succeeded are fulfilled; orders with no gateway
// result are cancelled and their payment failed.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/checkout"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/store"
)

const (
	FailureReason    = "reconciled: no gateway result"
	defaultBatchSize = 100
)

type Sweeper struct {
	uow        store.UnitOfWork
	orders     order.Repository
	staleAfter time.Duration
	batchSize  int
	now        func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewSweeper(uow store.UnitOfWork, orders order.Repository, staleAfter time.Duration) *Sweeper {
	return &Sweeper{
		uow:        uow,
		orders:     orders,
		staleAfter: staleAfter,
		batchSize:  defaultBatchSize,
		now:        time.Now,
	}
}

type outcome int

const (
	untouched outcome = iota
	cancelled
	completed
)

// Sweep resolves every Processing order last touched more than staleAfter ago and returns how
// many it moved.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.staleAfter)
	stale, err := s.orders.ListStale(ctx, order.StatusProcessing, cutoff, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("reconcile: failed to list stale orders: %w", err)
	}

	resolved := 0
	for _, o := range stale {
		result, err := s.resolve(ctx, o)
		if err != nil {
			log.Error().Err(err).Int64("order_id", o.ID).Msg("reconcile: failed to resolve stale order")
			continue
		}
		switch result {
		case cancelled:
			resolved++
			log.Warn().Int64("order_id", o.ID).Stringer("user_id", o.UserID).Msg("reconcile: stale order cancelled")
		case completed:
			resolved++
			log.Warn().Int64("order_id", o.ID).Stringer("user_id", o.UserID).Msg("reconcile: paid order fulfilled")
		}
	}
	return resolved, nil
}

func (s *Sweeper) resolve(ctx context.Context, o order.Order) (outcome, error) {
	result := untouched
	err := s.uow.Do(ctx, func(st *store.Store) error {
		// MarkFailed трогает только Processing: результат, записанный checkout после выборки, выигрывает
		failed, err := st.Payments.MarkFailed(ctx, o.ID, FailureReason)
		if err != nil {
			return err
		}
		if failed {
			if err := cancel(ctx, st, o, fmt.Sprintf("Order #%d cancelled: no payment result received", o.ID)); err != nil {
				return err
			}
			result = cancelled
			return nil
		}

		p, err := st.Payments.GetByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}
		switch p.Status {
		case payment.StatusSucceeded:
			moved, err := checkout.Fulfil(ctx, st, &o)
			if err != nil {
				return err
			}
			if moved {
				result = completed
			}
		case payment.StatusFailed:
			if err := cancel(ctx, st, o, fmt.Sprintf("Order #%d cancelled: payment failed", o.ID)); err != nil {
				return err
			}
			result = cancelled
		}
		return nil
	})
	if err != nil {
		return untouched, err
	}
	return result, nil
}

func cancel(ctx context.Context, st *store.Store, o order.Order, description string) error {
	moved, err := st.Orders.UpdateStatusFrom(ctx, o.ID, order.StatusProcessing, order.StatusCancelled)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("order %d is no longer %s", o.ID, order.StatusProcessing)
	}
	userID := o.UserID
	return st.Activities.Append(ctx, &activity.Activity{
		Type:        activity.TypeOrderReconciled,
		Description: description,
		UserID:      &userID,
	})
}

// Start schedules Sweep on a cron spec such as "@every 5m".
func (s *Sweeper) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("reconcile: sweeper already started")
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := s.Sweep(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("reconcile: sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int("resolved", n).Msg("reconcile: sweep finished")
		}
	})
	if err != nil {
		return fmt.Errorf("reconcile: invalid schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	log.Info().Str("schedule", spec).Dur("stale_after", s.staleAfter).Msg("reconcile: sweeper started")
	return nil
}

// Stop halts scheduling and waits for a running sweep, or until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("reconcile: stop timed out while a sweep was running")
	}
}
