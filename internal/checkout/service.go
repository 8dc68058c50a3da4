package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/activity"
	"github.com/vasiliy-maslov/educore/internal/course"
	"github.com/vasiliy-maslov/educore/internal/events"
	"github.com/vasiliy-maslov/educore/internal/notification"
	"github.com/vasiliy-maslov/educore/internal/order"
	"github.com/vasiliy-maslov/educore/internal/payment"
	"github.com/vasiliy-maslov/educore/internal/store"
)

const defaultChargeTimeout = 30 * time.Second

type Options struct {
	Currency      string
	TaxRate       decimal.Decimal
	ChargeTimeout time.Duration
}

type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, req Request) (Result, error)
}

type service struct {
	uow       store.UnitOfWork
	reads     *store.Store
	gateway   payment.Gateway
	mailer    notification.Sender
	publisher events.Publisher
	idem      IdempotencyStore
	opts      Options
}

// NewService wires the checkout workflow. reads serves lookups outside any transaction; uow
// scopes the writes.
func NewService(
	uow store.UnitOfWork,
	reads *store.Store,
	gateway payment.Gateway,
	mailer notification.Sender,
	publisher events.Publisher,
	idem IdempotencyStore,
	opts Options,
) Service {
	if opts.ChargeTimeout <= 0 {
		opts.ChargeTimeout = defaultChargeTimeout
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	if idem == nil {
		idem = NopIdempotencyStore{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		uow:       uow,
		reads:     reads,
		gateway:   gateway,
		mailer:    notification.BestEffort{Sender: mailer},
		publisher: publisher,
		idem:      idem,
		opts:      opts,
	}
}

// IsValidationError reports whether err was caused by the request rather than the system.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrTotalMismatch) ||
		errors.Is(err, ErrUnsupportedCurrency) ||
		errors.Is(err, course.ErrCourseNotFound)
}

func idempotencyKey(userID uuid.UUID, key string) string {
	return fmt.Sprintf("checkout:%s:%s", userID, key)
}

// Checkout places and pays an order. Declined payments return a result with Success=false and an
// error wrapping payment.ErrPaymentDeclined. Validation failures persist nothing.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, req Request) (Result, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return s.checkout(ctx, userID, req, "")
	}

	redisKey := idempotencyKey(userID, key)
	claimed, stored, err := s.idem.Claim(ctx, redisKey)
	switch {
	case err != nil:
		// Уникальный индекс в orders остаётся последней защитой
		log.Warn().Err(err).Stringer("user_id", userID).Msg("checkout: idempotency store unavailable")
	case !claimed && stored != nil:
		log.Info().Stringer("user_id", userID).Int64("order_id", stored.OrderID).Msg("checkout: replaying stored result")
		return *stored, nil
	case !claimed:
		return Result{Message: ErrDuplicateRequest.Error()}, ErrDuplicateRequest
	}

	res, err := s.checkout(ctx, userID, req, key)

	bg := context.WithoutCancel(ctx)
	if err == nil || errors.Is(err, payment.ErrPaymentDeclined) {
		if cErr := s.idem.Complete(bg, redisKey, res); cErr != nil {
			log.Warn().Err(cErr).Stringer("user_id", userID).Msg("checkout: failed to store idempotent result")
		}
	} else if !errors.Is(err, ErrDuplicateRequest) {
		if rErr := s.idem.Release(bg, redisKey); rErr != nil {
			log.Warn().Err(rErr).Stringer("user_id", userID).Msg("checkout: failed to release idempotency key")
		}
	}
	return res, err
}

func (s *service) checkout(ctx context.Context, userID uuid.UUID, req Request, key string) (Result, error) {
	if req.Currency != "" && !strings.EqualFold(req.Currency, s.opts.Currency) {
		return failure(0, ErrUnsupportedCurrency.Error()), fmt.Errorf("%w: %s", ErrUnsupportedCurrency, req.Currency)
	}

	courses, err := s.resolveCourses(ctx, userID, req.CourseIDs)
	if err != nil {
		if IsValidationError(err) {
			log.Warn().Err(err).Stringer("user_id", userID).Msg("checkout: rejected")
			return failure(0, err.Error()), err
		}
		return s.unexpected(userID, 0, "failed to resolve courses", err)
	}

	subtotal, tax, total := s.price(courses)
	if !req.TotalAmount.IsZero() && !req.TotalAmount.Equal(total) {
		log.Warn().
			Stringer("user_id", userID).
			Str("client_total", req.TotalAmount.StringFixed(2)).
			Str("server_total", total.StringFixed(2)).
			Msg("checkout: total mismatch")
		return failure(0, ErrTotalMismatch.Error()), fmt.Errorf("%w: expected %s", ErrTotalMismatch, total.StringFixed(2))
	}

	buyer, err := s.reads.Users.GetByID(ctx, userID)
	if err != nil {
		return s.unexpected(userID, 0, "failed to load buyer", err)
	}
	billing := req.Billing
	if billing.Email == "" {
		billing.Email = buyer.Email
	}
	if billing.Name == "" {
		billing.Name = strings.TrimSpace(buyer.FirstName + " " + buyer.LastName)
	}

	method := req.Payment.Method
	if method == "" {
		method = payment.MethodCard
	}

	o := &order.Order{
		UserID:         userID,
		Status:         order.StatusProcessing,
		SubtotalAmount: subtotal,
		TaxAmount:      tax,
		TotalAmount:    total,
		Currency:       s.opts.Currency,
		Billing:        billing,
		Items:          make([]order.OrderItem, 0, len(courses)),
	}
	if key != "" {
		o.IdempotencyKey = &key
	}
	for _, c := range courses {
		o.Items = append(o.Items, order.OrderItem{CourseID: c.ID, Price: c.Price})
	}

	localTxID := uuid.Must(uuid.NewV4()).String()
	err = s.uow.Do(ctx, func(st *store.Store) error {
		if err := st.Orders.Create(ctx, o); err != nil {
			return err
		}
		return st.Payments.Create(ctx, &payment.Payment{
			OrderID:       o.ID,
			Amount:        total,
			Currency:      s.opts.Currency,
			Status:        payment.StatusProcessing,
			Method:        method,
			TransactionID: localTxID,
		})
	})
	if err != nil {
		if errors.Is(err, order.ErrDuplicateIdempotent) {
			return s.replayFromOrder(ctx, userID, key)
		}
		return s.unexpected(userID, 0, "failed to persist order", err)
	}
	log.Info().Int64("order_id", o.ID).Stringer("user_id", userID).Str("total", total.StringFixed(2)).Msg("checkout: order created")

	// Заказ уже в базе: дальнейшие шаги не должны обрываться из-за отключения клиента
	bg := context.WithoutCancel(ctx)

	charge, chargeErr := s.charge(bg, o, req.Payment, method, buyer.Email)
	if chargeErr != nil {
		log.Error().Err(chargeErr).Int64("order_id", o.ID).Msg("checkout: payment gateway error")
		charge = payment.ChargeResult{Reason: "payment could not be processed"}
	}

	if !charge.Succeeded {
		if err := s.markDeclined(bg, o, charge.Reason); err != nil {
			return s.unexpected(userID, o.ID, "failed to record declined payment", err)
		}
		res := failure(o.ID, "Payment failed: "+charge.Reason)
		if chargeErr != nil {
			return res, fmt.Errorf("checkout: order %d: %w: %w", o.ID, payment.ErrPaymentDeclined, chargeErr)
		}
		return res, fmt.Errorf("%w: %s", payment.ErrPaymentDeclined, charge.Reason)
	}

	if err := s.recordCharge(bg, o, charge.TransactionID); err != nil {
		return s.unexpected(userID, o.ID, "failed to record captured payment", err)
	}
	if err := s.fulfil(bg, o); err != nil {
		// Платёж уже записан: reconcile довершит заказ
		return s.unexpected(userID, o.ID, "failed to fulfil paid order", err)
	}
	log.Info().Int64("order_id", o.ID).Str("transaction_id", charge.TransactionID).Msg("checkout: order completed")

	titles := make([]string, 0, len(courses))
	for _, c := range courses {
		titles = append(titles, c.Title)
	}
	_ = s.mailer.SendPurchaseConfirmation(bg, billing.Email, buyer.FirstName, titles)
	s.publishCompleted(bg, o, charge.TransactionID)

	return Result{
		OrderID:       o.ID,
		Success:       true,
		Message:       "Order completed successfully",
		TransactionID: charge.TransactionID,
	}, nil
}

// resolveCourses turns requested ids (or the cart) into courses, keeping the first occurrence
// of each id.
func (s *service) resolveCourses(ctx context.Context, userID uuid.UUID, requested []int64) ([]course.Course, error) {
	ids := dedupe(requested)
	if len(ids) == 0 {
		cartIDs, err := s.reads.Cart.CourseIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		ids = dedupe(cartIDs)
	}
	if len(ids) == 0 {
		return nil, ErrEmptyCart
	}

	found, err := s.reads.Courses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]course.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	courses := make([]course.Course, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", course.ErrCourseNotFound, id)
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *service) price(courses []course.Course) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, c := range courses {
		subtotal = subtotal.Add(c.Price)
	}
	tax = subtotal.Mul(s.opts.TaxRate).Round(minorUnits(s.opts.Currency))
	return subtotal, tax, subtotal.Add(tax)
}

// minorUnits is the number of decimal places a currency is charged in.
func minorUnits(currency string) int32 {
	switch strings.ToUpper(currency) {
	case "IDR", "JPY", "KRW", "VND":
		return 0
	default:
		return 2
	}
}

func (s *service) charge(ctx context.Context, o *order.Order, info PaymentInfo, method, email string) (payment.ChargeResult, error) {
	if o.TotalAmount.IsZero() {
		return payment.ChargeResult{Succeeded: true, TransactionID: "free-" + uuid.Must(uuid.NewV4()).String()}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.ChargeTimeout)
	defer cancel()

	return s.gateway.Charge(ctx, payment.ChargeRequest{
		OrderID:        o.ID,
		Amount:         o.TotalAmount,
		Currency:       o.Currency,
		Method:         method,
		CardToken:      info.CardToken,
		CardNumber:     info.CardNumber,
		Email:          email,
		IdempotencyKey: fmt.Sprintf("order-%d", o.ID),
	})
}

// recordCharge stores the gateway result in its own statement, ahead of fulfilment.
func (s *service) recordCharge(ctx context.Context, o *order.Order, transactionID string) error {
	recorded, err := s.reads.Payments.MarkSucceeded(ctx, o.ID, transactionID)
	if err != nil {
		return err
	}
	if !recorded {
		log.Error().
			Int64("order_id", o.ID).
			Str("transaction_id", transactionID).
			Msg("checkout: charge captured for a payment that is no longer Processing, refund required")
		return fmt.Errorf("payment for order %d is no longer %s", o.ID, payment.StatusProcessing)
	}
	return nil
}

func (s *service) fulfil(ctx context.Context, o *order.Order) error {
	var moved bool
	err := s.uow.Do(ctx, func(st *store.Store) error {
		var err error
		moved, err = Fulfil(ctx, st, o)
		return err
	})
	if err != nil || moved {
		return err
	}

	current, err := s.reads.Orders.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	if current.Status != order.StatusCompleted {
		return fmt.Errorf("order %d is %s after a captured payment", o.ID, current.Status)
	}
	log.Info().Int64("order_id", o.ID).Msg("checkout: order was already fulfilled by reconcile")
	return nil
}

func (s *service) markDeclined(ctx context.Context, o *order.Order, reason string) error {
	return s.uow.Do(ctx, func(st *store.Store) error {
		if _, err := st.Payments.MarkFailed(ctx, o.ID, reason); err != nil {
			return err
		}
		if _, err := st.Orders.UpdateStatusFrom(ctx, o.ID, order.StatusProcessing, order.StatusCancelled); err != nil {
			return err
		}
		userID := o.UserID
		return st.Activities.Append(ctx, &activity.Activity{
			Type:        activity.TypePaymentFailed,
			Description: fmt.Sprintf("Payment for order #%d failed: %s", o.ID, reason),
			UserID:      &userID,
		})
	})
}

func (s *service) publishCompleted(ctx context.Context, o *order.Order, transactionID string) {
	evt := events.OrderCompleted{
		Type:          events.TypeOrderCompleted,
		OrderID:       o.ID,
		UserID:        o.UserID,
		CourseIDs:     o.CourseIDs(),
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		TransactionID: transactionID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, events.OrderKey(o.ID), evt); err != nil {
		log.Warn().Err(err).Int64("order_id", o.ID).Msg("checkout: failed to publish order event")
	}
}

// replayFromOrder answers a retry whose idempotency key already has an order in the database.
func (s *service) replayFromOrder(ctx context.Context, userID uuid.UUID, key string) (Result, error) {
	existing, err := s.reads.Orders.GetByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return s.unexpected(userID, 0, "failed to load order for idempotency key", err)
	}

	switch existing.Status {
	case order.StatusCompleted:
		p, err := s.reads.Payments.GetByOrderID(ctx, existing.ID)
		if err != nil {
			return s.unexpected(userID, existing.ID, "failed to load payment for replay", err)
		}
		return Result{OrderID: existing.ID, Success: true, Message: "Order completed successfully", TransactionID: p.TransactionID}, nil
	case order.StatusCancelled:
		p, err := s.reads.Payments.GetByOrderID(ctx, existing.ID)
		if err != nil {
			return s.unexpected(userID, existing.ID, "failed to load payment for replay", err)
		}
		return failure(existing.ID, "Payment failed: "+p.FailureReason), fmt.Errorf("%w: %s", payment.ErrPaymentDeclined, p.FailureReason)
	default:
		return failure(existing.ID, ErrDuplicateRequest.Error()), ErrDuplicateRequest
	}
}

func (s *service) unexpected(userID uuid.UUID, orderID int64, msg string, err error) (Result, error) {
	log.Error().Err(err).Stringer("user_id", userID).Int64("order_id", orderID).Msg("checkout: " + msg)
	return failure(orderID, "An unexpected error occurred during checkout"), fmt.Errorf("checkout: %s: %w", msg, err)
}

func failure(orderID int64, message string) Result {
	return Result{OrderID: orderID, Success: false, Message: message}
}

// FormatMoney renders an amount for activity text, e.g. "$49.99" or "150000.00 IDR".
func FormatMoney(amount decimal.Decimal, currency string) string {
	if strings.EqualFold(currency, "USD") {
		return "$" + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + strings.ToUpper(currency)
}
