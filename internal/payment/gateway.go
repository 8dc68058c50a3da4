package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/educore/internal/config"
)

// ErrPaymentDeclined marks a charge the gateway refused. It is an expected outcome, not a fault.
var ErrPaymentDeclined = errors.New("payment declined")

const MethodCard = "card"

type ChargeRequest struct {
	OrderID        int64
	Amount         decimal.Decimal
	Currency       string
	Method         string
	CardToken      string
	CardNumber     string
	Email          string
	IdempotencyKey string
}

type ChargeResult struct {
	Succeeded     bool
	TransactionID string
	// Reason explains a decline.
	Reason string
}

// Gateway charges a payment. A decline is reported through ChargeResult, not as an error; errors
// mean the outcome is unknown.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// NewGateway picks the gateway named by cfg.Provider.
func NewGateway(cfg config.PaymentConfig) (Gateway, error) {
	switch cfg.Provider {
	case "", "simulated":
		return &SimulatedGateway{Delay: cfg.SimulatedDelay, DeclineSuffix: cfg.DeclineCardSuffix}, nil
	case "midtrans":
		if !strings.EqualFold(cfg.Currency, MidtransCurrency) {
			return nil, fmt.Errorf("midtrans requires currency %s, got %q", MidtransCurrency, cfg.Currency)
		}
		return NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProduction), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// SimulatedGateway stands in for a real processor. It succeeds after Delay unless the card
// number (or token) ends with DeclineSuffix or DeclineAll is set.
type SimulatedGateway struct {
	Delay         time.Duration
	DeclineSuffix string
	DeclineAll    bool
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	card := req.CardNumber
	if card == "" {
		card = req.CardToken
	}
	if g.DeclineAll || (g.DeclineSuffix != "" && strings.HasSuffix(card, g.DeclineSuffix)) {
		log.Warn().Int64("order_id", req.OrderID).Msg("gateway: simulated charge declined")
		return ChargeResult{Reason: "card declined"}, nil
	}

	txID, err := uuid.NewV4()
	if err != nil {
		return ChargeResult{}, fmt.Errorf("gateway: failed to generate transaction id: %w", err)
	}
	return ChargeResult{Succeeded: true, TransactionID: txID.String()}, nil
}

// MidtransCurrency is the only currency Midtrans settles; amounts are whole rupiah.
const MidtransCurrency = "IDR"

type midtransCharger interface {
	ChargeTransaction(req *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error)
}

// MidtransGateway charges tokenized cards through the Midtrans Core API.
type MidtransGateway struct {
	newClient func(ctx context.Context, idempotencyKey string) midtransCharger
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	return &MidtransGateway{
		// Клиент на каждый вызов: ключ идемпотентности хранится в Options клиента
		newClient: func(ctx context.Context, idempotencyKey string) midtransCharger {
			client := &coreapi.Client{}
			client.New(serverKey, env)
			client.Options.SetContext(ctx)
			if idempotencyKey != "" {
				client.Options.SetPaymentIdempotencyKey(idempotencyKey)
			}
			return client
		},
	}
}

func (g *MidtransGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !strings.EqualFold(req.Currency, MidtransCurrency) {
		return ChargeResult{}, fmt.Errorf("gateway: midtrans charges %s only, got %q", MidtransCurrency, req.Currency)
	}
	if !req.Amount.IsInteger() || !req.Amount.IsPositive() {
		return ChargeResult{}, fmt.Errorf("gateway: midtrans amount must be a positive whole number, got %s", req.Amount)
	}
	if req.CardToken == "" {
		return ChargeResult{Reason: "card token is required"}, nil
	}

	chargeReq := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  "order-" + strconv.FormatInt(req.OrderID, 10),
			GrossAmt: req.Amount.IntPart(),
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID: req.CardToken,
		},
	}
	if req.Email != "" {
		chargeReq.CustomerDetails = &midtrans.CustomerDetails{Email: req.Email}
	}

	resp, merr := g.newClient(ctx, req.IdempotencyKey).ChargeTransaction(chargeReq)
	if merr != nil {
		log.Error().Str("message", merr.Message).Int("status_code", merr.StatusCode).
			Int64("order_id", req.OrderID).Msg("gateway: midtrans charge failed")
		return ChargeResult{}, fmt.Errorf("gateway: midtrans charge: %s", merr.Message)
	}
	return midtransResult(resp), nil
}

func midtransResult(resp *coreapi.ChargeResponse) ChargeResult {
	switch resp.TransactionStatus {
	case "capture", "settlement":
		switch resp.FraudStatus {
		case "deny":
			return ChargeResult{Reason: "declined by fraud screening"}
		case "challenge":
			// Деньги не списаны, пока мерчант не подтвердит вручную
			return ChargeResult{Reason: "held for fraud review"}
		}
		return ChargeResult{Succeeded: true, TransactionID: resp.TransactionID}
	default:
		reason := resp.StatusMessage
		if reason == "" {
			reason = "transaction " + resp.TransactionStatus
		}
		return ChargeResult{Reason: reason}
	}
}
