package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/educore/internal/config"
	"github.com/vasiliy-maslov/educore/internal/payment"
)

func TestSimulatedGateway_Charge(t *testing.T) {
	tests := []struct {
		name        string
		gateway     payment.SimulatedGateway
		card        string
		wantSuccess bool
	}{
		{name: "approved", gateway: payment.SimulatedGateway{DeclineSuffix: "0002"}, card: "4242424242424242", wantSuccess: true},
		{name: "declined_by_suffix", gateway: payment.SimulatedGateway{DeclineSuffix: "0002"}, card: "4000000000000002"},
		{name: "decline_all", gateway: payment.SimulatedGateway{DeclineAll: true}, card: "4242424242424242"},
		{name: "no_suffix_configured", gateway: payment.SimulatedGateway{}, card: "4000000000000002", wantSuccess: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.gateway.Charge(context.Background(), payment.ChargeRequest{
				OrderID:    1,
				Amount:     decimal.NewFromInt(10),
				CardNumber: tt.card,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Succeeded)
			if tt.wantSuccess {
				_, err := uuid.FromString(res.TransactionID)
				assert.NoError(t, err)
				assert.Empty(t, res.Reason)
			} else {
				assert.NotEmpty(t, res.Reason)
			}
		})
	}
}

func TestSimulatedGateway_RespectsContext(t *testing.T) {
	g := &payment.SimulatedGateway{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := g.Charge(ctx, payment.ChargeRequest{OrderID: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewGateway(t *testing.T) {
	g, err := payment.NewGateway(config.PaymentConfig{Provider: "simulated", DeclineCardSuffix: "0002"})
	require.NoError(t, err)
	assert.IsType(t, &payment.SimulatedGateway{}, g)

	g, err = payment.NewGateway(config.PaymentConfig{Provider: "midtrans", Currency: "IDR", MidtransServerKey: "SB-key"})
	require.NoError(t, err)
	assert.IsType(t, &payment.MidtransGateway{}, g)

	_, err = payment.NewGateway(config.PaymentConfig{Provider: "midtrans", Currency: "USD", MidtransServerKey: "SB-key"})
	assert.Error(t, err)

	_, err = payment.NewGateway(config.PaymentConfig{Provider: "paypal"})
	assert.Error(t, err)
}

func TestMidtransGateway_MissingTokenIsDecline(t *testing.T) {
	called := false
	g := payment.NewMidtransGatewayWith(func(context.Context, string, *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error) {
		called = true
		return nil, nil
	})
	res, err := g.Charge(context.Background(), payment.ChargeRequest{OrderID: 1, Amount: decimal.NewFromInt(1000), Currency: "IDR"})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.NotEmpty(t, res.Reason)
	assert.False(t, called)
}

func TestMidtransGateway_Charge(t *testing.T) {
	tests := []struct {
		name    string
		resp    *coreapi.ChargeResponse
		merr    *midtrans.Error
		want    payment.ChargeResult
		wantErr bool
	}{
		{
			name: "capture_accepted",
			resp: &coreapi.ChargeResponse{TransactionID: "mt-1", TransactionStatus: "capture", FraudStatus: "accept"},
			want: payment.ChargeResult{Succeeded: true, TransactionID: "mt-1"},
		},
		{
			name: "settlement",
			resp: &coreapi.ChargeResponse{TransactionID: "mt-2", TransactionStatus: "settlement"},
			want: payment.ChargeResult{Succeeded: true, TransactionID: "mt-2"},
		},
		{
			name: "capture_fraud_deny",
			resp: &coreapi.ChargeResponse{TransactionID: "mt-3", TransactionStatus: "capture", FraudStatus: "deny"},
			want: payment.ChargeResult{Reason: "declined by fraud screening"},
		},
		{
			name: "capture_fraud_challenge",
			resp: &coreapi.ChargeResponse{TransactionID: "mt-4", TransactionStatus: "capture", FraudStatus: "challenge"},
			want: payment.ChargeResult{Reason: "held for fraud review"},
		},
		{
			name: "deny_with_message",
			resp: &coreapi.ChargeResponse{TransactionStatus: "deny", StatusMessage: "Card is blocked"},
			want: payment.ChargeResult{Reason: "Card is blocked"},
		},
		{
			name: "expire_without_message",
			resp: &coreapi.ChargeResponse{TransactionStatus: "expire"},
			want: payment.ChargeResult{Reason: "transaction expire"},
		},
		{
			name: "pending_is_not_success",
			resp: &coreapi.ChargeResponse{TransactionStatus: "pending"},
			want: payment.ChargeResult{Reason: "transaction pending"},
		},
		{
			name:    "api_error_is_unknown_outcome",
			merr:    &midtrans.Error{Message: "Midtrans API is returning API error", StatusCode: 500},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			var gotReq *coreapi.ChargeReq
			g := payment.NewMidtransGatewayWith(func(_ context.Context, key string, req *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error) {
				gotKey, gotReq = key, req
				return tt.resp, tt.merr
			})

			res, err := g.Charge(context.Background(), payment.ChargeRequest{
				OrderID:        42,
				Amount:         decimal.NewFromInt(150000),
				Currency:       "IDR",
				CardToken:      "tok-481111",
				Email:          "buyer@example.com",
				IdempotencyKey: "idem-42",
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)

			assert.Equal(t, "idem-42", gotKey)
			require.NotNil(t, gotReq)
			assert.Equal(t, "order-42", gotReq.TransactionDetails.OrderID)
			assert.Equal(t, int64(150000), gotReq.TransactionDetails.GrossAmt)
			assert.Equal(t, "tok-481111", gotReq.CreditCard.TokenID)
			assert.Equal(t, "buyer@example.com", gotReq.CustomerDetails.Email)
		})
	}
}

func TestMidtransGateway_RejectsUnchargeableAmounts(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
	}{
		{name: "fractional_rupiah", amount: "10000.50", currency: "IDR"},
		{name: "zero", amount: "0", currency: "IDR"},
		{name: "dollars", amount: "10", currency: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			g := payment.NewMidtransGatewayWith(func(context.Context, string, *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error) {
				called = true
				return &coreapi.ChargeResponse{TransactionStatus: "capture"}, nil
			})
			_, err := g.Charge(context.Background(), payment.ChargeRequest{
				OrderID:   1,
				Amount:    decimal.RequireFromString(tt.amount),
				Currency:  tt.currency,
				CardToken: "tok",
			})
			assert.Error(t, err)
			assert.False(t, called, "nothing may reach the gateway")
		})
	}
}
