package payment

import (
	"context"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

type MidtransChargeFunc func(ctx context.Context, idempotencyKey string, req *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error)

type chargeFunc struct {
	ctx context.Context
	key string
	fn  MidtransChargeFunc
}

func (c chargeFunc) ChargeTransaction(req *coreapi.ChargeReq) (*coreapi.ChargeResponse, *midtrans.Error) {
	return c.fn(c.ctx, c.key, req)
}

// NewMidtransGatewayWith swaps the Core API client for fn.
func NewMidtransGatewayWith(fn MidtransChargeFunc) *MidtransGateway {
	return &MidtransGateway{
		newClient: func(ctx context.Context, idempotencyKey string) midtransCharger {
			return chargeFunc{ctx: ctx, key: idempotencyKey, fn: fn}
		},
	}
}
