package settlement

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/freshfold/freshfold-backend/pkg/stripe"
)

// PaymentClient exposes the single Stripe operation the settlement engine
// needs, so services can be tested without the network.
type PaymentClient interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, customerID, paymentMethodID string) (string, error)
}

type stripeClientWrapper struct{}

// NewPaymentClient wraps the shared Stripe client for payment capture.
func NewPaymentClient(api *pkgstripe.Client) PaymentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreatePaymentIntent(ctx context.Context, amountCents int64, customerID, paymentMethodID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Customer:      stripe.String(customerID),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return intent.ID, nil
}
