package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const refundKeyField = "refund_key"

// Omise authorizes with an uncaptured charge, captures it at lesson time,
// reverses it on early cancellation and refunds through the charge's refunds.
type Omise struct {
	client *omise.Client
	log    *zap.Logger
}

func NewOmise(publicKey, secretKey string, log *zap.Logger) (*Omise, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}
	return &Omise{
		client: client,
		log:    log.With(zap.String("gateway", "omise")),
	}, nil
}

func (g *Omise) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	charge := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      MinorUnits(req.Amount),
		Currency:    strings.ToLower(req.Currency),
		Card:        req.Source,
		DontCapture: true,
		Metadata:    map[string]interface{}{"booking_id": req.BookingID.String()},
	}

	if err := g.client.Do(charge, op); err != nil {
		g.log.Error("Create charge failed",
			zap.String("booking_id", req.BookingID.String()),
			zap.Error(err),
		)
		return "", fmt.Errorf("create charge for booking %s: %w", req.BookingID, err)
	}

	if charge.Status == omise.ChargeFailed {
		var code string
		if charge.FailureCode != nil {
			code = *charge.FailureCode
		}
		g.log.Info("Charge declined",
			zap.String("booking_id", req.BookingID.String()),
			zap.String("charge_id", charge.ID),
			zap.String("failure_code", code),
		)
		return "", fmt.Errorf("charge %s (%s): %w", charge.ID, code, ErrDeclined)
	}

	return charge.ID, nil
}

func (g *Omise) Capture(ctx context.Context, reference string) error {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.CaptureCharge{ChargeID: reference}); err != nil {
		g.log.Error("Capture charge failed", zap.String("charge_id", reference), zap.Error(err))
		return fmt.Errorf("capture charge %s: %w", reference, err)
	}
	return nil
}

func (g *Omise) Release(ctx context.Context, reference string) error {
	charge := &omise.Charge{}
	if err := g.client.Do(charge, &operations.ReverseCharge{ChargeID: reference}); err != nil {
		g.log.Error("Reverse charge failed", zap.String("charge_id", reference), zap.Error(err))
		return fmt.Errorf("reverse charge %s: %w", reference, err)
	}
	return nil
}

// Refund tags each refund with key in its metadata and looks for a tagged
// refund on the charge before creating a new one.
func (g *Omise) Refund(ctx context.Context, reference string, amount decimal.Decimal, key string) (string, error) {
	refunds := &omise.RefundList{}
	if err := g.client.Do(refunds, &operations.ListRefunds{ChargeID: reference}); err != nil {
		g.log.Error("List refunds failed", zap.String("charge_id", reference), zap.Error(err))
		return "", fmt.Errorf("list refunds of charge %s: %w", reference, err)
	}
	for _, r := range refunds.Data {
		if r != nil && r.Metadata[refundKeyField] == key {
			g.log.Warn("Refund already issued",
				zap.String("charge_id", reference),
				zap.String("refund_id", r.ID),
			)
			return r.ID, nil
		}
	}

	refund := &omise.Refund{}
	op := &operations.CreateRefund{
		ChargeID: reference,
		Amount:   MinorUnits(amount),
		Metadata: map[string]interface{}{refundKeyField: key},
	}
	if err := g.client.Do(refund, op); err != nil {
		g.log.Error("Refund failed", zap.String("charge_id", reference), zap.Error(err))
		return "", fmt.Errorf("refund charge %s: %w", reference, err)
	}
	return refund.ID, nil
}
