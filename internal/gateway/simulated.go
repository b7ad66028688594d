package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Simulated accepts a configurable share of authorizations and always
// captures, releases and refunds. It stands in for a processor in development.
type Simulated struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	successRate float64
	refunds     map[string]string
	log         *zap.Logger
}

func NewSimulated(successRate float64, seed int64, log *zap.Logger) *Simulated {
	return &Simulated{
		rnd:         rand.New(rand.NewSource(seed)),
		successRate: successRate,
		refunds:     make(map[string]string),
		log:         log.With(zap.String("gateway", "simulated")),
	}
}

func (g *Simulated) Authorize(_ context.Context, req AuthorizeRequest) (string, error) {
	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()

	if roll >= g.successRate {
		g.log.Info("Simulated authorization declined",
			zap.String("booking_id", req.BookingID.String()),
			zap.String("amount", req.Amount.String()),
		)
		return "", fmt.Errorf("booking %s: %w", req.BookingID, ErrDeclined)
	}

	ref := "sim_chrg_" + uuid.NewString()
	g.log.Info("Simulated authorization",
		zap.String("booking_id", req.BookingID.String()),
		zap.String("reference", ref),
	)
	return ref, nil
}

func (g *Simulated) Capture(_ context.Context, reference string) error {
	g.log.Info("Simulated capture", zap.String("reference", reference))
	return nil
}

func (g *Simulated) Release(_ context.Context, reference string) error {
	g.log.Info("Simulated release", zap.String("reference", reference))
	return nil
}

func (g *Simulated) Refund(_ context.Context, reference string, amount decimal.Decimal, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ref, ok := g.refunds[key]; ok {
		return ref, nil
	}
	ref := "sim_rfnd_" + uuid.NewString()
	g.refunds[key] = ref
	g.log.Info("Simulated refund",
		zap.String("reference", reference),
		zap.String("amount", amount.String()),
		zap.String("refund_reference", ref),
	)
	return ref, nil
}
