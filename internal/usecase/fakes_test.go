package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/data/repository"
	"moveup-booking/internal/events"
	"moveup-booking/internal/gateway"
	"moveup-booking/internal/pricing"
	"moveup-booking/pkg/lock"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeGateway approves everything unless told otherwise and counts calls.
// Refunds are deduplicated by key the way a processor honors idempotency.
type fakeGateway struct {
	mu         sync.Mutex
	decline    bool
	captureErr error
	authorized int
	captured   int
	released   []string
	refunds    []decimal.Decimal
	refundKeys map[string]string
	refundErr  error
}

func (g *fakeGateway) Authorize(_ context.Context, req gateway.AuthorizeRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.decline {
		return "", fmt.Errorf("card refused: %w", gateway.ErrDeclined)
	}
	g.authorized++
	return fmt.Sprintf("chrg_%d", g.authorized), nil
}

func (g *fakeGateway) Capture(_ context.Context, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return g.captureErr
	}
	g.captured++
	return nil
}

func (g *fakeGateway) Release(_ context.Context, reference string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = append(g.released, reference)
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, reference string, amount decimal.Decimal, key string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	if g.refundKeys == nil {
		g.refundKeys = make(map[string]string)
	}
	if ref, ok := g.refundKeys[key]; ok {
		return ref, nil
	}
	ref := fmt.Sprintf("rfnd_%s_%d", reference, len(g.refunds)+1)
	g.refundKeys[key] = ref
	g.refunds = append(g.refunds, amount)
	return ref, nil
}

func (g *fakeGateway) setRefundErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

func (g *fakeGateway) setDecline(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decline = v
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.Event)
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

var errGatewayDown = errors.New("gateway unavailable")

var errStoreDown = errors.New("store unavailable")

// flakyBookings fails the next failUpdates booking writes.
type flakyBookings struct {
	repository.BookingRepository
	mu          sync.Mutex
	failUpdates int
}

func (r *flakyBookings) Update(ctx context.Context, booking *entity.Booking) error {
	r.mu.Lock()
	if r.failUpdates > 0 {
		r.failUpdates--
		r.mu.Unlock()
		return errStoreDown
	}
	r.mu.Unlock()
	return r.BookingRepository.Update(ctx, booking)
}

type testEnv struct {
	repo      *repository.Repository
	clock     *fakeClock
	gateway   *fakeGateway
	publisher *recordingPublisher
	ledger    *ledgerService
	bookings  *bookingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepository()
	clock := &fakeClock{t: time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)}
	gw := &fakeGateway{}
	pub := &recordingPublisher{}
	locker := lock.NewKeyedMutex()
	log := zap.NewNop()

	ledger := NewLedgerService(repo, locker, "EUR", log).(*ledgerService)
	ledger.now = clock.Now

	bookings := NewBookingService(repo, ledger, gw, pub, locker, pricing.DefaultSchedule(), "EUR", log).(*bookingService)
	bookings.now = clock.Now

	return &testEnv{
		repo:      repo,
		clock:     clock,
		gateway:   gw,
		publisher: pub,
		ledger:    ledger,
		bookings:  bookings,
	}
}

func zapNop() *zap.Logger { return zap.NewNop() }
