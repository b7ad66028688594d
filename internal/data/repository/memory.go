package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"moveup-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryStore backs every in-memory repository with one mutex so that
// settlement touches transactions and wallets atomically. Values are copied
// in and out; callers never share pointers with the store.
type memoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]entity.User
	sessions     map[uuid.UUID]entity.Session
	bookings     map[uuid.UUID]entity.Booking
	wallets      map[uuid.UUID]entity.Wallet
	transactions map[uuid.UUID]entity.Transaction
}

// NewMemoryRepository returns a Repository kept in process memory, used for
// STORAGE=memory and in tests.
func NewMemoryRepository() *Repository {
	s := &memoryStore{
		users:        make(map[uuid.UUID]entity.User),
		sessions:     make(map[uuid.UUID]entity.Session),
		bookings:     make(map[uuid.UUID]entity.Booking),
		wallets:      make(map[uuid.UUID]entity.Wallet),
		transactions: make(map[uuid.UUID]entity.Transaction),
	}
	return &Repository{
		User:        &memoryUsers{s},
		Session:     &memorySessions{s},
		Booking:     &memoryBookings{s},
		Wallet:      &memoryWallets{s},
		Transaction: &memoryTransactions{s},
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

type memoryUsers struct{ s *memoryStore }

func (r *memoryUsers) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("create user %s: duplicate email or username", user.Email)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.ID == id }), nil
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Email == email }), nil
}

func (r *memoryUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Username == username }), nil
}

func (r *memoryUsers) find(match func(entity.User) bool) *entity.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if !u.IsDeleted() && match(u) {
			found := u
			return &found
		}
	}
	return nil
}

type memorySessions struct{ s *memoryStore }

func (r *memorySessions) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[session.Token] = *session
	return nil
}

func (r *memorySessions) FindValidSession(_ context.Context, token uuid.UUID, now time.Time) (*entity.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[token]
	if !ok || !session.IsActive(now) {
		return nil, nil
	}
	return &session, nil
}

func (r *memorySessions) Revoke(_ context.Context, token uuid.UUID, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[token]
	if !ok {
		return fmt.Errorf("session not found: %w", entity.ErrNotFound)
	}
	if err := session.Revoke(now); err != nil {
		return fmt.Errorf("session already revoked: %w", err)
	}
	r.s.sessions[token] = session
	return nil
}

type memoryBookings struct{ s *memoryStore }

func (r *memoryBookings) Create(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; ok {
		return fmt.Errorf("create booking %s: duplicate id", booking.ID)
	}
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *memoryBookings) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memoryBookings) Update(_ context.Context, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; !ok {
		return fmt.Errorf("booking %s: %w", booking.ID, entity.ErrNotFound)
	}
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *memoryBookings) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b entity.Booking) bool { return b.UserID == userID }), limit, offset), nil
}

func (r *memoryBookings) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b entity.Booking) bool { return b.UserID == userID }))), nil
}

func (r *memoryBookings) FindByInstructorID(_ context.Context, instructorID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	return page(r.filter(func(b entity.Booking) bool { return b.InstructorID == instructorID }), limit, offset), nil
}

func (r *memoryBookings) CountByInstructorID(_ context.Context, instructorID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(b entity.Booking) bool { return b.InstructorID == instructorID }))), nil
}

func (r *memoryBookings) FindDueNoShows(_ context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error) {
	due := r.filter(func(b entity.Booking) bool {
		return b.Status == entity.BookingStatusConfirmed && !b.IsValidated() && b.ScheduledAt.Before(cutoff)
	})
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	return page(due, limit, 0), nil
}

func (r *memoryBookings) SumAuthorizedByInstructor(_ context.Context, instructorID uuid.UUID) (decimal.Decimal, int, error) {
	held := r.filter(func(b entity.Booking) bool {
		return b.InstructorID == instructorID &&
			b.Status == entity.BookingStatusConfirmed &&
			b.PaymentStatus == entity.PaymentStatusAuthorized
	})

	sum := decimal.Zero
	for _, b := range held {
		sum = sum.Add(b.TotalAmount)
	}
	return sum, len(held), nil
}

// filter returns matching bookings newest schedule first.
func (r *memoryBookings) filter(match func(entity.Booking) bool) []*entity.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entity.Booking
	for _, b := range r.s.bookings {
		if match(b) {
			found := b
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return out
}

type memoryWallets struct{ s *memoryStore }

func (r *memoryWallets) Create(_ context.Context, wallet *entity.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, w := range r.s.wallets {
		if w.InstructorID == wallet.InstructorID {
			return fmt.Errorf("create wallet for instructor %s: already exists", wallet.InstructorID)
		}
	}
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

func (r *memoryWallets) FindByID(_ context.Context, id uuid.UUID) (*entity.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *memoryWallets) FindByInstructorID(_ context.Context, instructorID uuid.UUID) (*entity.Wallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, w := range r.s.wallets {
		if w.InstructorID == instructorID {
			found := w
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memoryWallets) Update(_ context.Context, wallet *entity.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.wallets[wallet.ID]; !ok {
		return fmt.Errorf("wallet %s: %w", wallet.ID, entity.ErrNotFound)
	}
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

func (r *memoryWallets) ApplySettlement(_ context.Context, txn *entity.Transaction, wallet *entity.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.transactions[txn.ID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, entity.ErrNotFound)
	}
	if !stored.Status.IsOpen() {
		return fmt.Errorf("transaction %s is no longer open: %w", txn.ID, entity.ErrInvalidTransition)
	}
	if _, ok := r.s.wallets[wallet.ID]; !ok {
		return fmt.Errorf("wallet %s: %w", wallet.ID, entity.ErrNotFound)
	}

	r.s.transactions[txn.ID] = *txn
	r.s.wallets[wallet.ID] = *wallet
	return nil
}

type memoryTransactions struct{ s *memoryStore }

func (r *memoryTransactions) Create(_ context.Context, txn *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.transactions[txn.ID]; ok {
		return fmt.Errorf("create transaction %s: duplicate id", txn.ID)
	}
	r.s.transactions[txn.ID] = *txn
	return nil
}

func (r *memoryTransactions) FindByID(_ context.Context, id uuid.UUID) (*entity.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *memoryTransactions) Update(_ context.Context, txn *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.transactions[txn.ID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, entity.ErrNotFound)
	}
	if !stored.Status.IsOpen() {
		return fmt.Errorf("transaction %s is not open: %w", txn.ID, entity.ErrInvalidTransition)
	}
	r.s.transactions[txn.ID] = *txn
	return nil
}

func (r *memoryTransactions) FindByWalletID(_ context.Context, walletID uuid.UUID, limit, offset int) ([]*entity.Transaction, error) {
	txns := r.filter(func(t entity.Transaction) bool { return t.WalletID == walletID })
	// newest first, like the SQL listing
	for i, j := 0, len(txns)-1; i < j; i, j = i+1, j-1 {
		txns[i], txns[j] = txns[j], txns[i]
	}
	return page(txns, limit, offset), nil
}

func (r *memoryTransactions) CountByWalletID(_ context.Context, walletID uuid.UUID) (int64, error) {
	return int64(len(r.filter(func(t entity.Transaction) bool { return t.WalletID == walletID }))), nil
}

func (r *memoryTransactions) FindCompletedByWalletID(_ context.Context, walletID uuid.UUID) ([]*entity.Transaction, error) {
	return r.filter(func(t entity.Transaction) bool {
		return t.WalletID == walletID && t.Status == entity.TransactionStatusCompleted
	}), nil
}

func (r *memoryTransactions) FindByBooking(_ context.Context, bookingID uuid.UUID, txnType entity.TransactionType) (*entity.Transaction, error) {
	found := r.filter(func(t entity.Transaction) bool {
		return t.Type == txnType &&
			t.BookingID != nil && *t.BookingID == bookingID &&
			t.Status != entity.TransactionStatusFailed &&
			t.Status != entity.TransactionStatusCancelled
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// filter returns matching transactions oldest first.
func (r *memoryTransactions) filter(match func(entity.Transaction) bool) []*entity.Transaction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entity.Transaction
	for _, t := range r.s.transactions {
		if match(t) {
			found := t
			out = append(out, &found)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
