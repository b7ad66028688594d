package entity

import (
	"time"

	"github.com/google/uuid"
)

// Record is the identity of a row that changes in place: bookings and
// wallets.
type Record struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newRecord(now time.Time) Record {
	return Record{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (r *Record) touch(now time.Time) {
	r.UpdatedAt = now
}

// Account is a soft-deleted Record. Only users are deleted this way.
type Account struct {
	Record
	DeletedAt *time.Time `db:"deleted_at"`
}

func NewAccount(now time.Time) Account {
	return Account{Record: newRecord(now)}
}

func (a Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// Entry identifies an append-only row such as a ledger transaction or a
// login session.
type Entry struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

func NewEntry(now time.Time) Entry {
	return Entry{ID: uuid.New(), CreatedAt: now}
}
