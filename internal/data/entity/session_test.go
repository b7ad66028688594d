package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession(uuid.New(), time.Hour, t0)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.NotEqual(t, uuid.Nil, s.Token)
	assert.True(t, s.IsActive(t0))
	assert.False(t, s.IsActive(t0.Add(time.Hour)))

	require.NoError(t, s.Revoke(t0.Add(time.Minute)))
	assert.False(t, s.IsActive(t0.Add(2*time.Minute)))
	assert.ErrorIs(t, s.Revoke(t0.Add(time.Minute)), ErrNotFound)
}

func TestRecord_TouchAndSoftDelete(t *testing.T) {
	w := NewWallet(uuid.New(), "EUR", t0)
	assert.Equal(t, t0, w.CreatedAt)
	assert.Equal(t, t0, w.UpdatedAt)

	txn := lessonPayment()
	require.NoError(t, txn.Complete(t0.Add(time.Hour)))
	w.Apply(txn, t0.Add(time.Hour))
	assert.Equal(t, t0, w.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), w.UpdatedAt)

	acct := NewAccount(t0)
	assert.False(t, acct.IsDeleted())
	deleted := t0.Add(time.Hour)
	acct.DeletedAt = &deleted
	assert.True(t, acct.IsDeleted())
}
