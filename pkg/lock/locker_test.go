package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "wallet:1")
			if !assert.NoError(t, err) {
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, m.size())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "booking:a")
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := m.Lock(ctx, "booking:b")
		assert.NoError(t, err)
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	m := NewKeyedMutex()

	unlock, err := m.Lock(context.Background(), "booking:a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = m.Lock(ctx, "booking:a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, m.size())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "booking:42", BookingKey("42"))
	assert.Equal(t, "wallet:42", WalletKey("42"))
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	locker := NewRedisLocker(client, time.Second, zap.NewNop())
	_, err := locker.Lock(context.Background(), "booking:a")
	assert.Error(t, err)
}

func TestLockers_SatisfyInterface(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	lockers := map[string]Locker{
		"keyed": NewKeyedMutex(),
		"redis": NewRedisLocker(client, time.Second, zap.NewNop()),
	}
	for name, l := range lockers {
		assert.NotNil(t, l, name)
	}

	var l Locker = NewKeyedMutex()
	unlock, err := l.Lock(context.Background(), WalletKey("7"))
	require.NoError(t, err)
	unlock()
}
