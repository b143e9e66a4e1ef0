package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	writes   int
	writing  bool
	overlap  bool
	writeErr error
	block    chan struct{} // when non-nil, WriteMessage stalls until closed
	closed   bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	if f.writing {
		f.overlap = true
	}
	f.writing = true
	block := f.block
	err := f.writeErr
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.writing = false
	f.writes++
	f.mu.Unlock()
	return err
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestPushSerializesWritesPerConnection(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	conn := &fakeConn{}
	hub.Register(userID, conn)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Push(userID, "message", map[string]string{"body": "hi"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, conn.writes)
	assert.False(t, conn.overlap, "concurrent writes reached the same connection")
}

func TestPushDoesNotHoldRegistryLockDuringWrite(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	stall := make(chan struct{})
	conn := &fakeConn{block: stall}
	hub.Register(userID, conn)

	pushDone := make(chan struct{})
	go func() {
		hub.Push(userID, "message", map[string]string{"body": "slow client"})
		close(pushDone)
	}()

	// Give Push time to reach the stalled write.
	time.Sleep(20 * time.Millisecond)

	// Registry operations must not wait on the stalled network write.
	otherID := uuid.New()
	registered := make(chan struct{})
	go func() {
		hub.Register(otherID, &fakeConn{})
		hub.Online(otherID)
		hub.Unregister(otherID, nil)
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("registry wedged behind a stalled websocket write")
	}

	close(stall)
	select {
	case <-pushDone:
	case <-time.After(2 * time.Second):
		t.Fatal("push never finished after the write unblocked")
	}
}

func TestPushDropsFailingConnection(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	hub.Register(userID, conn)
	require.True(t, hub.Online(userID))

	hub.Push(userID, "message", map[string]string{"body": "hi"})

	assert.False(t, hub.Online(userID))
	assert.True(t, conn.closed)
}
