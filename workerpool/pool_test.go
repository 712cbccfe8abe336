package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDeliversResult(t *testing.T) {
	p := New(2, nil)

	var mu sync.Mutex
	var started, result, doneCalled bool
	var gotValue any

	id := p.Submit(context.Background(), func(ctx context.Context, h *Handle) (any, error) {
		return 42, nil
	}, Callbacks{
		OnStarted: func() { mu.Lock(); started = true; mu.Unlock() },
		OnResult:  func(v any) { mu.Lock(); result = true; gotValue = v; mu.Unlock() },
		OnDone:    func() { mu.Lock(); doneCalled = true; mu.Unlock() },
	})
	require.NotEmpty(t, id)

	require.NoError(t, p.WaitAll(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, started)
	assert.True(t, result)
	assert.True(t, doneCalled)
	assert.Equal(t, 42, gotValue)
}

// TestCancelSuppressesResult asserts spec §8 invariant 4: cancel(T) before
// completion means neither result nor error fires, but finished always
// does.
func TestCancelSuppressesResult(t *testing.T) {
	p := New(1, nil)

	release := make(chan struct{})
	var mu sync.Mutex
	var resultFired, errorFired, doneFired bool

	id := p.Submit(context.Background(), func(ctx context.Context, h *Handle) (any, error) {
		<-release
		return "should not be delivered", nil
	}, Callbacks{
		OnResult: func(v any) { mu.Lock(); resultFired = true; mu.Unlock() },
		OnError:  func(kind, msg, trace string) { mu.Lock(); errorFired = true; mu.Unlock() },
		OnDone:   func() { mu.Lock(); doneFired = true; mu.Unlock() },
	})

	p.Cancel(id)
	close(release)

	require.NoError(t, p.WaitAll(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, resultFired)
	assert.False(t, errorFired)
	assert.True(t, doneFired)
}

func TestCancelAllMarksCancelFlag(t *testing.T) {
	p := New(2, nil)

	cancelledSeen := make(chan bool, 1)
	release := make(chan struct{})

	p.Submit(context.Background(), func(ctx context.Context, h *Handle) (any, error) {
		<-release
		cancelledSeen <- h.IsCancelled()
		return nil, nil
	}, Callbacks{})

	p.CancelAll()
	close(release)

	select {
	case v := <-cancelledSeen:
		assert.True(t, v)
	case <-time.After(2 * time.Second):
		t.Fatal("task never observed cancellation")
	}
}

func TestErrorCallback(t *testing.T) {
	p := New(1, nil)

	errCh := make(chan string, 1)
	p.Submit(context.Background(), func(ctx context.Context, h *Handle) (any, error) {
		return nil, assertError("boom")
	}, Callbacks{
		OnError: func(kind, msg, trace string) { errCh <- msg },
	})

	select {
	case msg := <-errCh:
		assert.Equal(t, "boom", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never fired")
	}
}

type assertError string

func (e assertError) Error() string { return string(e) }
