package realtime

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skladhub/sklad-backend/internal/model"
)

// fakeConn records delivered events and can be told to fail writes.
type fakeConn struct {
	mu       sync.Mutex
	events   []model.ChangeEvent
	failFrom int // fail writes once this many events were delivered; -1 never
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{failFrom: -1}
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFrom >= 0 && len(c.events) >= c.failFrom {
		return errors.New("use of closed network connection")
	}
	c.events = append(c.events, v.(model.ChangeEvent))
	return nil
}

func (c *fakeConn) WriteMessage(int, []byte) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) delivered() []model.ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ChangeEvent, len(c.events))
	copy(out, c.events)
	return out
}

func TestPublishWithZeroSubscribersIsNoop(t *testing.T) {
	hub := NewHub(time.Second)
	assert.NotPanics(t, func() {
		hub.Publish(model.NewChangeEvent(model.KindPart, 1, model.OpCreated))
	})
	assert.Equal(t, 0, hub.Len())
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub(time.Second)
	conns := []*fakeConn{newFakeConn(), newFakeConn(), newFakeConn()}
	for _, c := range conns {
		hub.Subscribe(c, "admin")
	}

	ev := model.NewChangeEvent(model.KindTask, 7, model.OpUpdated)
	hub.Publish(ev)

	for _, c := range conns {
		delivered := c.delivered()
		require.Len(t, delivered, 1)
		assert.Equal(t, ev, delivered[0])
	}
}

func TestFailedSubscriberIsRemoved(t *testing.T) {
	hub := NewHub(time.Second)
	healthy := newFakeConn()
	broken := newFakeConn()
	broken.failFrom = 0

	hub.Subscribe(healthy, "admin")
	hub.Subscribe(broken, "admin")

	hub.Publish(model.NewChangeEvent(model.KindOrder, 1, model.OpCreated))

	assert.Equal(t, 1, hub.Len())
	assert.True(t, broken.closed)
	require.Len(t, healthy.delivered(), 1)

	// Subsequent publishes never attempt the removed subscriber again.
	hub.Publish(model.NewChangeEvent(model.KindOrder, 1, model.OpUpdated))
	assert.Len(t, healthy.delivered(), 2)
	assert.Empty(t, broken.delivered())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(time.Second)
	sub := hub.Subscribe(newFakeConn(), "admin")

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Len())
}

// stallConn honors the write deadline: writes block until it passes and then
// time out, like a peer that stopped draining its socket without closing it.
type stallConn struct {
	mu       sync.Mutex
	deadline time.Time
	closed   bool
}

func (c *stallConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *stallConn) WriteJSON(interface{}) error {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()
	time.Sleep(time.Until(deadline))
	return os.ErrDeadlineExceeded
}

func (c *stallConn) WriteMessage(int, []byte) error {
	return c.WriteJSON(nil)
}

func (c *stallConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestStalledSubscriberDroppedAfterWriteTimeout(t *testing.T) {
	hub := NewHub(20 * time.Millisecond)
	stalled := &stallConn{}
	healthy := newFakeConn()
	hub.Subscribe(stalled, "stalled")
	hub.Subscribe(healthy, "healthy")

	ev := model.NewChangeEvent(model.KindPart, 3, model.OpUpdated)
	hub.Publish(ev)

	assert.Equal(t, 1, hub.Len())
	stalled.mu.Lock()
	assert.True(t, stalled.closed)
	stalled.mu.Unlock()

	delivered := healthy.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, ev, delivered[0])
}

// overlapConn counts writes that start while another write is in flight.
type overlapConn struct {
	busy     int32
	overlaps int32
}

func (c *overlapConn) write() error {
	if !atomic.CompareAndSwapInt32(&c.busy, 0, 1) {
		atomic.AddInt32(&c.overlaps, 1)
		return nil
	}
	time.Sleep(50 * time.Microsecond)
	atomic.StoreInt32(&c.busy, 0)
	return nil
}

func (c *overlapConn) SetWriteDeadline(time.Time) error { return nil }
func (c *overlapConn) WriteJSON(interface{}) error { return c.write() }
func (c *overlapConn) WriteMessage(int, []byte) error { return c.write() }
func (c *overlapConn) Close() error { return nil }

func TestKeepaliveNeverInterleavesWithDelivery(t *testing.T) {
	hub := NewHub(time.Second)
	c := &overlapConn{}
	sub := hub.Subscribe(c, "admin")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hub.Publish(model.NewChangeEvent(model.KindTask, int64(j), model.OpUpdated))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			assert.NoError(t, sub.Ping(time.Second))
		}
	}()
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&c.overlaps),
		"every write to a connection must hold the subscriber write lock")
}

func TestConcurrentPublishesDeliverInOrder(t *testing.T) {
	hub := NewHub(time.Second)
	conns := make([]*fakeConn, 5)
	for i := range conns {
		conns[i] = newFakeConn()
		hub.Subscribe(conns[i], "admin")
	}

	first := model.NewChangeEvent(model.KindTask, 1, model.OpUpdated)
	second := model.NewChangeEvent(model.KindTask, 2, model.OpUpdated)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Publish(first)
	}()
	go func() {
		defer wg.Done()
		hub.Publish(second)
	}()
	wg.Wait()

	// Each of the 5 subscribers sees exactly both events, and publish
	// serialization means every subscriber sees them in the same order.
	reference := conns[0].delivered()
	require.Len(t, reference, 2)
	for _, c := range conns[1:] {
		delivered := c.delivered()
		require.Len(t, delivered, 2)
		assert.Equal(t, reference, delivered)
	}
}
