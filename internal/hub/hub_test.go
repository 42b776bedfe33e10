package hub

import (
	"encoding/json"
	"fmt"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/murmur-chat/murmur/internal/stats"
	"github.com/murmur-chat/murmur/internal/testutil"
)

func newTestHub() *Hub {
	return New(testutil.TestLogger(), stats.Noop{})
}

func event(n int) Event {
	return Event{Kind: EventNewMessage, Payload: json.RawMessage(fmt.Sprintf(`{"n":%d}`, n))}
}

func TestPublishFansOutToAllReceivers(t *testing.T) {
	h := newTestHub()
	user := uuid.New()

	r1 := h.Subscribe(user)
	defer r1.Close()
	r2 := h.Subscribe(user)
	defer r2.Close()

	h.Publish(user, event(1))
	h.Publish(user, event(2))

	for _, r := range []*Receiver{r1, r2} {
		ev := <-r.Events()
		assert.JSONEq(t, `{"n":1}`, string(ev.Payload))
		ev = <-r.Events()
		assert.JSONEq(t, `{"n":2}`, string(ev.Payload))
		assert.False(t, r.Lagged())
	}
}

func TestPublishWithoutSubscribersIsSilent(t *testing.T) {
	h := newTestHub()

	// no receiver exists for this user; the event vanishes
	h.Publish(uuid.New(), event(1))

	// a later subscriber must not see it
	user := uuid.New()
	h.Publish(user, event(2))
	r := h.Subscribe(user)
	defer r.Close()

	select {
	case ev := <-r.Events():
		t.Fatalf("expected no event, got %s", ev.Payload)
	default:
	}
}

func TestPublishIsScopedToKey(t *testing.T) {
	h := newTestHub()
	user, other := uuid.New(), uuid.New()

	r := h.Subscribe(user)
	defer r.Close()

	h.Publish(other, event(1))

	select {
	case ev := <-r.Events():
		t.Fatalf("expected no event, got %s", ev.Payload)
	default:
	}
}

func TestOverflowDropsOldestAndFlagsReceiver(t *testing.T) {
	h := newTestHub()
	user := uuid.New()

	r := h.Subscribe(user)
	defer r.Close()

	for i := 1; i <= receiverBuffer+1; i++ {
		h.Publish(user, event(i))
	}

	assert.True(t, r.Lagged())

	// the oldest event was discarded to make room for the newest
	ev := <-r.Events()
	assert.JSONEq(t, `{"n":2}`, string(ev.Payload))

	var last Event
	for i := 0; i < receiverBuffer-1; i++ {
		last = <-r.Events()
	}
	assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, receiverBuffer+1), string(last.Payload))
}

func TestCloseIsolatesReceivers(t *testing.T) {
	h := newTestHub()
	user := uuid.New()

	r1 := h.Subscribe(user)
	r2 := h.Subscribe(user)
	defer r2.Close()

	r1.Close()
	r1.Close() // idempotent

	_, open := <-r1.Events()
	assert.False(t, open)

	h.Publish(user, event(1))

	ev := <-r2.Events()
	assert.JSONEq(t, `{"n":1}`, string(ev.Payload))
}

func TestCloseLastReceiverThenResubscribe(t *testing.T) {
	h := newTestHub()
	user := uuid.New()

	r1 := h.Subscribe(user)
	r1.Close()

	r2 := h.Subscribe(user)
	defer r2.Close()

	h.Publish(user, event(7))

	ev := <-r2.Events()
	assert.JSONEq(t, `{"n":7}`, string(ev.Payload))
}

func TestSubscribeRacingCloseOfLastReceiver(t *testing.T) {
	h := newTestHub()
	user := uuid.New()

	// Closing the sole receiver unregisters the user's channel. A fresh
	// subscription racing that close must still land on a registered channel,
	// so the publish below always reaches it.
	for i := 0; i < 500; i++ {
		old := h.Subscribe(user)

		done := make(chan struct{})
		go func() {
			defer close(done)
			old.Close()
		}()

		fresh := h.Subscribe(user)
		runtime.Gosched()
		<-done

		h.Publish(user, event(i))

		select {
		case ev := <-fresh.Events():
			assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(ev.Payload))
		default:
			t.Fatalf("subscription missed the event at iteration %d", i)
		}

		fresh.Close()
	}
}

func TestPublishAll(t *testing.T) {
	h := newTestHub()

	r1 := h.Subscribe(uuid.New())
	defer r1.Close()
	r2 := h.Subscribe(uuid.New())
	defer r2.Close()

	h.PublishAll(event(9))

	for _, r := range []*Receiver{r1, r2} {
		select {
		case ev := <-r.Events():
			assert.JSONEq(t, `{"n":9}`, string(ev.Payload))
		default:
			t.Fatal("receiver missed a broadcast event")
		}
	}
}

func TestStatsTracking(t *testing.T) {
	sp := &stats.MockStatsProvider{}
	sp.On("Incr", stats.ActiveReceivers).Twice()
	sp.On("Decr", stats.ActiveReceivers).Twice()
	sp.On("Incr", stats.EventsPublished).Once()

	h := New(testutil.TestLogger(), sp)
	user := uuid.New()

	r1 := h.Subscribe(user)
	r2 := h.Subscribe(user)
	h.Publish(user, event(1))
	r1.Close()
	r2.Close()

	sp.AssertExpectations(t)
}

func TestPublishAllCountsOneEvent(t *testing.T) {
	sp := &stats.MockStatsProvider{}
	sp.On("Incr", stats.ActiveReceivers).Times(3)
	sp.On("Decr", stats.ActiveReceivers).Times(3)
	sp.On("Incr", stats.EventsPublished).Once()

	h := New(testutil.TestLogger(), sp)

	receivers := []*Receiver{
		h.Subscribe(uuid.New()),
		h.Subscribe(uuid.New()),
		h.Subscribe(uuid.New()),
	}

	h.PublishAll(event(1))

	for _, r := range receivers {
		r.Close()
	}

	sp.AssertExpectations(t)
}
