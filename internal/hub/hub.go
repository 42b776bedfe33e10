package hub

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/murmur-chat/murmur/internal/stats"
)

// receiverBuffer bounds how many events a slow receiver may fall behind
// before the hub starts discarding its oldest events.
const receiverBuffer = 32

// Hub fans events out to per-user channels. Publishing to a user nobody is
// listening to is a silent no-op; a subscription only ever sees events
// published after it was created.
type Hub struct {
	log   *log.Logger
	stats stats.StatsProvider

	mu       sync.Mutex
	channels map[uuid.UUID]*channel
}

func New(logger *log.Logger, sp stats.StatsProvider) *Hub {
	return &Hub{
		log:      logger,
		stats:    sp,
		channels: make(map[uuid.UUID]*channel),
	}
}

type channel struct {
	mu        sync.Mutex
	receivers map[*Receiver]struct{}
}

// Receiver is one subscription to a user's event channel. Events are
// consumed from Events; when the receiver falls behind, the oldest buffered
// event is dropped and Lagged reports true from then on.
type Receiver struct {
	hub *Hub
	key uuid.UUID
	ch  chan Event

	channel *channel
	lagged  atomic.Bool
	once    sync.Once
}

// Subscribe registers a new receiver for the given user's events. The
// receiver is attached while the registry lock is held so a concurrent Close
// of the channel's last receiver cannot unregister the channel underneath
// the new subscription.
func (h *Hub) Subscribe(key uuid.UUID) *Receiver {
	r := &Receiver{
		hub: h,
		key: key,
		ch:  make(chan Event, receiverBuffer),
	}

	h.mu.Lock()
	c, ok := h.channels[key]
	if !ok {
		c = &channel{receivers: make(map[*Receiver]struct{})}
		h.channels[key] = c
	}
	c.mu.Lock()
	c.receivers[r] = struct{}{}
	c.mu.Unlock()
	h.mu.Unlock()

	r.channel = c

	h.stats.Incr(stats.ActiveReceivers)

	return r
}

// Publish delivers an event to every receiver subscribed to the given user.
// Delivery never blocks: a full receiver loses its oldest buffered event and
// is marked lagged. Events within one Publish caller are delivered in call
// order per receiver.
func (h *Hub) Publish(key uuid.UUID, ev Event) {
	h.stats.Incr(stats.EventsPublished)
	h.publish(key, ev)
}

func (h *Hub) publish(key uuid.UUID, ev Event) {
	h.mu.Lock()
	c, ok := h.channels[key]
	h.mu.Unlock()
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for r := range c.receivers {
		select {
		case r.ch <- ev:
			continue
		default:
		}

		// Buffer full. Make room by discarding the oldest event, then
		// deliver. The consumer may drain concurrently, so both steps are
		// non-blocking.
		select {
		case <-r.ch:
		default:
		}
		r.lagged.Store(true)
		h.stats.Incr(stats.EventsDropped)

		select {
		case r.ch <- ev:
		default:
		}
	}
}

// PublishAll delivers an event to every receiver on every channel, with the
// same non-blocking semantics as Publish. Used for site-wide events such as
// new broadcasts. It counts as a single published event regardless of how
// many channels it reaches.
func (h *Hub) PublishAll(ev Event) {
	h.stats.Incr(stats.EventsPublished)

	h.mu.Lock()
	keys := make([]uuid.UUID, 0, len(h.channels))
	for key := range h.channels {
		keys = append(keys, key)
	}
	h.mu.Unlock()

	for _, key := range keys {
		h.publish(key, ev)
	}
}

// Events is the stream of events for this receiver. It is closed by Close.
func (r *Receiver) Events() <-chan Event {
	return r.ch
}

// Lagged reports whether this receiver has ever lost an event. Consumers
// treat a lagged receiver as broken and end the stream.
func (r *Receiver) Lagged() bool {
	return r.lagged.Load()
}

// Close unsubscribes the receiver and closes its event channel. Safe to call
// more than once.
func (r *Receiver) Close() {
	r.once.Do(func() {
		r.channel.mu.Lock()
		delete(r.channel.receivers, r)
		close(r.ch)
		empty := len(r.channel.receivers) == 0
		r.channel.mu.Unlock()

		if empty {
			r.hub.mu.Lock()
			if c, ok := r.hub.channels[r.key]; ok && c == r.channel {
				c.mu.Lock()
				if len(c.receivers) == 0 {
					delete(r.hub.channels, r.key)
				}
				c.mu.Unlock()
			}
			r.hub.mu.Unlock()
		}

		r.hub.stats.Decr(stats.ActiveReceivers)
	})
}
