package stats

import (
	"expvar"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsUpdater(t *testing.T) {
	s := NewStatsUpdater()

	s.Incr(EventsPublished)
	s.Incr(EventsPublished)
	s.Decr(EventsPublished)

	m := expvar.Get("murmur-stats").(*expvar.Map)
	assert.Equal(t, "1", m.Get(EventsPublished).String())
}

func TestNewStatsUpdaterIsReentrant(t *testing.T) {
	a := NewStatsUpdater()
	b := NewStatsUpdater()

	a.Incr(MessagesCreated)
	b.Incr(MessagesCreated)

	m := expvar.Get("murmur-stats").(*expvar.Map)
	assert.Equal(t, "2", m.Get(MessagesCreated).String())
}
