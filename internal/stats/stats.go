package stats

import "expvar"

const (
	ActiveReceivers   = "ActiveReceivers"
	EventsPublished   = "EventsPublished"
	EventsDropped     = "EventsDropped"
	MessagesCreated   = "MessagesCreated"
	BroadcastsCreated = "BroadcastsCreated"
)

type StatsProvider interface {
	Incr(metric string)
	Decr(metric string)
}

// StatsUpdater publishes process counters through expvar, exposed on the
// debug mux at /debug/vars.
type StatsUpdater struct {
	stats *expvar.Map
}

func NewStatsUpdater() *StatsUpdater {
	// expvar panics on duplicate registration, so reuse the map if this is
	// not the first updater in the process.
	if existing := expvar.Get("murmur-stats"); existing != nil {
		return &StatsUpdater{stats: existing.(*expvar.Map)}
	}

	return &StatsUpdater{stats: expvar.NewMap("murmur-stats")}
}

func (s *StatsUpdater) Incr(metric string) {
	s.stats.Add(metric, 1)
}

func (s *StatsUpdater) Decr(metric string) {
	s.stats.Add(metric, -1)
}
