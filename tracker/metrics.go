package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var modListLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "modwatch_moderator_list_lookups",
	Help: "Moderator list lookups by source",
}, []string{"source"}) // persisted, local, fetch, forbidden, error

var botsSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modwatch_bots_cache_skipped",
	Help: "Bots reused verbatim from the previous snapshot",
})

var communitiesResolved = promauto.NewCounter(prometheus.CounterOpts{
	Name: "modwatch_communities_resolved",
	Help: "Communities walked during aggregation",
})
