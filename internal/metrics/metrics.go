// Package metrics exposes Prometheus instruments for the feed engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_page_fetches_total",
		Help: "Feed page fetches by listing endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	feedFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelfeed_feed_fallbacks_total",
		Help: "Times the pager fell back from the feed endpoint to the video listing",
	})

	feedExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelfeed_feed_exhausted_total",
		Help: "Feed sessions that reached the end of the catalog",
	})

	cardsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelfeed_cards_appended_total",
		Help: "Cards appended to feed sessions",
	})

	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_mutations_total",
		Help: "Optimistic mutations by kind and outcome",
	}, []string{"kind", "outcome"})

	playSwitchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelfeed_play_switches_total",
		Help: "Times the active player moved to a different card",
	})
)

// Endpoint labels.
const (
	EndpointFeed   = "feed"
	EndpointVideos = "videos"
)

// Mutation outcome labels.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeReverted  = "reverted"
)

// IncPageFetch records one listing request.
func IncPageFetch(endpoint string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	pageFetchesTotal.WithLabelValues(endpoint, outcome).Inc()
}

// IncFallback records a switch to the fallback listing.
func IncFallback() { feedFallbacksTotal.Inc() }

// IncExhausted records a session reaching its terminal state.
func IncExhausted() { feedExhaustedTotal.Inc() }

// AddCardsAppended records appended cards.
func AddCardsAppended(n int) { cardsAppendedTotal.Add(float64(n)) }

// IncMutation records a reconciled or reverted mutation.
func IncMutation(kind, outcome string) {
	mutationsTotal.WithLabelValues(kind, outcome).Inc()
}

// IncPlaySwitch records the active card changing.
func IncPlaySwitch() { playSwitchesTotal.Inc() }
