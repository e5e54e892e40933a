package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tirebot",
		Name:      "updates_processed_total",
		Help:      "Telegram updates processed, by kind.",
	}, []string{"kind"})

	updatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tirebot",
		Name:      "updates_dropped_total",
		Help:      "Telegram updates dropped before processing.",
	}, []string{"reason"})

	inlineQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tirebot",
		Name:      "inline_queries_total",
		Help:      "Inline queries answered, by matching tier.",
	}, []string{"tier"})

	photosStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tirebot",
		Name:      "photos_stored_total",
		Help:      "Photos stored through the upload dialog.",
	})
)
