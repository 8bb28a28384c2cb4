package metrics

import (
	"time"
)

// RecordCollectionRun records the outcome of one provider sweep.
// A nil err counts as success.
func RecordCollectionRun(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	CollectionRunsTotal.WithLabelValues(provider, status).Inc()
	CollectionDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordPostsCollected records the number of posts collected from a provider.
func RecordPostsCollected(provider string, count int) {
	if count <= 0 {
		return
	}
	PostsCollectedTotal.WithLabelValues(provider).Add(float64(count))
}

// RecordProfileRefresh records the result of a profile refresh.
func RecordProfileRefresh(provider string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ProfilesRefreshedTotal.WithLabelValues(provider, status).Inc()
}

// RecordCacheSweep records expired entries removed from a provider's cache.
func RecordCacheSweep(provider string, removed int) {
	if removed <= 0 {
		return
	}
	CacheSweepRemovedTotal.WithLabelValues(provider).Add(float64(removed))
}

// UpdateAlertsDropped updates the dropped-alert gauge from the auditor's counter.
func UpdateAlertsDropped(count int64) {
	AlertsDroppedTotal.Set(float64(count))
}
