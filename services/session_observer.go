package services

import (
	"sync"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/pilab-dev/shadow-interview/internal/metrics"
)

// SessionObserver relays the provider's session to subscribers. The first
// value arrives soon after Subscribe and may be nil; later values follow each
// identity change in provider order. It never completes on its own.
type SessionObserver struct {
	src SessionSource
}

// NewSessionObserver creates a SessionObserver.
func NewSessionObserver(src SessionSource) *SessionObserver {
	return &SessionObserver{src: src}
}

// Subscribe registers fn and returns the handle that ends the subscription.
// Calling the handle more than once is harmless.
func (o *SessionObserver) Subscribe(fn func(*domain.Session)) (unsubscribe func()) {
	metrics.ActiveSubscriptionsGauge.Inc()
	stop := o.src.OnAuthStateChanged(func(s *domain.Session) {
		metrics.SessionEmissionsTotal.Inc()
		fn(s.Clone())
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			metrics.ActiveSubscriptionsGauge.Dec()
		})
	}
}
