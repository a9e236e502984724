package local

import (
	"sync"
	"sync/atomic"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/rs/zerolog/log"
)

type subscriber struct {
	id       uint64
	listener domain.AuthStateListener
	active   atomic.Bool
}

// emission is one value to deliver to a fixed set of subscribers. The set is
// captured when the emission is queued, so a subscriber never sees a change
// that happened before it subscribed.
type emission struct {
	session *domain.Session
	targets []*subscriber
}

// dispatcher delivers emissions from a single goroutine, in queue order.
// Listeners may call back into the provider without deadlocking.
type dispatcher struct {
	mu      sync.Mutex
	queue   []emission
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) enqueue(e emission) {
	if len(e.targets) == 0 {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, e)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.stopped)
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
		}

		for {
			d.mu.Lock()
			if len(d.queue) == 0 {
				d.mu.Unlock()
				break
			}
			e := d.queue[0]
			d.queue[0] = emission{}
			d.queue = d.queue[1:]
			d.mu.Unlock()

			for _, s := range e.targets {
				if s.active.Load() {
					deliver(s, e.session)
				}
			}
		}
	}
}

func deliver(s *subscriber, session *domain.Session) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Uint64("subscriber", s.id).Msg("Auth state listener panicked")
		}
	}()
	// Each listener gets its own copy.
	s.listener(session.Clone())
}

// stop ends the dispatch goroutine; queued emissions are dropped.
func (d *dispatcher) stop() {
	d.once.Do(func() { close(d.done) })
	<-d.stopped
}
