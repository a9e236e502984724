package local

import (
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	defaultMaxFailures   = 5
	defaultLockoutWindow = 15 * time.Minute
)

// lockout counts failed password attempts per email in a fixed window that
// opens with the first failure.
type lockout struct {
	mu          sync.Mutex
	failures    *ttlcache.Cache[string, int]
	maxFailures int
	window      time.Duration
}

func newLockout(maxFailures int, window time.Duration) *lockout {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultLockoutWindow
	}
	return &lockout{
		failures: ttlcache.New(
			ttlcache.WithDisableTouchOnHit[string, int](),
		),
		maxFailures: maxFailures,
		window:      window,
	}
}

func lockoutKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Locked reports whether email has used up its attempts.
func (l *lockout) Locked(email string) bool {
	item := l.failures.Get(lockoutKey(email))
	return item != nil && item.Value() >= l.maxFailures
}

// Fail records a failed attempt and reports whether email is now locked.
func (l *lockout) Fail(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockoutKey(email)
	n, ttl := 1, l.window
	if item := l.failures.Get(key); item != nil {
		if left := time.Until(item.ExpiresAt()); left > 0 {
			n, ttl = item.Value()+1, left
		}
	}
	l.failures.Set(key, n, ttl)
	return n >= l.maxFailures
}

// Reset forgets the failures for email.
func (l *lockout) Reset(email string) {
	l.failures.Delete(lockoutKey(email))
}
