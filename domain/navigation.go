package domain

import "sync"

// NavigationContext is the process-local marker for a redirect round-trip
// that may have just returned: the URL the process was launched with. It is
// never persisted and can be taken at most once.
type NavigationContext struct {
	mu    sync.Mutex
	url   string
	taken bool
}

// NewNavigationContext wraps the launch URL. An empty URL means the process
// was not started from a redirect.
func NewNavigationContext(url string) *NavigationContext {
	return &NavigationContext{url: url}
}

// Take returns the launch URL the first time it is called and "" afterwards.
func (n *NavigationContext) Take() string {
	if n == nil {
		return ""
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.taken {
		return ""
	}
	n.taken = true
	return n.url
}
