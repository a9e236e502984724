package audit

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Actions recorded by the identity provider.
const (
	ActionSignUp        = "sign_up"
	ActionSignIn        = "sign_in"
	ActionFederated     = "sign_in_federated"
	ActionSignOut       = "sign_out"
	ActionLockout       = "lockout"
	ActionRedirectBegin = "redirect_begin"
)

// Event represents an audit log event.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	User      string    `json:"user,omitempty"`    // User ID
	Target    string    `json:"target,omitempty"`  // Email or provider subject
	Details   string    `json:"details,omitempty"` // Additional details
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

var (
	mu          sync.Mutex
	auditLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// SetOutput redirects audit events, e.g. to a file or to io.Discard.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	auditLogger = zerolog.New(w).With().Timestamp().Logger()
}

// Log records an audit event.
func Log(service, action, user, target, details string, success bool, err error) {
	event := Event{
		Timestamp: time.Now().UTC(),
		Service:   service,
		Action:    action,
		User:      user,
		Target:    target,
		Details:   details,
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	mu.Lock()
	l := auditLogger
	mu.Unlock()

	l.Log().
		Dict("audit_event", zerolog.Dict().
			Time("timestamp", event.Timestamp).
			Str("service", event.Service).
			Str("action", event.Action).
			Str("user", event.User).
			Str("target", event.Target).
			Str("details", event.Details).
			Bool("success", event.Success).
			Str("error", event.Error)).
		Msg("")
}
