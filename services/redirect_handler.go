package services

import (
	"context"
	"sync"
	"time"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/pilab-dev/shadow-interview/internal/metrics"
	"github.com/rs/zerolog/log"
)

// RedirectOutcome is the result of redirect completion at process start.
type RedirectOutcome int

const (
	RedirectNoop RedirectOutcome = iota
	RedirectCompleted
	RedirectFailed
)

func (o RedirectOutcome) String() string {
	switch o {
	case RedirectNoop:
		return "noop"
	case RedirectCompleted:
		return "completed"
	case RedirectFailed:
		return "failed"
	}
	return "unknown"
}

// RedirectHandler finalizes a redirect sign-in the process may have been
// launched from. It runs once; the resulting session reaches the host through
// the session observer, not from here.
type RedirectHandler struct {
	idp      RedirectFinalizer
	profiles *ProfileService

	once    sync.Once
	outcome RedirectOutcome
	err     error
}

// NewRedirectHandler creates a RedirectHandler. When profiles is non-nil a
// completed sign-in gets its profile created if it has none, as with the
// interactive flow.
func NewRedirectHandler(idp RedirectFinalizer, profiles *ProfileService) *RedirectHandler {
	return &RedirectHandler{idp: idp, profiles: profiles}
}

// Complete finalizes the pending redirect on its first call and returns the
// first outcome on every call. Failures are logged, never returned.
func (h *RedirectHandler) Complete(ctx context.Context) RedirectOutcome {
	h.once.Do(func() {
		h.outcome, h.err = h.complete(ctx)
		metrics.RedirectOutcomesTotal.WithLabelValues(h.outcome.String()).Inc()
	})
	return h.outcome
}

func (h *RedirectHandler) complete(ctx context.Context) (outcome RedirectOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered panic while completing redirect sign-in")
			outcome = RedirectFailed
		}
	}()

	s, err := h.idp.FinalizePendingRedirect(ctx)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Redirect sign-in could not be completed")
		return RedirectFailed, err
	case s == nil:
		log.Debug().Msg("No pending redirect sign-in")
		return RedirectNoop, nil
	}
	log.Info().Str("uid", s.UID.String()).Msg("Redirect sign-in completed")

	if h.profiles != nil {
		profile := domain.NewProfile(s, "", s.ProviderID, time.Now())
		if _, err := h.profiles.CreateIfAbsent(ctx, profile); err != nil {
			log.Error().Err(err).Str("uid", s.UID.String()).Msg("Session created but profile write failed")
		}
	}
	return RedirectCompleted, nil
}

// Err returns the error behind a RedirectFailed outcome, for diagnostics.
func (h *RedirectHandler) Err() error {
	return h.err
}
