package services

import (
	"context"
	"testing"

	"github.com/pilab-dev/shadow-interview/domain"
	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/pilab-dev/shadow-interview/memory"
	"github.com/pilab-dev/shadow-interview/services/mock_services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRedirectHandler_Outcomes(t *testing.T) {
	session := &domain.Session{UID: "u1", ProviderID: domain.ProviderGoogle}

	tests := []struct {
		name    string
		session *domain.Session
		err     error
		want    RedirectOutcome
	}{
		{"nothing pending", nil, nil, RedirectNoop},
		{"completed", session, nil, RedirectCompleted},
		{"failed", nil, serrors.ErrFederationFailed, RedirectFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := new(MockIdentityProvider)
			if tt.session != nil {
				idp.On("FinalizePendingRedirect", mock.Anything).Return(tt.session, tt.err).Once()
			} else {
				idp.On("FinalizePendingRedirect", mock.Anything).Return(nil, tt.err).Once()
			}

			h := NewRedirectHandler(idp, nil)
			assert.Equal(t, tt.want, h.Complete(context.Background()))
			assert.Equal(t, tt.want, h.Complete(context.Background()), "later calls repeat the first outcome")
			if tt.err != nil {
				assert.ErrorIs(t, h.Err(), tt.err)
			} else {
				assert.NoError(t, h.Err())
			}
			idp.AssertNumberOfCalls(t, "FinalizePendingRedirect", 1)
		})
	}
}

func TestRedirectHandler_RecoversPanic(t *testing.T) {
	idp := new(MockIdentityProvider)
	idp.On("FinalizePendingRedirect", mock.Anything).Panic("boom")

	h := NewRedirectHandler(idp, nil)
	var got RedirectOutcome
	assert.NotPanics(t, func() { got = h.Complete(context.Background()) })
	assert.Equal(t, RedirectFailed, got)
}

func TestRedirectHandler_NoopWithLocalProvider(t *testing.T) {
	h := newHarness(t, nil)
	rh := NewRedirectHandler(h.idp, NewProfileService(h.profiles))

	assert.Equal(t, RedirectNoop, rh.Complete(context.Background()))
	assert.Nil(t, h.gateway.CurrentUser())
}

func TestRedirectHandler_CreatesProfileOnce(t *testing.T) {
	ctx := context.Background()
	session := &domain.Session{UID: "u1", Email: "grace@example.com", PhotoURL: "https://example.com/g.png", ProviderID: domain.ProviderGoogle}

	idp := mock_services.NewMockRedirectFinalizer(gomock.NewController(t))
	idp.EXPECT().FinalizePendingRedirect(gomock.Any()).Return(session, nil).Times(1)
	repo := memory.NewProfileRepository()

	h := NewRedirectHandler(idp, NewProfileService(repo))
	assert.Equal(t, RedirectCompleted, h.Complete(ctx))

	p, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, p.AuthProvider)
	assert.Equal(t, "grace", p.DisplayName)
	assert.Equal(t, "https://example.com/g.png", p.PhotoURL)
	assert.Equal(t, domain.SubscriptionFree, p.SubscriptionStatus)
}

func TestRedirectHandler_ProfileFailureStillCompletes(t *testing.T) {
	session := &domain.Session{UID: "u1", ProviderID: domain.ProviderGoogle}

	idp := new(MockIdentityProvider)
	idp.On("FinalizePendingRedirect", mock.Anything).Return(session, nil).Once()
	repo := new(MockProfileRepository)
	repo.On("CreateProfile", mock.Anything, mock.Anything).Return(context.DeadlineExceeded).Once()

	h := NewRedirectHandler(idp, NewProfileService(repo))
	assert.Equal(t, RedirectCompleted, h.Complete(context.Background()))
	repo.AssertExpectations(t)
}

func TestRedirectOutcome_String(t *testing.T) {
	assert.Equal(t, "noop", RedirectNoop.String())
	assert.Equal(t, "completed", RedirectCompleted.String())
	assert.Equal(t, "failed", RedirectFailed.String())
	assert.Equal(t, "unknown", RedirectOutcome(42).String())
}
