package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an AuthError so callers can choose between asking the user
// to correct input and offering a retry.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindCredential          Kind = "credential"
	KindUnavailable         Kind = "unavailable"
	KindPlatformUnsupported Kind = "platform_unsupported"
	KindNotFound            Kind = "not_found"
	KindProfileStore        Kind = "profile_store"
	KindInternal            Kind = "internal"
)

// AuthError is the structured error carried by every failed gateway result.
// Code and Message are meant to be shown to the user as they are.
type AuthError struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches on Code, so a wrapped copy of a sentinel still satisfies
// errors.Is against the sentinel.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether trying the same call again may succeed.
func (e *AuthError) Retryable() bool {
	return e.Kind == KindUnavailable || (e.Kind == KindProfileStore && e.Code == ProfileStoreUnavailable)
}

// Wrap returns a copy of e carrying cause.
func (e *AuthError) Wrap(cause error) *AuthError {
	c := *e
	c.Err = cause
	return &c
}

// Error codes. The auth/ codes follow the identity provider's vocabulary.
const (
	EmailAlreadyInUse       = "auth/email-already-in-use"
	InvalidEmail            = "auth/invalid-email"
	WeakPassword            = "auth/weak-password"
	InvalidCredential       = "auth/invalid-credential"
	UserNotFound            = "auth/user-not-found"
	TooManyRequests         = "auth/too-many-requests"
	NetworkRequestFailed    = "auth/network-request-failed"
	OperationNotSupported   = "auth/operation-not-supported-in-this-environment"
	PopupClosedByUser       = "auth/popup-closed-by-user"
	FederationFailed        = "auth/federation-failed"
	InternalError           = "auth/internal-error"
	ProfileNotFound         = "profile/not-found"
	ProfileExists           = "profile/already-exists"
	ProfileStoreUnavailable = "profile/unavailable"
)

// New creates an AuthError.
func New(kind Kind, code, message string) *AuthError {
	return &AuthError{Kind: kind, Code: code, Message: message}
}

var (
	ErrEmailAlreadyInUse = New(KindCredential, EmailAlreadyInUse, "The email address is already in use by another account.")
	ErrInvalidEmail      = New(KindValidation, InvalidEmail, "The email address is badly formatted.")
	ErrWeakPassword      = New(KindCredential, WeakPassword, "Password should be at least 6 characters.")
	ErrInvalidCredential = New(KindCredential, InvalidCredential, "The supplied credentials are incorrect.")
	ErrUserNotFound      = New(KindCredential, UserNotFound, "There is no account for this email address.")
	ErrTooManyRequests   = New(KindCredential, TooManyRequests, "Access to this account has been temporarily disabled due to many failed login attempts.")
	ErrNetwork           = New(KindUnavailable, NetworkRequestFailed, "A network error occurred. Please try again.")
	ErrPopupClosed       = New(KindCredential, PopupClosedByUser, "The sign-in window was closed before finishing the sign in.")
	ErrFederationFailed  = New(KindCredential, FederationFailed, "Federated sign-in did not complete.")
	ErrInternal          = New(KindInternal, InternalError, "An internal error occurred.")

	// ErrPlatformUnsupported is returned by federated sign-in on runtimes
	// without the redirect registration it needs.
	ErrPlatformUnsupported = New(KindPlatformUnsupported, OperationNotSupported,
		"Google Sign-In on this device requires additional configuration. Please use email/password for now.")

	ErrProfileNotFound    = New(KindNotFound, ProfileNotFound, "No user profile found")
	ErrProfileExists      = New(KindProfileStore, ProfileExists, "A user profile already exists")
	ErrProfileUnavailable = New(KindProfileStore, ProfileStoreUnavailable, "The profile store could not be reached.")
)

// From classifies err into an AuthError. AuthErrors pass through; transport
// failures become ErrNetwork; everything else is ErrInternal.
func From(err error) *AuthError {
	if err == nil {
		return nil
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	if IsTransport(err) {
		return ErrNetwork.Wrap(err)
	}
	return ErrInternal.Wrap(err)
}

// IsTransport reports whether err looks like a network or deadline failure.
func IsTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// KindOf returns the kind of err, or "" when err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return From(err).Kind
}
