// Package federationtest provides an in-process stand-in for Google's OAuth
// endpoints.
package federationtest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/pilab-dev/shadow-interview/internal/federation"
	"golang.org/x/oauth2"
)

// Server issues codes and tokens for a single fake Google user. Creating one
// points the federation package's Google endpoints at it until the test ends.
type Server struct {
	*httptest.Server

	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string

	mu     sync.Mutex
	next   int
	codes  map[string]string // code -> PKCE challenge
	tokens map[string]bool
}

// NewServer starts a fake provider.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		Subject:       "google-sub-1",
		Email:         "grace@example.com",
		EmailVerified: true,
		Name:          "Grace Hopper",
		Picture:       "https://example.com/grace.png",
		codes:         map[string]string{},
		tokens:        map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/userinfo", s.handleUserInfo)
	s.Server = httptest.NewServer(mux)

	origEndpoint, origUserInfo := federation.GoogleEndpoint, federation.GoogleUserInfoEndpoint
	federation.GoogleEndpoint = oauth2.Endpoint{
		AuthURL:   s.URL + "/auth",
		TokenURL:  s.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	federation.GoogleUserInfoEndpoint = s.URL + "/userinfo"

	t.Cleanup(func() {
		federation.GoogleEndpoint, federation.GoogleUserInfoEndpoint = origEndpoint, origUserInfo
		s.Close()
	})
	return s
}

// Config returns a client registration accepted by the server.
func (s *Server) Config() domain.IdPConfig {
	return domain.IdPConfig{Name: domain.ProviderGoogle, ClientID: "test-client", ClientSecret: "test-secret"}
}

// Provider returns a GoogleProvider wired to the server.
func (s *Server) Provider(t testing.TB) *federation.GoogleProvider {
	t.Helper()
	p, err := federation.NewGoogleProvider(s.Config())
	if err != nil {
		t.Fatalf("NewGoogleProvider: %v", err)
	}
	return p
}

// Authorize plays the consenting user: it reads an authorization URL and
// returns the callback URL the browser would be sent to.
func (s *Server) Authorize(authURL string) (string, error) {
	u, err := url.Parse(authURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if q.Get("code_challenge_method") != "S256" {
		return "", errors.New("authorization request without S256 PKCE challenge")
	}

	s.mu.Lock()
	s.next++
	code := fmt.Sprintf("code-%d", s.next)
	s.codes[code] = q.Get("code_challenge")
	s.mu.Unlock()

	cb, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		return "", err
	}
	cq := cb.Query()
	cq.Set("code", code)
	cq.Set("state", q.Get("state"))
	cb.RawQuery = cq.Encode()
	return cb.String(), nil
}

// Opener returns a browser stand-in that consents and follows the redirect.
func (s *Server) Opener() func(string) error {
	return func(authURL string) error {
		callback, err := s.Authorize(authURL)
		if err != nil {
			return err
		}
		go func() {
			resp, err := http.Get(callback)
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	code, verifier := r.PostForm.Get("code"), r.PostForm.Get("code_verifier")

	s.mu.Lock()
	challenge, ok := s.codes[code]
	delete(s.codes, code)
	s.mu.Unlock()

	sum := sha256.Sum256([]byte(verifier))
	if !ok || verifier == "" || base64.RawURLEncoding.EncodeToString(sum[:]) != challenge {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	token := "access-" + code
	s.mu.Lock()
	s.tokens[token] = true
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (s *Server) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	s.mu.Lock()
	ok := len(auth) > len(prefix) && s.tokens[auth[len(prefix):]]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sub":            s.Subject,
		"email":          s.Email,
		"email_verified": s.EmailVerified,
		"name":           s.Name,
		"picture":        s.Picture,
	})
}
