package auth

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// PersistFunc stores a refreshed token.
type PersistFunc func(*oauth2.Token) error

// PersistingSource refreshes through the oauth2 config and hands every new
// token to persist so a restart doesn't need another browser login.
type PersistingSource struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	last    *oauth2.Token
	persist PersistFunc
}

// NewPersistingSource wraps cfg.TokenSource starting from the stored token.
func NewPersistingSource(ctx context.Context, cfg *oauth2.Config, stored *oauth2.Token, persist PersistFunc) *PersistingSource {
	return &PersistingSource{
		base:    oauth2.ReuseTokenSource(stored, cfg.TokenSource(ctx, stored)),
		last:    stored,
		persist: persist,
	}
}

// Token returns a valid token, persisting it when the access token changed.
func (s *PersistingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		log.WithField("expiry", tok.Expiry).Info("strava token refreshed")
		if s.persist != nil {
			if err := s.persist(tok); err != nil {
				return nil, err
			}
		}
		s.last = tok
	}
	return tok, nil
}
