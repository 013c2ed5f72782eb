package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// LoginTimeout is how long to wait for the browser round trip
	LoginTimeout = 5 * time.Minute
)

var ErrStateMismatch = errors.New("oauth state mismatch")

const successPage = `<!DOCTYPE html>
<html><head><title>trailrunner</title></head>
<body style="font-family: system-ui; text-align: center; margin-top: 20vh;">
<h1>Connected to Strava</h1><p>You can go back to the terminal.</p>
</body></html>`

// callback receives exactly one authorization code or error.
type callback struct {
	state string
	codes chan string
	errs  chan error
}

func newCallback(state string) *callback {
	return &callback{state: state, codes: make(chan string, 1), errs: make(chan error, 1)}
}

func (c *callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("state") != c.state:
		c.fail(w, ErrStateMismatch)
	case q.Get("error") != "":
		c.fail(w, fmt.Errorf("strava denied access: %s", q.Get("error")))
	case q.Get("code") == "":
		c.fail(w, errors.New("callback without authorization code"))
	default:
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, successPage)
		select {
		case c.codes <- q.Get("code"):
		default:
		}
	}
}

func (c *callback) fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
	select {
	case c.errs <- err:
	default:
	}
}

// Login runs the authorization code flow against a local callback server.
// The URL to open is written to prompt.
func Login(ctx context.Context, cfg *oauth2.Config, prompt io.Writer) (*Session, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	cb := newCallback(state)
	mux := http.NewServeMux()
	mux.Handle("/callback", cb)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", CallbackPort))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			select {
			case cb.errs <- fmt.Errorf("callback server: %w", err):
			default:
			}
		}
	}()
	defer shutdown(server)

	fmt.Fprintf(prompt, "\nOpen this URL to connect trailrunner to Strava:\n\n  %s\n\nWaiting for authorization...\n",
		cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var code string
	select {
	case code = <-cb.codes:
	case err := <-cb.errs:
		return nil, err
	case <-time.After(LoginTimeout):
		return nil, fmt.Errorf("no authorization after %v", LoginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	session := &Session{Token: token, AthleteID: AthleteIDFromToken(token)}
	log.WithField("athlete_id", session.AthleteID).Info("strava login complete")
	return session, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("callback server shutdown")
	}
}
