package spotify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/huh/spinner"
	log "github.com/sirupsen/logrus"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"spotilists/internal/config"
)

// DefaultRedirectURI is the loopback address most Spotify apps register
// for local tools.
const DefaultRedirectURI = "http://127.0.0.1:8080/callback"

// loginTimeout bounds how long we wait for the user to approve access
// in the browser.
const loginTimeout = 5 * time.Minute

// Authenticator drives the Spotify authorization-code flow and caches
// the resulting token on disk so the browser consent is a one-time step.
type Authenticator struct {
	auth      *spotifyauth.Authenticator
	redirect  *url.URL
	cachePath string
}

// NewAuthenticator builds an Authenticator for the given credentials.
// The redirect URI must match the one registered in the Spotify app and
// carry a host and callback path, because the callback server is built
// from it.
func NewAuthenticator(creds config.Credentials, redirectURI string) (*Authenticator, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if redirect.Host == "" || redirect.Path == "" {
		return nil, fmt.Errorf("redirect URI %q must include a host and callback path", redirectURI)
	}

	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(creds.ClientID),
			spotifyauth.WithClientSecret(creds.ClientSecret),
			spotifyauth.WithRedirectURL(redirectURI),
			spotifyauth.WithScopes(
				spotifyauth.ScopePlaylistReadPrivate,
				spotifyauth.ScopePlaylistReadCollaborative,
				spotifyauth.ScopeUserLibraryRead,
			),
		),
		redirect:  redirect,
		cachePath: tokenCacheFile,
	}, nil
}

// Token returns a usable OAuth token and whether it came from the
// on-disk cache rather than a fresh login.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, bool, error) {
	if tok, err := a.cachedToken(); err == nil {
		return tok, true, nil
	}
	tok, err := a.Login(ctx)
	return tok, false, err
}

// Login runs the interactive authorization flow: it serves the OAuth
// callback on the redirect address, opens the consent page in the
// browser and blocks until the code exchange completes or the timeout
// expires. The obtained token is cached for later runs.
func (a *Authenticator) Login(ctx context.Context) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	state, err := generateState()
	if err != nil {
		return nil, err
	}

	tokens := make(chan *oauth2.Token, 1)
	failures := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(a.redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		tok, err := a.auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Couldn't get token", http.StatusForbidden)
			failures <- fmt.Errorf("error exchanging authorization code: %w", err)
			return
		}
		if st := r.FormValue("state"); st != state {
			http.NotFound(w, r)
			failures <- fmt.Errorf("state mismatch: %s != %s", st, state)
			return
		}
		fmt.Fprintf(w, "Login Completed! You can now close this window.")
		tokens <- tok
	})

	server := &http.Server{Addr: a.redirect.Host, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failures <- fmt.Errorf("callback server on %s: %w", a.redirect.Host, err)
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := a.auth.AuthURL(state)
	fmt.Println("Please log in to Spotify by visiting the following page in your browser:", authURL)
	openBrowser(authURL)

	var tok *oauth2.Token
	wait := func(ctx context.Context) error {
		select {
		case tok = <-tokens:
			return nil
		case err := <-failures:
			return err
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for the Spotify login to complete: %w", ctx.Err())
		}
	}
	if err := spinner.New().Title("Waiting for Spotify login...").Context(ctx).ActionWithErr(wait).Run(); err != nil {
		return nil, err
	}

	if err := a.saveToken(tok); err != nil {
		log.Warnf("could not cache the access token: %v", err)
	}
	return tok, nil
}

// generateState returns a random state string for the auth flow.
func generateState() (string, error) {
	bytes := make([]byte, 8) // 8 bytes will result in 16 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("error generating state: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
