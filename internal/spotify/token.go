package spotify

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// tokenCacheFile stores the OAuth token between runs.
const tokenCacheFile = "token_cache.json"

func (a *Authenticator) cachedToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(a.cachePath)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", a.cachePath, err)
	}
	return &tok, nil
}

func (a *Authenticator) saveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	// The token grants account access, keep the file private.
	return os.WriteFile(a.cachePath, data, 0600)
}

// clearToken drops a cached token the API no longer accepts.
func (a *Authenticator) clearToken() {
	os.Remove(a.cachePath)
}
