package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// SecretsFile is the local file holding the Spotify API credentials.
const SecretsFile = ".api_secrets"

// Keys looked up in the secrets file.
const (
	keyClientID     = "SPOTIFY_CLIENT_ID"
	keyClientSecret = "SPOTIFY_CLIENT_SECRET"
)

// Credentials holds the Spotify application credentials.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Load resolves credentials from the given flag values and, for anything
// still missing, from the secrets file at path. Flag values win per field.
// A missing secrets file is only an error when the flags don't cover both
// values.
func Load(path, flagID, flagSecret string) (Credentials, error) {
	creds := Credentials{ClientID: flagID, ClientSecret: flagSecret}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		values, err := godotenv.Read(path)
		if err != nil && !os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("error reading %s: %w", path, err)
		}
		if creds.ClientID == "" {
			creds.ClientID = values[keyClientID]
		}
		if creds.ClientSecret == "" {
			creds.ClientSecret = values[keyClientSecret]
		}
	}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return Credentials{}, fmt.Errorf(
			"spotify client ID and secret are required: pass --client-id and --client-secret or set %s and %s in %s",
			keyClientID, keyClientSecret, path,
		)
	}
	return creds, nil
}
