package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvClientID holds the OAuth application client id
	EnvClientID = "STRAVA_CLIENT_ID"

	// EnvClientSecret holds the OAuth application client secret
	EnvClientSecret = "STRAVA_CLIENT_SECRET"

	// EnvRefreshToken holds the long-lived refresh token of the athlete
	EnvRefreshToken = "STRAVA_REFRESH_TOKEN"

	// EnvPrefix is the prefix for application-level environment variables
	EnvPrefix = "STRAVA_SYNC"
)

// ErrMissingCredentials is returned when a required credential variable is unset
var ErrMissingCredentials = errors.New("missing required credentials")

// Credentials are the OAuth secrets used to obtain an access token
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// String never prints the secrets
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ClientID: %q, ClientSecret: <redacted>, RefreshToken: <redacted>}", c.ClientID)
}

// LoadCredentials reads the three credential variables from the environment.
// All of them are required; there are no defaults.
func LoadCredentials() (Credentials, error) {
	v := viper.New()
	keys := map[string]string{
		"client_id":     EnvClientID,
		"client_secret": EnvClientSecret,
		"refresh_token": EnvRefreshToken,
	}
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			return Credentials{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	creds := Credentials{
		ClientID:     strings.TrimSpace(v.GetString("client_id")),
		ClientSecret: strings.TrimSpace(v.GetString("client_secret")),
		RefreshToken: strings.TrimSpace(v.GetString("refresh_token")),
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if creds.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if creds.RefreshToken == "" {
		missing = append(missing, EnvRefreshToken)
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	return creds, nil
}
