package strava

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/stacklok/strava-track-sync/internal/config"
)

// TokenSource yields the access token for a run
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenRefresher exchanges the long-lived refresh token for a short-lived access
// token. Each call performs one POST to the token endpoint; there is no retry.
type TokenRefresher struct {
	oauth        *oauth2.Config
	refreshToken string
	httpClient   *http.Client
}

// NewTokenRefresher creates a refresher for the given credentials and token URL.
// The client id and secret travel in the form body, not in a Basic auth header.
func NewTokenRefresher(creds config.Credentials, tokenURL string, timeout time.Duration) *TokenRefresher {
	return &TokenRefresher{
		oauth: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		refreshToken: creds.RefreshToken,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// AccessToken performs the refresh-token grant and returns the access token
func (r *TokenRefresher) AccessToken(ctx context.Context) (string, error) {
	tok, err := r.Token(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token performs the refresh-token grant and returns the full token
func (r *TokenRefresher) Token(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)

	// A token without an access token is never valid, so the first call refreshes.
	src := r.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: r.refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	slog.DebugContext(ctx, "Refreshed access token", "expiry", tok.Expiry)
	return tok, nil
}

// NewAuthenticatedHTTPClient returns an HTTP client that sends
// "Authorization: Bearer <accessToken>" on every request.
func NewAuthenticatedHTTPClient(ctx context.Context, accessToken string, timeout time.Duration) *http.Client {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	hc.Timeout = timeout
	return hc
}
