// auth/client_credentials.go
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsConfig holds what the OAuth2 client credentials grant needs.
type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// NewClientCredentialsTokenSource returns a TokenSource that fetches and caches
// tokens from cfg.TokenURL. ctx bounds the token requests.
func NewClientCredentialsTokenSource(ctx context.Context, cfg ClientCredentialsConfig) (oauth2.TokenSource, error) {
	switch {
	case cfg.ClientID == "":
		return nil, fmt.Errorf("client id is required")
	case cfg.TokenURL == "":
		return nil, fmt.Errorf("token url is required")
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	return cc.TokenSource(ctx), nil
}

// BearerHeader resolves a token from ts into an Authorization header, ready to be
// merged into jsonapibridge.Settings.Headers.
func BearerHeader(ts oauth2.TokenSource) (map[string]string, error) {
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire token: %w", err)
	}
	return map[string]string{"Authorization": tok.Type() + " " + tok.AccessToken}, nil
}
