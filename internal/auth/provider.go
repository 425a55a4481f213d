// Package auth talks to the external OpenID Connect identity provider:
// building the authorization redirect, exchanging the code and reading the
// user's profile.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrNoSubject = errors.New("no user ID found in provider response")
	ErrNoEmail   = errors.New("no email found in provider response")
)

var Scopes = []string{"openid", "email", "profile"}

// Profile is the subset of the userinfo document we keep.
type Profile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Provider is the identity provider as seen by the HTTP layer.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Metadata holds the endpoints published in the provider's discovery document.
type Metadata struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
}

// GoogleMetadata is used when discovery is unavailable.
var GoogleMetadata = Metadata{
	AuthorizationEndpoint: google.Endpoint.AuthURL,
	TokenEndpoint:         google.Endpoint.TokenURL,
	UserinfoEndpoint:      "https://www.googleapis.com/oauth2/v3/userinfo",
}

type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	DiscoveryURL string
}

type OAuthProvider struct {
	config      *oauth2.Config
	userinfoURL string
	httpClient  *http.Client
}

// NewOAuthProvider resolves the provider endpoints from the discovery document,
// falling back to Google's well-known endpoints when discovery fails.
func NewOAuthProvider(ctx context.Context, opts Options, logger *slog.Logger) *OAuthProvider {
	httpClient := &http.Client{Timeout: 10 * time.Second}

	meta := GoogleMetadata
	if opts.DiscoveryURL != "" {
		discovered, err := Discover(ctx, httpClient, opts.DiscoveryURL)
		if err != nil {
			logger.Warn("OAuth discovery failed, using default Google endpoints", "url", opts.DiscoveryURL, "error", err)
		} else {
			meta = discovered
		}
	}

	return NewOAuthProviderWithMetadata(opts, meta, httpClient)
}

func NewOAuthProviderWithMetadata(opts Options, meta Metadata, httpClient *http.Client) *OAuthProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  meta.AuthorizationEndpoint,
				TokenURL: meta.TokenEndpoint,
			},
		},
		userinfoURL: meta.UserinfoEndpoint,
		httpClient:  httpClient,
	}
}

// Discover fetches an OpenID Connect discovery document.
func Discover(ctx context.Context, client *http.Client, discoveryURL string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return Metadata{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Metadata{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Metadata{}, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}

	var meta Metadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("decode discovery document: %w", err)
	}
	if meta.AuthorizationEndpoint == "" || meta.TokenEndpoint == "" || meta.UserinfoEndpoint == "" {
		return Metadata{}, errors.New("discovery document is missing endpoints")
	}
	return meta, nil
}

func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and loads the profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info map[string]interface{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	return profileFromUserinfo(info)
}

func profileFromUserinfo(info map[string]interface{}) (*Profile, error) {
	subject := stringClaim(info, "sub")
	if subject == "" {
		subject = stringClaim(info, "id")
	}
	if subject == "" {
		return nil, ErrNoSubject
	}
	return &Profile{
		Subject: subject,
		Email:   stringClaim(info, "email"),
		Name:    stringClaim(info, "name"),
		Picture: stringClaim(info, "picture"),
	}, nil
}

func stringClaim(info map[string]interface{}, key string) string {
	switch v := info[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
