// Package identity signs users in with third-party identity providers using
// the OAuth2 authorization-code flow with PKCE and a loopback redirect.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
)

const (
	googleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	googleRevokeURL     = "https://oauth2.googleapis.com/revoke"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,name,email"

	callbackPath   = "/callback"
	maxProfileBody = 1 << 20
)

var ErrStateMismatch = errors.New("oauth state mismatch")

// Config describes one provider.
type Config struct {
	Name         string
	ClientID     string
	ClientSecret string
	// CallbackPort is the loopback port the redirect lands on. 0 picks a free one.
	CallbackPort int
	Scopes       []string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	RevokeURL    string
}

func GoogleConfig(clientID, clientSecret string, callbackPort int) Config {
	return Config{
		Name:         ports.ProviderGoogle,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		CallbackPort: callbackPort,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoints.Google,
		UserInfoURL:  googleUserInfoURL,
		RevokeURL:    googleRevokeURL,
	}
}

func FacebookConfig(clientID, clientSecret string, callbackPort int) Config {
	return Config{
		Name:         ports.ProviderFacebook,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		CallbackPort: callbackPort,
		Scopes:       []string{"email", "public_profile"},
		Endpoint:     endpoints.Facebook,
		UserInfoURL:  facebookUserInfoURL,
	}
}

// Opener shows the authorization URL to the user, normally by launching a
// browser. It plays the part of the sign-in popup.
type Opener func(authURL string) error

// Provider runs the sign-in flow for one Config.
type Provider struct {
	cfg  Config
	http *http.Client
	open Opener
	log  zerolog.Logger
}

func NewProvider(cfg Config, httpClient *http.Client, open Opener, log zerolog.Logger) *Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{cfg: cfg, http: httpClient, open: open, log: log.With().Str("provider", cfg.Name).Logger()}
}

func (p *Provider) Name() string { return p.cfg.Name }

// SignIn runs the full flow: listen on loopback, open the consent page, wait
// for the redirect, exchange the code and fetch the profile.
func (p *Provider) SignIn(ctx context.Context) (*domain.ProviderProfile, *oauth2.Token, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(p.cfg.CallbackPort)))
	if err != nil {
		return nil, nil, fmt.Errorf("listen for callback: %w", err)
	}

	oc := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint:     p.cfg.Endpoint,
		RedirectURL:  "http://" + ln.Addr().String() + callbackPath,
		Scopes:       p.cfg.Scopes,
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	cb := newCallbackServer(state, p.log)
	stop := cb.serve(ln)
	defer stop()

	authURL := oc.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	p.log.Debug().Str("redirect_url", oc.RedirectURL).Msg("waiting for provider callback")
	if err := p.open(authURL); err != nil {
		return nil, nil, fmt.Errorf("open consent page: %w", err)
	}

	var code string
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-cb.result:
		if res.err != nil {
			return nil, nil, res.err
		}
		code = res.code
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)
	tok, err := oc.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("exchange code: %w", err)
	}

	profile, err := p.fetchProfile(ctx, oc.Client(ctx, tok))
	if err != nil {
		return nil, nil, err
	}
	return profile, tok, nil
}

type userInfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *Provider) fetchProfile(ctx context.Context, client *http.Client) (*domain.ProviderProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	return &domain.ProviderProfile{
		Provider:    p.cfg.Name,
		Subject:     subject,
		Email:       info.Email,
		DisplayName: info.Name,
	}, nil
}

// Revoke invalidates tok at the provider, when the provider supports it.
func (p *Provider) Revoke(ctx context.Context, tok *oauth2.Token) error {
	if p.cfg.RevokeURL == "" || tok == nil || tok.AccessToken == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RevokeURL, nil)
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	q := req.URL.Query()
	q.Set("token", tok.AccessToken)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke token: provider returned %d", resp.StatusCode)
	}
	return nil
}
