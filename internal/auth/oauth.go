package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/spec-kit/cbt-dashboard/internal/config"
)

// ErrUnknownProvider is returned for providers that are not configured.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// ExternalProfile is the identity an external provider vouches for.
type ExternalProfile struct {
	Provider string
	Email    string
	Name     string
}

type provider struct {
	conf        *oauth2.Config
	userInfoURL string
	decode      func(body []byte) (ExternalProfile, error)
}

// OAuthManager runs the authorization-code flow against the configured providers.
type OAuthManager struct {
	providers map[string]provider
}

// NewOAuthManager registers every provider that has a client id.
func NewOAuthManager(cfg config.OAuthConfig) *OAuthManager {
	base := strings.TrimRight(cfg.CallbackBaseURL, "/")
	m := &OAuthManager{providers: make(map[string]provider)}

	if cfg.GoogleClientID != "" {
		m.providers["google"] = provider{
			conf: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  base + "/auth/oauth/google/callback",
				Scopes:       []string{"openid", "email", "profile"},
			},
			userInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
			decode:      decodeGoogleProfile,
		}
	}
	if cfg.GitHubClientID != "" {
		m.providers["github"] = provider{
			conf: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				Endpoint:     github.Endpoint,
				RedirectURL:  base + "/auth/oauth/github/callback",
				Scopes:       []string{"read:user", "user:email"},
			},
			userInfoURL: "https://api.github.com/user",
			decode:      decodeGitHubProfile,
		}
	}
	return m
}

// StateToken returns a random value binding the callback to the browser that started the flow.
func (m *OAuthManager) StateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthURL returns the provider consent URL.
func (m *OAuthManager) AuthURL(name, state string) (string, error) {
	p, ok := m.providers[name]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.conf.AuthCodeURL(state), nil
}

// Exchange trades the callback code for a token and fetches the caller's profile.
func (m *OAuthManager) Exchange(ctx context.Context, name, code string) (ExternalProfile, error) {
	p, ok := m.providers[name]
	if !ok {
		return ExternalProfile{}, ErrUnknownProvider
	}

	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return ExternalProfile{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return ExternalProfile{}, err
	}
	resp, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return ExternalProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ExternalProfile{}, fmt.Errorf("fetch profile: status %d", resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ExternalProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	profile, err := p.decode(body)
	if err != nil {
		return ExternalProfile{}, err
	}
	profile.Provider = name
	return profile, nil
}

// Providers lists the configured provider names in stable order.
func (m *OAuthManager) Providers() []string {
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enabled reports whether the named provider is configured.
func (m *OAuthManager) Enabled(name string) bool {
	_, ok := m.providers[name]
	return ok
}

func decodeGoogleProfile(body []byte) (ExternalProfile, error) {
	var info struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return ExternalProfile{}, err
	}
	if info.Email == "" || !info.EmailVerified {
		return ExternalProfile{}, errors.New("google account has no verified email")
	}
	return ExternalProfile{Email: info.Email, Name: info.Name}, nil
}

func decodeGitHubProfile(body []byte) (ExternalProfile, error) {
	var info struct {
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return ExternalProfile{}, err
	}
	if info.Email == "" {
		return ExternalProfile{}, errors.New("github account has no public email")
	}
	name := info.Name
	if name == "" {
		name = info.Login
	}
	return ExternalProfile{Email: info.Email, Name: name}, nil
}
