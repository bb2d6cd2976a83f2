package auth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/cbt-dashboard/internal/config"
)

func TestOAuthManagerRegistersConfiguredProviders(t *testing.T) {
	m := NewOAuthManager(config.OAuthConfig{
		CallbackBaseURL: "https://cbt.example.com/",
		GitHubClientID:  "gh-id",
	})

	assert.True(t, m.Enabled("github"))
	assert.False(t, m.Enabled("google"))
	assert.Equal(t, []string{"github"}, m.Providers())

	raw, err := m.AuthURL("github", "state-123")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "gh-id", u.Query().Get("client_id"))
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "https://cbt.example.com/auth/oauth/github/callback", u.Query().Get("redirect_uri"))

	_, err = m.AuthURL("google", "state")
	assert.ErrorIs(t, err, ErrUnknownProvider)
	_, err = m.Exchange(context.Background(), "gitlab", "code")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestOAuthStateTokensAreRandom(t *testing.T) {
	m := NewOAuthManager(config.OAuthConfig{})
	a, err := m.StateToken()
	require.NoError(t, err)
	b, err := m.StateToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

func TestDecodeProfiles(t *testing.T) {
	p, err := decodeGoogleProfile([]byte(`{"email":"a@x.com","email_verified":true,"name":"Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", p.Email)

	_, err = decodeGoogleProfile([]byte(`{"email":"a@x.com","email_verified":false}`))
	assert.Error(t, err)

	p, err = decodeGitHubProfile([]byte(`{"login":"ada","email":"a@x.com"}`))
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Name)

	_, err = decodeGitHubProfile([]byte(`{"login":"ada"}`))
	assert.Error(t, err)
}
