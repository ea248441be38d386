package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteURL(t *testing.T) {
	repo := setupTestRepo(t)

	url, err := RemoteURL(repo, "origin")
	require.NoError(t, err)
	assert.Empty(t, url, "no origin configured yet")

	runTestGit(t, repo, "remote", "add", "origin", "git@github.com:skyverge/woocommerce-memberships.git")
	url, err = RemoteURL(repo, "origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:skyverge/woocommerce-memberships.git", url)
}

func TestRemoteURL_NotARepository(t *testing.T) {
	url, err := RemoteURL(t.TempDir(), "origin")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		input string
		owner string
		name  string
		ok    bool
	}{
		{"git@github.com:skyverge/woocommerce-memberships.git", "skyverge", "woocommerce-memberships", true},
		{"https://github.com/skyverge/jilt-for-woocommerce", "skyverge", "jilt-for-woocommerce", true},
		{"ssh://git@github.com/woocommerce/woocommerce-gateway-braintree.git", "woocommerce", "woocommerce-gateway-braintree", true},
		{"github.com/skyverge/sake/", "skyverge", "sake", true},
		{"skyverge/sake", "skyverge", "sake", true},
		{"sake", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, name, ok := ParseGitHubURL(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}
