// Package auth resolves and stores the Dropbox Business team token.
// Dropbox Business tokens are issued once in the admin console; there is
// no interactive flow to run, only resolution and safe storage.
package auth

import (
	"os"

	"golang.org/x/oauth2"

	"github.com/dbxbak/dbxbak/internal/utils"
)

// Token sources, in resolution order
const (
	SourceFlag    = "flag"
	SourceEnv     = "env"
	SourceKeyring = "keyring"
)

// ResolveToken finds the team token: explicit flag value first, then the
// environment, then the system keyring. Returns the token and where it
// came from.
func ResolveToken(flagToken string, storage StorageBackend) (string, string, error) {
	if flagToken != "" {
		return flagToken, SourceFlag, nil
	}

	if env := os.Getenv(utils.TokenEnvVar); env != "" {
		return env, SourceEnv, nil
	}

	if storage != nil {
		data, err := storage.Load(DefaultProfile)
		if err == nil && len(data) > 0 {
			return string(data), SourceKeyring, nil
		}
	}

	return "", "", utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
		"No team token found. Pass --token, set "+utils.TokenEnvVar+", or run 'dbxbak auth set'.").
		Build())
}

// TokenSource wraps a resolved token for the API client
func TokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}
