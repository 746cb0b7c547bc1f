// Package config resolves the process configuration from CLI flags and
// environment variables, flags taking precedence.
package config

import (
	"errors"
	"os"
)

// Environment variables consulted when the matching flag is unset. Both the
// short MW_* names and the longer MEDIAWIKI_* aliases are accepted.
var (
	apiURLEnv   = []string{"MW_API_ENDPOINT", "MEDIAWIKI_API_URL"}
	usernameEnv = []string{"MW_USERNAME", "MEDIAWIKI_USERNAME"}
	passwordEnv = []string{"MW_PASSWORD", "MEDIAWIKI_PASSWORD"}
)

// ErrMissingAPIURL is the only fatal configuration error: without an API URL
// there is no wiki to serve.
var ErrMissingAPIURL = errors.New("no MediaWiki API URL configured (set --api-url or MW_API_ENDPOINT)")

// Config holds the resolved process configuration.
type Config struct {
	APIURL   string
	Username string
	Password string

	// Optional local HTTP listener; empty means stdio transport only.
	ListenAddr  string
	TLSCertFile string
	TLSKeyFile  string
}

// Anonymous reports whether no credential pair was configured.
func (c Config) Anonymous() bool {
	return c.Username == "" || c.Password == ""
}

// Resolve fills unset fields from the environment and validates the result.
// Flag values already present in c win over environment variables.
func Resolve(c Config) (Config, error) {
	if c.APIURL == "" {
		c.APIURL = firstEnv(apiURLEnv...)
	}
	if c.Username == "" {
		c.Username = firstEnv(usernameEnv...)
	}
	if c.Password == "" {
		c.Password = firstEnv(passwordEnv...)
	}

	if c.APIURL == "" {
		return c, ErrMissingAPIURL
	}
	return c, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
