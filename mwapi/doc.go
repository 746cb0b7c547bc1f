// Package mwapi provides a minimal MediaWiki Action API client.
//
// It focuses on server-side usage: cookie-based sessions, the two-step login
// handshake, CSRF token management, and typed wrappers for the page
// operations the wiki-mcp tools expose (search, read, edit, history,
// categories).
package mwapi
