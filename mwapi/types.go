package mwapi

import (
	"encoding/json"
	"net/http"
)

// MWError is the error object MediaWiki embeds in a response body.
type MWError struct {
	Code string `json:"code"`
	Info string `json:"info,omitempty"`
}

// Envelope holds the response fields shared by every Action API call.
// Continue stays raw: its fields mix strings and numbers depending on the
// query module (e.g. sroffset is numeric).
type Envelope struct {
	Error    *MWError        `json:"error,omitempty"`
	Warnings map[string]any  `json:"warnings,omitempty"`
	Continue json.RawMessage `json:"continue,omitempty"`
}

// Response is a parsed Action API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Envelope

	Raw json.RawMessage
}

// Into unmarshals the raw response body into out.
func (r *Response) Into(out any) error {
	return json.Unmarshal(r.Raw, out)
}

// LoginResult is the login substructure of an action=login response.
type LoginResult struct {
	Result   string `json:"result"`
	UserID   int    `json:"lguserid"`
	Username string `json:"lgusername"`
	Reason   string `json:"reason,omitempty"`
}
