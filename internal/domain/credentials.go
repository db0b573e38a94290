package domain

import "strings"

// Credentials are the app-only API credentials for the discussion platform.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	UserAgent    string `json:"user_agent"`
}

// Complete reports whether every field is filled in.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != "" &&
		strings.TrimSpace(c.UserAgent) != ""
}
