package google

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// StoredToken is the on-disk user token format. It carries the client id and
// secret alongside the token so a refresh does not depend on the client
// secret file.
type StoredToken struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry,omitempty"`
}

// OAuth2 converts the stored token. An unparsable expiry is treated as
// expired so the token source refreshes it.
func (s *StoredToken) OAuth2() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  s.Token,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
	if s.Expiry != "" {
		if exp, err := time.Parse(time.RFC3339Nano, s.Expiry); err == nil {
			t.Expiry = exp
		} else if exp, err := time.Parse("2006-01-02T15:04:05.999999", s.Expiry); err == nil {
			t.Expiry = exp.UTC()
		} else {
			t.Expiry = time.Unix(1, 0)
		}
	}
	return t
}

// NewStoredToken builds the on-disk form of a freshly issued token.
func NewStoredToken(conf *oauth2.Config, t *oauth2.Token) *StoredToken {
	st := &StoredToken{
		Token:        t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenURI:     conf.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       conf.Scopes,
	}
	if !t.Expiry.IsZero() {
		st.Expiry = t.Expiry.UTC().Format(time.RFC3339Nano)
	}
	return st
}

// LoadToken reads a stored token.
func LoadToken(path string) (*StoredToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st StoredToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if st.Token == "" && st.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s has neither an access token nor a refresh token", path)
	}
	return &st, nil
}

// SaveToken writes a stored token with owner-only permissions.
func SaveToken(path string, st *StoredToken) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
