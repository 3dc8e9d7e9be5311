package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/leadcal/internal/apperror"
)

// CredentialProvider returns a token source for Google API calls or fails
// with an auth error.
type CredentialProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// FileCredentials loads an installed-app client secret and a previously
// issued user token from disk.
type FileCredentials struct {
	ClientSecretFile string
	TokenFile        string
	Scopes           []string
}

// NewFileCredentials creates file-backed user credentials.
func NewFileCredentials(clientSecretFile, tokenFile string, scopes []string) *FileCredentials {
	return &FileCredentials{
		ClientSecretFile: clientSecretFile,
		TokenFile:        tokenFile,
		Scopes:           scopes,
	}
}

// Config returns the OAuth client configuration from the client secret file.
func (c *FileCredentials) Config() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.ClientSecretFile)
	if err != nil {
		return nil, apperror.Auth("load_client_secret", fmt.Errorf("failed to read client secret file %s: %w", c.ClientSecretFile, err))
	}
	conf, err := google.ConfigFromJSON(data, c.Scopes...)
	if err != nil {
		return nil, apperror.Auth("load_client_secret", fmt.Errorf("failed to parse client secret file: %w", err))
	}
	return conf, nil
}

// HasToken reports whether the token file exists.
func (c *FileCredentials) HasToken() bool {
	_, err := os.Stat(c.TokenFile)
	return err == nil
}

// TokenSource returns a refreshing token source for the stored user token.
// The stored token's client id and secret take precedence over an absent
// client secret file, so a token file alone is enough to run the server.
func (c *FileCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	stored, err := LoadToken(c.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperror.Auth("load_token", fmt.Errorf("no token at %s, run 'leadcal token' to authorize", c.TokenFile))
		}
		return nil, apperror.Auth("load_token", err)
	}

	conf, err := c.Config()
	if err != nil {
		if stored.ClientID == "" {
			return nil, err
		}
		conf = &oauth2.Config{
			ClientID:     stored.ClientID,
			ClientSecret: stored.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       c.Scopes,
		}
		if stored.TokenURI != "" {
			conf.Endpoint.TokenURL = stored.TokenURI
		}
	}

	token := stored.OAuth2()
	if !token.Valid() && token.RefreshToken == "" {
		return nil, apperror.Auth("load_token", fmt.Errorf("token at %s is expired and has no refresh token", c.TokenFile))
	}

	return oauth2.ReuseTokenSource(token, conf.TokenSource(ctx, token)), nil
}

// ServiceAccountCredentials loads a service account JSON key.
type ServiceAccountCredentials struct {
	File   string
	Scopes []string
}

// NewServiceAccountCredentials creates service account credentials.
func NewServiceAccountCredentials(file string, scopes []string) *ServiceAccountCredentials {
	return &ServiceAccountCredentials{File: file, Scopes: scopes}
}

// TokenSource returns a JWT-based token source for the service account.
func (c *ServiceAccountCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, apperror.Auth("load_service_account", fmt.Errorf("failed to read service account file %s: %w", c.File, err))
	}
	conf, err := google.JWTConfigFromJSON(data, c.Scopes...)
	if err != nil {
		return nil, apperror.Auth("load_service_account", fmt.Errorf("failed to parse service account file: %w", err))
	}
	return conf.TokenSource(ctx), nil
}

// StaticCredentials always returns the same token source.
type StaticCredentials struct {
	Source oauth2.TokenSource
}

// TokenSource implements CredentialProvider.
func (c StaticCredentials) TokenSource(context.Context) (oauth2.TokenSource, error) {
	if c.Source == nil {
		return nil, apperror.Auth("static_token", errors.New("no token source configured"))
	}
	return c.Source, nil
}
