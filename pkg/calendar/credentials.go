package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hannalabs/hanna-api/internal/log"
)

// Scope requested during the OAuth flow.
const Scope = "https://www.googleapis.com/auth/calendar"

// credentialFile is the JSON document written by the OAuth callback.
// It must contain token, token_uri, client_id, client_secret and
// scopes; refresh_token and expiry are optional.
type credentialFile struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry,omitempty"`
}

// CredentialStore loads OAuth user credentials saved by the OAuth
// callback and persists refreshed access tokens back to the same file.
// The file on disk is the primary source; when it does not exist yet,
// a JSON payload supplied via environment is parsed, written to the
// configured path and used (handy when no persistent disk is attached).
type CredentialStore struct {
	// Path of the credential file.
	Path string

	// EnvJSON is the optional full JSON payload fallback.
	EnvJSON string

	mu sync.Mutex
}

// Save writes an OAuth token obtained from the web flow, together with
// the client configuration, to the credential file.
func (s *CredentialStore) Save(conf *oauth2.Config, tok *oauth2.Token) error {
	cf := &credentialFile{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     google.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       conf.Scopes,
	}
	if !tok.Expiry.IsZero() {
		cf.Expiry = tok.Expiry.Format(time.RFC3339)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(cf)
}

// load reads and validates the credential file.
func (s *CredentialStore) load() (*credentialFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		if s.EnvJSON == "" {
			return nil, fmt.Errorf("%w (looked in %s)", ErrNoCredentials, s.Path)
		}
		raw = []byte(s.EnvJSON)
	} else if err != nil {
		return nil, wrapError("read credentials", err)
	}

	var cf credentialFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	var missing []string
	for field, value := range map[string]string{
		"token":         cf.Token,
		"token_uri":     cf.TokenURI,
		"client_id":     cf.ClientID,
		"client_secret": cf.ClientSecret,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(cf.Scopes) == 0 {
		missing = append(missing, "scopes")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrInvalidCredentials, missing)
	}

	// Persist the env payload so the next load finds the file.
	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		if err := s.write(&cf); err != nil {
			log.Warn("could not persist credentials from environment", "path", s.Path, "error", err)
		}
	}
	return &cf, nil
}

// tokenSource returns a refreshing, self-persisting token source built
// from the stored credentials.
func (s *CredentialStore) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cf, err := s.load()
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     cf.ClientID,
		ClientSecret: cf.ClientSecret,
		Scopes:       cf.Scopes,
		Endpoint:     google.Endpoint,
	}
	tok := &oauth2.Token{
		AccessToken:  cf.Token,
		RefreshToken: cf.RefreshToken,
	}
	if cf.Expiry != "" {
		if exp, err := time.Parse(time.RFC3339, cf.Expiry); err == nil {
			tok.Expiry = exp
		}
	}
	if tok.Expiry.IsZero() && tok.RefreshToken != "" {
		// Unknown expiry: treat as stale so the first use refreshes.
		tok.Expiry = time.Now().Add(-time.Minute)
	}

	return &persistingSource{
		store: s,
		file:  cf,
		base:  conf.TokenSource(ctx, tok),
		last:  tok.AccessToken,
	}, nil
}

// write stores cf at Path, creating parent directories as needed.
func (s *CredentialStore) write(cf *credentialFile) error {
	raw, err := json.Marshal(cf)
	if err != nil {
		return wrapError("encode credentials", err)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return wrapError("write credentials", err)
		}
	}
	if err := os.WriteFile(s.Path, raw, 0o600); err != nil {
		return wrapError("write credentials", err)
	}
	return nil
}

// persistingSource wraps a refreshing token source and writes renewed
// access tokens back to the credential file, like the OAuth callback
// did for the original token.
type persistingSource struct {
	store *CredentialStore
	file  *credentialFile
	base  oauth2.TokenSource

	mu   sync.Mutex
	last string
}

// Token implements oauth2.TokenSource.
func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, wrapError("refresh token", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		p.file.Token = tok.AccessToken
		if !tok.Expiry.IsZero() {
			p.file.Expiry = tok.Expiry.Format(time.RFC3339)
		}
		p.store.mu.Lock()
		err := p.store.write(p.file)
		p.store.mu.Unlock()
		if err != nil {
			log.Warn("could not persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
