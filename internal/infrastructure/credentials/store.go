package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/titanous/json5"

	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

// Store keeps the app credentials in a JSON file next to the user's config,
// asking for whatever is missing the first time they are needed.
type Store struct {
	path      string
	prompter  ports.Prompter
	userAgent string
	logger    *slog.Logger

	mu     sync.Mutex
	cached *domain.Credentials
}

var _ ports.CredentialStore = (*Store)(nil)

// NewStore reads and writes credentials at path. userAgent fills a missing
// user_agent field without prompting; prompter may be nil for non-interactive use.
func NewStore(path string, prompter ports.Prompter, userAgent string, logger *slog.Logger) *Store {
	return &Store{path: path, prompter: prompter, userAgent: userAgent, logger: logger}
}

// Path is the credentials file location.
func (s *Store) Path() string {
	return s.path
}

// Credentials returns the stored credentials, prompting for and saving missing
// fields. The result is reused for the rest of the process.
func (s *Store) Credentials(ctx context.Context) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}

	creds, err := s.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.debug("credentials file unusable", "path", s.path, "error", err)
	}
	if creds.UserAgent == "" {
		creds.UserAgent = s.userAgent
	}

	if !creds.Complete() {
		if err := ctx.Err(); err != nil {
			return domain.Credentials{}, err
		}
		if s.prompter == nil {
			return domain.Credentials{}, fmt.Errorf("credentials at %s are missing or incomplete", s.path)
		}
		if creds, err = s.fill(creds); err != nil {
			return domain.Credentials{}, err
		}
		if err := s.save(creds); err != nil {
			return domain.Credentials{}, err
		}
	}

	s.cached = &creds
	return creds, nil
}

// Replace saves partial, prompting for any field it leaves empty.
func (s *Store) Replace(ctx context.Context, partial domain.Credentials) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := partial
	if creds.UserAgent == "" {
		creds.UserAgent = s.userAgent
	}
	if !creds.Complete() {
		if err := ctx.Err(); err != nil {
			return domain.Credentials{}, err
		}
		if s.prompter == nil {
			return domain.Credentials{}, errors.New("credentials are incomplete")
		}
		var err error
		if creds, err = s.fill(creds); err != nil {
			return domain.Credentials{}, err
		}
	}
	if err := s.save(creds); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

// Load reads the credentials file. Comments and trailing commas are tolerated.
func (s *Store) Load() (domain.Credentials, error) {
	var creds domain.Credentials
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return creds, err
	}
	if err := json5.Unmarshal(raw, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return creds, nil
}

// Save writes creds readable by the current user only and refreshes the cache.
func (s *Store) Save(creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(creds)
}

func (s *Store) save(creds domain.Credentials) error {
	if s.path == "" {
		return errors.New("credentials path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("restrict credentials: %w", err)
	}

	s.cached = &creds
	s.debug("credentials saved", "path", s.path)
	return nil
}

func (s *Store) fill(creds domain.Credentials) (domain.Credentials, error) {
	fields := []struct {
		query  string
		secret bool
		value  *string
	}{
		{query: "Reddit client ID:", value: &creds.ClientID},
		{query: "Reddit client secret:", secret: true, value: &creds.ClientSecret},
		{query: "Reddit user agent:", value: &creds.UserAgent},
	}
	for _, f := range fields {
		if *f.value != "" {
			continue
		}
		answer, err := s.prompter.Ask(f.query, f.secret)
		if err != nil {
			return domain.Credentials{}, fmt.Errorf("prompt %q: %w", f.query, err)
		}
		*f.value = strings.TrimSpace(answer)
	}
	if !creds.Complete() {
		return domain.Credentials{}, errors.New("credentials are incomplete")
	}
	return creds, nil
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
