package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"
	"k8s.io/utils/clock"
)

// ErrUnauthenticated is returned when no usable credential is cached
var ErrUnauthenticated = errors.New("not logged in")

// Store keeps a single credential in a JSON file owned by the current user
type Store struct {
	path         string
	expiryMargin time.Duration
	clock        clock.PassiveClock
}

type Option func(*Store)

// WithExpiryMargin overrides DefaultExpiryMargin
func WithExpiryMargin(margin time.Duration) Option {
	return func(s *Store) {
		s.expiryMargin = margin
	}
}

func WithClock(clk clock.PassiveClock) Option {
	return func(s *Store) {
		s.clock = clk
	}
}

func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:         path,
		expiryMargin: DefaultExpiryMargin,
		clock:        clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Save replaces the cached credential. The file is written to a temporary
// sibling and renamed, so readers never observe a partial write.
func (s *Store) Save(cred *Credential) error {
	if cred == nil {
		return errors.New("credential is nil")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}
	content, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := atomicwriter.WriteFile(s.path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// Load returns the cached credential. A missing file is reported through ok,
// not as an error.
func (s *Store) Load() (cred *Credential, ok bool, err error) {
	content, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read credential: %w", err)
	}

	var stored Credential
	if err := json.Unmarshal(content, &stored); err != nil {
		return nil, false, fmt.Errorf("failed to parse credential file %s: %w", s.path, err)
	}
	return &stored, true, nil
}

// Clear deletes the cached credential. Clearing an empty cache succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}

func (s *Store) IsExpired(cred *Credential) bool {
	return IsExpired(cred, s.clock.Now(), s.expiryMargin)
}

// RequireValid loads the cached credential and fails with ErrUnauthenticated
// when it is missing or inside the expiry margin.
func (s *Store) RequireValid() (*Credential, error) {
	cred, ok, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !ok || cred.AccessToken == "" || s.IsExpired(cred) {
		return nil, ErrUnauthenticated
	}
	return cred, nil
}
