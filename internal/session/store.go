package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"menupos/internal/models"

	"github.com/rs/zerolog"
)

// FileStore persists the login session and printer preferences in one JSON
// file. It is an explicitly owned object with a load/save/clear lifecycle;
// nothing holds session state at package level.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zerolog.Logger
}

type preferences struct {
	Session  *models.Session                 `json:"user_session,omitempty"`
	Printers map[string]models.PrinterConfig `json:"printer_configs,omitempty"`
}

func NewFileStore(path string, logger *zerolog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) read() preferences {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read preferences")
		}
		return preferences{}
	}

	var prefs preferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("preferences file is corrupt, starting fresh")
		return preferences{}
	}
	return prefs
}

func (s *FileStore) write(prefs preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}

// Load returns the cached session, or nil when nobody is signed in.
func (s *FileStore) Load(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().Session, nil
}

func (s *FileStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil || session.Token == "" {
		return errors.New("session token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.read()
	if session.CachedAt.IsZero() {
		session.CachedAt = time.Now().UTC()
	}
	prefs.Session = session
	return s.write(prefs)
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.read()
	if prefs.Session == nil {
		return nil
	}
	prefs.Session = nil
	return s.write(prefs)
}

func (s *FileStore) LoadPrinters(ctx context.Context) (map[string]models.PrinterConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.read()
	if prefs.Printers == nil {
		return map[string]models.PrinterConfig{}, nil
	}
	return prefs.Printers, nil
}

func (s *FileStore) SavePrinters(ctx context.Context, configs map[string]models.PrinterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.read()
	if configs == nil {
		configs = map[string]models.PrinterConfig{}
	}
	prefs.Printers = configs
	return s.write(prefs)
}
