package macro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

// ErrNotFound reports a lookup for a macro that is not stored.
var ErrNotFound = errors.New("macro not found")

// Mirror is an optional remote copy of the macro file. Load returning
// (nil, nil) means the remote object does not exist yet.
type Mirror interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
}

// macroFile is the on-disk TOML document.
type macroFile struct {
	Macros map[string]Macro `toml:"macros"`
}

// Store reads and writes the macro file. Every operation takes a file
// lock around the read-modify-write so concurrent invocations do not
// clobber each other. Mirror traffic is best effort: a mirror failure is
// logged and never fails the local operation.
type Store struct {
	path   string
	lock   *flock.Flock
	mirror Mirror
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithMirror attaches a remote mirror merged on load and updated after
// every successful Put and Delete.
func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithLogger sets the logger used for mirror diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store persisting to path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultPath returns the macro file location under the user's home.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cwtail", "macros.toml"), nil
}

// Get returns the macro stored under name.
func (s *Store) Get(ctx context.Context, name string) (Macro, error) {
	if err := s.lockFile(); err != nil {
		return Macro{}, err
	}
	defer s.unlockFile()

	doc, err := s.load(ctx)
	if err != nil {
		return Macro{}, err
	}
	m, ok := doc.Macros[name]
	if !ok {
		return Macro{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return m, nil
}

// Put stores m under its derived name and returns that name.
func (s *Store) Put(ctx context.Context, m Macro) (string, error) {
	if m.LogGroupName == "" || m.Region == "" {
		return "", errors.New("macro needs a log group and a region")
	}
	if err := s.lockFile(); err != nil {
		return "", err
	}
	defer s.unlockFile()

	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	name := m.Name()
	doc.Macros[name] = m
	if err := s.save(ctx, doc); err != nil {
		return "", err
	}
	return name, nil
}

// Delete removes the macro stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.lockFile(); err != nil {
		return err
	}
	defer s.unlockFile()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc.Macros[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	delete(doc.Macros, name)
	return s.save(ctx, doc)
}

// List returns all macros sorted by name.
func (s *Store) List(ctx context.Context) ([]Macro, error) {
	if err := s.lockFile(); err != nil {
		return nil, err
	}
	defer s.unlockFile()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.Macros))
	for name := range doc.Macros {
		names = append(names, name)
	}
	sort.Strings(names)
	macros := make([]Macro, 0, len(names))
	for _, name := range names {
		macros = append(macros, doc.Macros[name])
	}
	return macros, nil
}

// load reads the local file and merges the mirror's copy into it. The
// merge is a plain union; a local entry wins a name conflict.
func (s *Store) load(ctx context.Context) (*macroFile, error) {
	doc := &macroFile{Macros: map[string]Macro{}}

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.path, err)
		}
		if doc.Macros == nil {
			doc.Macros = map[string]Macro{}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if s.mirror == nil {
		return doc, nil
	}
	remote, err := s.mirror.Load(ctx)
	if err != nil {
		s.logger.Warn("macro mirror unavailable, using local copy", "error", err)
		return doc, nil
	}
	if remote == nil {
		return doc, nil
	}
	var remoteDoc macroFile
	if err := toml.Unmarshal(remote, &remoteDoc); err != nil {
		s.logger.Warn("macro mirror holds unparsable data, ignoring it", "error", err)
		return doc, nil
	}
	for name, m := range remoteDoc.Macros {
		if _, ok := doc.Macros[name]; !ok {
			doc.Macros[name] = m
		}
	}
	return doc, nil
}

// save writes the document locally and pushes it to the mirror.
func (s *Store) save(ctx context.Context, doc *macroFile) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode macros: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create macro directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if s.mirror != nil {
		if err := s.mirror.Store(ctx, data); err != nil {
			s.logger.Warn("macro mirror update failed", "error", err)
		}
	}
	return nil
}

func (s *Store) lockFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create macro directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock macro file: %w", err)
	}
	return nil
}

func (s *Store) unlockFile() {
	_ = s.lock.Unlock()
}
