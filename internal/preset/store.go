// Package preset persists preprocessing settings as JSON documents, one
// file per preset, and round-trips the pipeline policy objects verbatim.
package preset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Version is written into every saved preset document.
const Version = "1.2.0"

// Preset is one saved settings document.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"created_at"`
	Version     string   `json:"version"`
	Settings    Settings `json:"settings"`
}

// Info is the listing entry for one preset on disk.
type Info struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Store reads and writes presets under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir, creating the directory if
// needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preset directory: %w", err)
	}
	return &Store{dir: dir, logger: logger.With(slog.String("component", "preset.store"))}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the settings under the given name, overwriting any preset
// with the same name.
func (s *Store) Save(name, description string, settings Settings) (Preset, error) {
	p := Preset{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().Format(time.RFC3339),
		Version:     Version,
		Settings:    settings,
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Preset{}, fmt.Errorf("failed to encode preset: %w", err)
	}
	path := s.pathFor(name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Preset{}, fmt.Errorf("failed to write preset: %w", err)
	}

	s.logger.Info("preset saved", slog.String("name", name), slog.String("path", path))
	return p, nil
}

// Load reads a preset by name, or by path when the argument is an
// existing file.
func (s *Store) Load(nameOrPath string) (Preset, error) {
	path := nameOrPath
	if info, err := os.Stat(nameOrPath); err != nil || info.IsDir() {
		path = s.pathFor(nameOrPath)
	}
	return readPreset(path)
}

// List returns the stored presets sorted by creation time, newest first.
// Unreadable files are skipped.
func (s *Store) List() []Info {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to read preset directory", slog.String("error", err.Error()))
		return nil
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		p, err := readPreset(path)
		if err != nil {
			s.logger.Warn("skipping unreadable preset",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}
		name := p.Name
		if name == "" {
			name = strings.TrimSuffix(entry.Name(), ".json")
		}
		infos = append(infos, Info{
			Name:        name,
			Path:        path,
			Description: p.Description,
			CreatedAt:   p.CreatedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt > infos[j].CreatedAt
	})
	return infos
}

// Delete removes a preset by name or path.
func (s *Store) Delete(nameOrPath string) error {
	if info, err := os.Stat(nameOrPath); err == nil && !info.IsDir() {
		return os.Remove(nameOrPath)
	}
	path := s.pathFor(nameOrPath)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("preset not found: %s", nameOrPath)
	}
	return os.Remove(path)
}

// Export copies a stored preset to an external path.
func (s *Store) Export(name, exportPath string) error {
	p, err := s.Load(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to export preset: %w", err)
	}
	return nil
}

// Import copies an external preset file into the store and returns the
// imported preset's name.
func (s *Store) Import(importPath string) (string, error) {
	p, err := readPreset(importPath)
	if err != nil {
		return "", err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(importPath), filepath.Ext(importPath))
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode preset: %w", err)
	}
	if err := os.WriteFile(s.pathFor(p.Name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to import preset: %w", err)
	}
	return p.Name, nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, safeName(name)+".json")
}

// safeName keeps letters, digits, spaces, dashes and underscores so preset
// names cannot escape the store directory.
func safeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func readPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to read preset: %w", err)
	}
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("failed to decode preset %s: %w", path, err)
	}
	return p, nil
}
