package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MaxRecents is the number of recent connections kept on disk.
const MaxRecents = 10

// Recent is a previously used set of connection parameters.
// Passwords are never stored.
type Recent struct {
	Host    string `json:"host"`
	User    string `json:"user"`
	BaseDir string `json:"base_dir"`
}

// Label returns the one-line form shown in the recents pane.
func (r Recent) Label() string {
	if r.User == "" {
		return fmt.Sprintf("%s:%s", r.Host, r.BaseDir)
	}
	return fmt.Sprintf("%s@%s:%s", r.User, r.Host, r.BaseDir)
}

// Config holds the persisted application state.
type Config struct {
	Recents []Recent `json:"recents"`
}

// DefaultPath returns the default location of the recents file.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sftp-append", "recents.json")
}

// Load reads the config at path. A missing or unreadable JSON file yields an
// empty config so a damaged recents file never blocks start-up.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return &Config{}, nil
	}
	cfg.Recents = dedupe(cfg.Recents)
	if len(cfg.Recents) > MaxRecents {
		cfg.Recents = cfg.Recents[:MaxRecents]
	}
	return &cfg, nil
}

// Save writes the config to path, replacing any previous content.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// AddRecent moves r to the front of the recent list, dropping any equal
// entry and trimming the list to MaxRecents.
func (c *Config) AddRecent(r Recent) {
	list := make([]Recent, 0, len(c.Recents)+1)
	list = append(list, r)
	for _, rc := range c.Recents {
		if rc == r {
			continue
		}
		list = append(list, rc)
	}
	if len(list) > MaxRecents {
		list = list[:MaxRecents]
	}
	c.Recents = list
}

// RemoveRecent deletes the entry at idx. Out of range indexes are ignored.
func (c *Config) RemoveRecent(idx int) {
	if idx < 0 || idx >= len(c.Recents) {
		return
	}
	c.Recents = append(c.Recents[:idx], c.Recents[idx+1:]...)
}

func dedupe(in []Recent) []Recent {
	seen := make(map[Recent]bool, len(in))
	out := in[:0]
	for _, r := range in {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
