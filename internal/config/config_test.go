package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".config", "sftp-append", "recents.json")
}

// ---------------------------------------------------------------------------
// DefaultPath
// ---------------------------------------------------------------------------

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	want := filepath.Join(dir, ".config", "sftp-append", "recents.json")
	if got := DefaultPath(); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load(testPath(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if len(cfg.Recents) != 0 {
		t.Errorf("expected 0 recents, got %d", len(cfg.Recents))
	}
}

func TestSaveAndLoad(t *testing.T) {
	p := testPath(t)
	cfg := &Config{Recents: []Recent{{Host: "host1", User: "user1", BaseDir: "/srv"}}}
	if err := Save(p, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(p)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Recents) != 1 {
		t.Fatalf("expected 1 recent, got %d", len(loaded.Recents))
	}
	if loaded.Recents[0] != cfg.Recents[0] {
		t.Errorf("loaded %+v, want %+v", loaded.Recents[0], cfg.Recents[0])
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	p := testPath(t)
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("{invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load() should not return error for invalid JSON, got %v", err)
	}
	if len(cfg.Recents) != 0 {
		t.Errorf("expected 0 recents for invalid JSON, got %d", len(cfg.Recents))
	}
}

func TestLoadTrimsAndDedupes(t *testing.T) {
	p := testPath(t)
	var recents []Recent
	for i := 0; i < 15; i++ {
		recents = append(recents, Recent{Host: fmt.Sprintf("h%d", i%12), User: "u", BaseDir: "/"})
	}
	if err := Save(p, &Config{Recents: recents}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Recents) != MaxRecents {
		t.Errorf("len = %d, want %d", len(cfg.Recents), MaxRecents)
	}
	seen := map[Recent]bool{}
	for _, r := range cfg.Recents {
		if seen[r] {
			t.Errorf("duplicate recent %+v", r)
		}
		seen[r] = true
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	p := testPath(t)
	if err := Save(p, &Config{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		t.Errorf("expected config file to exist at %s", p)
	}
}

func TestSaveFilePermissions(t *testing.T) {
	p := testPath(t)
	if err := Save(p, &Config{Recents: []Recent{{Host: "h"}}}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file perm = %o, want 0600", perm)
	}
}

func TestSaveProducesStructuredRecords(t *testing.T) {
	p := testPath(t)
	cfg := &Config{Recents: []Recent{{Host: "h", User: "u", BaseDir: "/data"}}}
	if err := Save(p, cfg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string][]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved file is not valid JSON: %v", err)
	}
	rec := raw["recents"][0]
	if rec["host"] != "h" || rec["user"] != "u" || rec["base_dir"] != "/data" {
		t.Errorf("unexpected record %v", rec)
	}
	if strings.Contains(string(data), "password") {
		t.Errorf("recents file must not contain passwords: %s", data)
	}
}

// ---------------------------------------------------------------------------
// AddRecent / RemoveRecent
// ---------------------------------------------------------------------------

func TestAddRecentNew(t *testing.T) {
	cfg := &Config{}
	cfg.AddRecent(Recent{Host: "h1", User: "u1", BaseDir: "/"})
	if len(cfg.Recents) != 1 {
		t.Fatalf("expected 1, got %d", len(cfg.Recents))
	}
	if cfg.Recents[0].Host != "h1" {
		t.Errorf("Host = %q, want %q", cfg.Recents[0].Host, "h1")
	}
}

func TestAddRecentPrependsNew(t *testing.T) {
	cfg := &Config{Recents: []Recent{{Host: "h1", User: "u1", BaseDir: "/"}}}
	cfg.AddRecent(Recent{Host: "h2", User: "u2", BaseDir: "/"})
	if len(cfg.Recents) != 2 {
		t.Fatalf("expected 2, got %d", len(cfg.Recents))
	}
	if cfg.Recents[0].Host != "h2" {
		t.Errorf("first entry Host = %q, want %q", cfg.Recents[0].Host, "h2")
	}
}

func TestAddRecentMovesExistingToFront(t *testing.T) {
	a := Recent{Host: "a", User: "u", BaseDir: "/"}
	b := Recent{Host: "b", User: "u", BaseDir: "/"}
	cfg := &Config{Recents: []Recent{a, b}}
	cfg.AddRecent(b)
	if len(cfg.Recents) != 2 {
		t.Fatalf("expected 2 (moved), got %d", len(cfg.Recents))
	}
	if cfg.Recents[0] != b || cfg.Recents[1] != a {
		t.Errorf("order = %v, want [b a]", cfg.Recents)
	}
}

func TestAddRecentDifferentBaseDir(t *testing.T) {
	cfg := &Config{Recents: []Recent{{Host: "h1", User: "u1", BaseDir: "/a"}}}
	cfg.AddRecent(Recent{Host: "h1", User: "u1", BaseDir: "/b"})
	if len(cfg.Recents) != 2 {
		t.Errorf("expected 2 (different base dir), got %d", len(cfg.Recents))
	}
}

func TestAddRecentMaxAndUnique(t *testing.T) {
	cfg := &Config{}
	for i := 0; i < 40; i++ {
		cfg.AddRecent(Recent{Host: fmt.Sprintf("h%d", i%13), User: "u", BaseDir: "/"})
		if len(cfg.Recents) > MaxRecents {
			t.Fatalf("len = %d exceeds %d", len(cfg.Recents), MaxRecents)
		}
		seen := map[Recent]bool{}
		for _, r := range cfg.Recents {
			if seen[r] {
				t.Fatalf("duplicate %+v after %d adds", r, i+1)
			}
			seen[r] = true
		}
	}
	if cfg.Recents[0].Host != "h0" { // 39 % 13
		t.Errorf("first = %q, want h0", cfg.Recents[0].Host)
	}
}

func TestRemoveRecent(t *testing.T) {
	cfg := &Config{Recents: []Recent{{Host: "a"}, {Host: "b"}, {Host: "c"}}}
	cfg.RemoveRecent(1)
	if len(cfg.Recents) != 2 || cfg.Recents[0].Host != "a" || cfg.Recents[1].Host != "c" {
		t.Errorf("after remove = %v", cfg.Recents)
	}
	cfg.RemoveRecent(5)
	cfg.RemoveRecent(-1)
	if len(cfg.Recents) != 2 {
		t.Errorf("out of range remove changed list: %v", cfg.Recents)
	}
}

func TestRecentLabel(t *testing.T) {
	r := Recent{Host: "example.com", User: "admin", BaseDir: "/srv"}
	if got := r.Label(); got != "admin@example.com:/srv" {
		t.Errorf("Label = %q", got)
	}
	r.User = ""
	if got := r.Label(); got != "example.com:/srv" {
		t.Errorf("Label without user = %q", got)
	}
}

// ---------------------------------------------------------------------------
// DefaultsFromEnv
// ---------------------------------------------------------------------------

func TestDefaultsFromEnv(t *testing.T) {
	t.Setenv(EnvHost, "10.0.0.5")
	t.Setenv(EnvUser, "sam")
	t.Setenv(EnvBaseDir, "/home/sam/work")
	t.Setenv(EnvRecents, "/tmp/r.json")

	d := DefaultsFromEnv()
	if d.Host != "10.0.0.5" || d.User != "sam" || d.BaseDir != "/home/sam/work" || d.RecentsPath != "/tmp/r.json" {
		t.Errorf("DefaultsFromEnv() = %+v", d)
	}
}

func TestDefaultsFromEnvFallbacks(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USER", "fallback")
	t.Setenv(EnvHost, "")
	t.Setenv(EnvUser, "")
	t.Setenv(EnvBaseDir, "")
	t.Setenv(EnvRecents, "")

	d := DefaultsFromEnv()
	if d.User != "fallback" {
		t.Errorf("User = %q, want fallback", d.User)
	}
	if d.RecentsPath != DefaultPath() {
		t.Errorf("RecentsPath = %q, want %q", d.RecentsPath, DefaultPath())
	}
}
