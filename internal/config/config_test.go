package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.APIBase != "https://api.github.com" {
		t.Errorf("APIBase = %q, want default", cfg.Remote.APIBase)
	}
	if cfg.Remote.Branch != "main" {
		t.Errorf("Branch = %q, want %q", cfg.Remote.Branch, "main")
	}
	if cfg.Daemon.DebounceMS != 250 {
		t.Errorf("DebounceMS = %d, want 250", cfg.Daemon.DebounceMS)
	}
	if cfg.RemoteConfigured() {
		t.Error("RemoteConfigured() = true with no owner/repo")
	}
}

func TestLoad_ReadsFileAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	content := strings.Join([]string{
		"data_dir: /srv/tally",
		"remote:",
		"  owner: acme",
		"  repo: books",
		"dashboard:",
		"  port: 9000",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/srv/tally" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/srv/tally")
	}
	if cfg.Remote.Owner != "acme" || cfg.Remote.Repo != "books" {
		t.Errorf("remote = %+v, want owner=acme repo=books", cfg.Remote)
	}
	if !cfg.RemoteConfigured() {
		t.Error("RemoteConfigured() = false with owner and repo set")
	}
	if cfg.Dashboard.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Dashboard.Port)
	}
	// Unset keys still resolve to defaults.
	if cfg.Remote.Branch != "main" {
		t.Errorf("Branch = %q, want default %q", cfg.Remote.Branch, "main")
	}
	if cfg.Remote.PathPrefix != "data" {
		t.Errorf("PathPrefix = %q, want default %q", cfg.Remote.PathPrefix, "data")
	}
}

func TestLoad_EnvTokenOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	content := "remote:\n  token: from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TALLY_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.Token != "from-env" {
		t.Errorf("Token = %q, want %q", cfg.Remote.Token, "from-env")
	}
}

func TestWriteStarter_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "tally.yaml")

	if err := WriteStarter(path); err != nil {
		t.Fatalf("WriteStarter() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Remote.Branch != "main" {
		t.Errorf("Branch = %q, want %q", cfg.Remote.Branch, "main")
	}

	if err := WriteStarter(path); err == nil {
		t.Error("WriteStarter() on existing file succeeded, want error")
	}
}
