package seed

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "kingsroad.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.Fixture != "fixtures/demo.yaml" {
		t.Fatalf("expected default fixture path, got %q", cfg.Fixture)
	}
}

func TestParseConfigReadsEnv(t *testing.T) {
	t.Setenv("KINGSROAD_DB_PATH", "/tmp/env.db")
	t.Setenv("KINGSROAD_FIXTURE", "/tmp/env.yaml")

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.Fixture != "/tmp/env.yaml" {
		t.Fatalf("expected env fixture path, got %q", cfg.Fixture)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("KINGSROAD_FIXTURE", "/tmp/env.yaml")

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-fixture", "/tmp/flag.yaml"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Fixture != "/tmp/flag.yaml" {
		t.Fatalf("expected flag fixture path, got %q", cfg.Fixture)
	}
}
