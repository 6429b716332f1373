package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/derekprior/courtsim/internal/config"
	"github.com/derekprior/courtsim/internal/validator"
)

func TestConfigTemplateMatchesDefault(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(configTemplate))
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	def := config.Default()

	if cfg.Facility.Courts != def.Facility.Courts {
		t.Errorf("courts = %d, want %d", cfg.Facility.Courts, def.Facility.Courts)
	}
	men, women := cfg.Facility.Headcount()
	wantMen, wantWomen := def.Facility.Headcount()
	if men != wantMen || women != wantWomen {
		t.Errorf("headcount = %d/%d, want %d/%d", men, women, wantMen, wantWomen)
	}
	if cfg.Facility.MatchDuration != def.Facility.MatchDuration {
		t.Errorf("match duration = %g, want %g", cfg.Facility.MatchDuration, def.Facility.MatchDuration)
	}
	if cfg.Run.Minutes != def.Run.Minutes {
		t.Errorf("minutes = %d, want %d", cfg.Run.Minutes, def.Run.Minutes)
	}
	if cfg.Strategy != def.Strategy {
		t.Errorf("strategy = %q, want %q", cfg.Strategy, def.Strategy)
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "courtsim.yaml")
	if err := runInit(path); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}
	if _, err := config.LoadFromFile(path); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
	if err := runInit(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestResolveConfigPath(t *testing.T) {
	if _, err := resolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing --config file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("strategy = \"wait_weighted\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := resolveConfigPath(path)
	if err != nil || got != path {
		t.Errorf("resolveConfigPath(%q) = %q, %v", path, got, err)
	}
}

func TestRunSimWritesValidReport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "courtsim.yaml")
	if err := os.WriteFile(cfgPath, []byte(configTemplate), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "report.xlsx")

	flags := simFlags{configFile: cfgPath, logLevel: "error", strict: true, minutes: 120}
	if err := runSim(t.Context(), flags, out); err != nil {
		t.Fatalf("runSim() error: %v", err)
	}

	violations, err := validator.Validate(out)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		if v.Type == "error" {
			t.Errorf("hard violation: %s", v.Message)
		}
	}
}

func TestRunServeStopsAfterMinutes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "courtsim.yaml")
	if err := os.WriteFile(cfgPath, []byte(configTemplate), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("run length elapses", func(t *testing.T) {
		flags := simFlags{configFile: cfgPath, logLevel: "error", minutes: 3}
		done := make(chan error, 1)
		go func() {
			done <- runServe(t.Context(), flags, serveFlags{addr: "127.0.0.1:0", interval: time.Millisecond})
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("runServe() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("runServe() still running after its minutes elapsed")
		}
	})

	t.Run("canceled before the run ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		flags := simFlags{configFile: cfgPath, logLevel: "error", minutes: 100000}
		done := make(chan error, 1)
		go func() {
			done <- runServe(ctx, flags, serveFlags{addr: "127.0.0.1:0", interval: time.Second})
		}()
		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("runServe() error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("runServe() ignored cancellation")
		}
	})
}
