package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_PassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestPresets_AllValidate(t *testing.T) {
	for name, cfg := range map[string]Config{
		"minimal":      Minimal(),
		"conservative": Conservative(),
		"default":      Default(),
		"aggressive":   Aggressive(),
	} {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s preset failed to validate: %v", name, err)
		}
	}
}

func TestValidate_RejectsZeroBudgets(t *testing.T) {
	cfg := Default()
	cfg.MaxPlanEnumerations = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max_plan_enumerations")
	}
}

func TestLoad_OverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	contents := "complexity_threshold: 42\nmax_plan_enumerations: 99\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ComplexityThreshold != 42 {
		t.Fatalf("expected overridden complexity_threshold 42, got %v", cfg.ComplexityThreshold)
	}
	if cfg.MaxPlanEnumerations != 99 {
		t.Fatalf("expected overridden max_plan_enumerations 99, got %v", cfg.MaxPlanEnumerations)
	}
	if !cfg.EnableIndexUnion {
		t.Fatal("expected unspecified fields to keep Default's value")
	}
}
