package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultClusteringConfig(t *testing.T) {
	cfg := DefaultClusteringConfig()

	if cfg.InitialRidge == nil || *cfg.InitialRidge != 1e-10 {
		t.Errorf("Expected InitialRidge 1e-10, got %v", cfg.InitialRidge)
	}
	if cfg.GridNX == nil || *cfg.GridNX != 3 {
		t.Errorf("Expected GridNX 3, got %v", cfg.GridNX)
	}
	if cfg.SamplingProbability == nil || *cfg.SamplingProbability != 0.01 {
		t.Errorf("Expected SamplingProbability 0.01, got %v", cfg.SamplingProbability)
	}
	if _, ok := cfg.GetSeed(); ok {
		t.Error("Expected no seed by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultsFileMatchesDefaultClusteringConfig(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	want, _ := DefaultClusteringConfig().ToJSON()
	got, _ := fromFile.ToJSON()
	if string(got) != string(want) {
		t.Errorf("defaults file drifted from DefaultClusteringConfig:\n got: %s\nwant: %s", got, want)
	}
}

func TestLoadClusteringConfig_Partial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	testJSON := `{
  "initial_ridge": 1e-8,
  "tries_per_ridge": 2,
  "grid_nx": 4,
  "seed": 42
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadClusteringConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetInitialRidge() != 1e-8 {
		t.Errorf("GetInitialRidge() = %g, want 1e-8", cfg.GetInitialRidge())
	}
	if cfg.GetTriesPerRidge() != 2 {
		t.Errorf("GetTriesPerRidge() = %d, want 2", cfg.GetTriesPerRidge())
	}
	if cfg.GetGridNX() != 4 || cfg.GetGridNY() != 3 {
		t.Errorf("grid = %dx%d, want 4x3", cfg.GetGridNX(), cfg.GetGridNY())
	}
	if seed, ok := cfg.GetSeed(); !ok || seed != 42 {
		t.Errorf("GetSeed() = %d,%v, want 42,true", seed, ok)
	}
	// Untouched fields keep defaults
	if cfg.GetMaxRidge() != 1e-6 {
		t.Errorf("GetMaxRidge() = %g, want 1e-6", cfg.GetMaxRidge())
	}
}

func TestLoadClusteringConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	badExt := filepath.Join(tmpDir, "config.yaml")
	_ = os.WriteFile(badExt, []byte("{}"), 0644)
	if _, err := LoadClusteringConfig(badExt); err == nil {
		t.Error("expected error for non-.json extension")
	}

	if _, err := LoadClusteringConfig("/nonexistent/path/to/config.json"); err == nil {
		t.Error("expected error when loading missing file")
	}

	invalid := filepath.Join(tmpDir, "invalid.json")
	_ = os.WriteFile(invalid, []byte(`{"grid_nx": "three"`), 0644)
	if _, err := LoadClusteringConfig(invalid); err == nil {
		t.Error("expected error when loading invalid JSON")
	}

	outOfRange := filepath.Join(tmpDir, "range.json")
	_ = os.WriteFile(outOfRange, []byte(`{"ridge_factor": 0.5}`), 0644)
	if _, err := LoadClusteringConfig(outOfRange); err == nil {
		t.Error("expected validation error for ridge_factor <= 1")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *ClusteringConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultClusteringConfig()},
		{name: "empty config is valid", cfg: &ClusteringConfig{}},
		{name: "negative ridge", cfg: &ClusteringConfig{InitialRidge: ptrFloat64(-1)}, wantErr: true},
		{name: "max below initial", cfg: &ClusteringConfig{InitialRidge: ptrFloat64(1e-4), MaxRidge: ptrFloat64(1e-6)}, wantErr: true},
		{name: "zero tries", cfg: &ClusteringConfig{TriesPerRidge: ptrInt(0)}, wantErr: true},
		{name: "zero grid", cfg: &ClusteringConfig{GridNY: ptrInt(0)}, wantErr: true},
		{name: "zero probability", cfg: &ClusteringConfig{SamplingProbability: ptrFloat64(0)}, wantErr: true},
		{name: "probability above one is allowed", cfg: &ClusteringConfig{SamplingProbability: ptrFloat64(5)}},
		{name: "too deep", cfg: &ClusteringConfig{MaxDepth: ptrInt(61)}, wantErr: true},
		{name: "zero workers", cfg: &ClusteringConfig{Workers: ptrInt(0)}, wantErr: true},
		{name: "zero leaf size", cfg: &ClusteringConfig{MinLeafSize: ptrInt(0)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithSeedDoesNotMutate(t *testing.T) {
	base := DefaultClusteringConfig()
	seeded := base.WithSeed(7)

	if _, ok := base.GetSeed(); ok {
		t.Error("WithSeed mutated the receiver")
	}
	if seed, ok := seeded.GetSeed(); !ok || seed != 7 {
		t.Errorf("seeded.GetSeed() = %d,%v", seed, ok)
	}
}

func TestToJSONOmitsUnset(t *testing.T) {
	data, err := EmptyClusteringConfig().ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty object, got %s", data)
	}
}
