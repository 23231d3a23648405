package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical clustering defaults file.
const DefaultConfigPath = "config/clustering.defaults.json"

// ClusteringConfig holds every tunable of the per-video clustering pass and
// the batch runner. It is loaded once and passed by value into each
// component; nothing reads it from shared package state.
//
// Fields are pointers so that a partial JSON file only overrides what it
// names; the Get* methods supply defaults for the rest.
type ClusteringConfig struct {
	// Ridge escalation policy for the spectral embedding
	InitialRidge  *float64 `json:"initial_ridge,omitempty"`
	RidgeFactor   *float64 `json:"ridge_factor,omitempty"`
	MaxRidge      *float64 `json:"max_ridge,omitempty"`
	TriesPerRidge *int     `json:"tries_per_ridge,omitempty"`

	// Grid-stratified subsampling
	GridNX              *int     `json:"grid_nx,omitempty"`
	GridNY              *int     `json:"grid_ny,omitempty"`
	SamplingProbability *float64 `json:"sampling_probability,omitempty"`
	MinInSample         *int     `json:"min_insample,omitempty"`

	// Embedding and recursive bipartition
	EmbeddingDims *int `json:"embedding_dims,omitempty"`
	MinLeafSize   *int `json:"min_leaf_size,omitempty"`
	MaxDepth      *int `json:"max_depth,omitempty"`

	// Batch execution
	Workers *int   `json:"workers,omitempty"`
	Seed    *int64 `json:"seed,omitempty"` // unset: time-seeded, not reproducible
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyClusteringConfig returns a ClusteringConfig with all fields set to nil.
func EmptyClusteringConfig() *ClusteringConfig {
	return &ClusteringConfig{}
}

// DefaultClusteringConfig returns a config with every field set to its
// default value. It matches config/clustering.defaults.json.
func DefaultClusteringConfig() *ClusteringConfig {
	c := EmptyClusteringConfig()
	c.InitialRidge = ptrFloat64(c.GetInitialRidge())
	c.RidgeFactor = ptrFloat64(c.GetRidgeFactor())
	c.MaxRidge = ptrFloat64(c.GetMaxRidge())
	c.TriesPerRidge = ptrInt(c.GetTriesPerRidge())
	c.GridNX = ptrInt(c.GetGridNX())
	c.GridNY = ptrInt(c.GetGridNY())
	c.SamplingProbability = ptrFloat64(c.GetSamplingProbability())
	c.MinInSample = ptrInt(c.GetMinInSample())
	c.EmbeddingDims = ptrInt(c.GetEmbeddingDims())
	c.MinLeafSize = ptrInt(c.GetMinLeafSize())
	c.MaxDepth = ptrInt(c.GetMaxDepth())
	c.Workers = ptrInt(c.GetWorkers())
	return c
}

// LoadClusteringConfig loads a ClusteringConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults.
func LoadClusteringConfig(path string) (*ClusteringConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyClusteringConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for test setup.
func MustLoadDefaultConfig() *ClusteringConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/<tool>/
	}
	for _, path := range candidates {
		if cfg, err := LoadClusteringConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// ToJSON serialises the config for the run registry.
func (c *ClusteringConfig) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// Validate checks that the configuration values are valid.
func (c *ClusteringConfig) Validate() error {
	if c.InitialRidge != nil && (*c.InitialRidge < 0 || math.IsNaN(*c.InitialRidge)) {
		return fmt.Errorf("initial_ridge must be non-negative, got %g", *c.InitialRidge)
	}
	if c.RidgeFactor != nil && *c.RidgeFactor <= 1 {
		return fmt.Errorf("ridge_factor must be greater than 1, got %g", *c.RidgeFactor)
	}
	if c.MaxRidge != nil && *c.MaxRidge < c.GetInitialRidge() {
		return fmt.Errorf("max_ridge (%g) must be >= initial_ridge (%g)", *c.MaxRidge, c.GetInitialRidge())
	}
	if c.TriesPerRidge != nil && *c.TriesPerRidge < 1 {
		return fmt.Errorf("tries_per_ridge must be at least 1, got %d", *c.TriesPerRidge)
	}
	if c.GridNX != nil && *c.GridNX < 1 {
		return fmt.Errorf("grid_nx must be at least 1, got %d", *c.GridNX)
	}
	if c.GridNY != nil && *c.GridNY < 1 {
		return fmt.Errorf("grid_ny must be at least 1, got %d", *c.GridNY)
	}
	if c.SamplingProbability != nil && (*c.SamplingProbability <= 0 || math.IsNaN(*c.SamplingProbability)) {
		return fmt.Errorf("sampling_probability must be positive, got %g", *c.SamplingProbability)
	}
	if c.MinInSample != nil && *c.MinInSample < 1 {
		return fmt.Errorf("min_insample must be at least 1, got %d", *c.MinInSample)
	}
	if c.EmbeddingDims != nil && *c.EmbeddingDims < 1 {
		return fmt.Errorf("embedding_dims must be at least 1, got %d", *c.EmbeddingDims)
	}
	if c.MinLeafSize != nil && *c.MinLeafSize < 1 {
		return fmt.Errorf("min_leaf_size must be at least 1, got %d", *c.MinLeafSize)
	}
	if c.MaxDepth != nil && (*c.MaxDepth < 0 || *c.MaxDepth > 60) {
		return fmt.Errorf("max_depth must be between 0 and 60, got %d", *c.MaxDepth)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetInitialRidge returns the initial_ridge value or the default.
func (c *ClusteringConfig) GetInitialRidge() float64 {
	if c.InitialRidge == nil {
		return 1e-10
	}
	return *c.InitialRidge
}

// GetRidgeFactor returns the ridge_factor value or the default.
func (c *ClusteringConfig) GetRidgeFactor() float64 {
	if c.RidgeFactor == nil {
		return 10
	}
	return *c.RidgeFactor
}

// GetMaxRidge returns the max_ridge value or the default.
func (c *ClusteringConfig) GetMaxRidge() float64 {
	if c.MaxRidge == nil {
		return 1e-6
	}
	return *c.MaxRidge
}

// GetTriesPerRidge returns the tries_per_ridge value or the default.
func (c *ClusteringConfig) GetTriesPerRidge() int {
	if c.TriesPerRidge == nil {
		return 1
	}
	return *c.TriesPerRidge
}

// GetGridNX returns the grid_nx value or the default.
func (c *ClusteringConfig) GetGridNX() int {
	if c.GridNX == nil {
		return 3
	}
	return *c.GridNX
}

// GetGridNY returns the grid_ny value or the default.
func (c *ClusteringConfig) GetGridNY() int {
	if c.GridNY == nil {
		return 3
	}
	return *c.GridNY
}

// GetSamplingProbability returns the sampling_probability value or the default.
func (c *ClusteringConfig) GetSamplingProbability() float64 {
	if c.SamplingProbability == nil {
		return 0.01
	}
	return *c.SamplingProbability
}

// GetMinInSample returns the min_insample value or the default.
func (c *ClusteringConfig) GetMinInSample() int {
	if c.MinInSample == nil {
		return 3
	}
	return *c.MinInSample
}

// GetEmbeddingDims returns the embedding_dims value or the default.
func (c *ClusteringConfig) GetEmbeddingDims() int {
	if c.EmbeddingDims == nil {
		return 8
	}
	return *c.EmbeddingDims
}

// GetMinLeafSize returns the min_leaf_size value or the default.
func (c *ClusteringConfig) GetMinLeafSize() int {
	if c.MinLeafSize == nil {
		return 10
	}
	return *c.MinLeafSize
}

// GetMaxDepth returns the max_depth value or the default.
func (c *ClusteringConfig) GetMaxDepth() int {
	if c.MaxDepth == nil {
		return 6
	}
	return *c.MaxDepth
}

// GetWorkers returns the workers value or the default.
func (c *ClusteringConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetSeed returns the seed and whether one was configured.
func (c *ClusteringConfig) GetSeed() (int64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}

// WithSeed returns a copy of c with the seed set.
func (c *ClusteringConfig) WithSeed(seed int64) *ClusteringConfig {
	cp := *c
	cp.Seed = ptrInt64(seed)
	return &cp
}
