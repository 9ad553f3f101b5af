package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Device selects the compute backend the model runtime probes for.
type Device string

const (
	DeviceAuto  Device = "Auto"
	DeviceCpu   Device = "Cpu"
	DeviceMetal Device = "Metal"
	DeviceCuda  Device = "Cuda"
)

// EmbeddingModel identifies the embedding model bound to the vector store.
// Its Dimensions value is recorded alongside the vector index at open time;
// changing Id or Dimensions without a reindex trips ModelMismatch.
type EmbeddingModel struct {
	ID         string `toml:"id" json:"id"`
	RepoID     string `toml:"repo_id" json:"repo_id"`
	Dimensions int    `toml:"dimensions" json:"dimensions"`
	SizeMB     int    `toml:"size_mb" json:"size_mb"`
}

// RerankerModel identifies the cross-encoder used for the final ranking stage.
type RerankerModel struct {
	ID     string `toml:"id" json:"id"`
	RepoID string `toml:"repo_id" json:"repo_id"`
	SizeMB int    `toml:"size_mb" json:"size_mb"`
}

// SearchConfig configures hybrid search fusion parameters.
type SearchConfig struct {
	// DenseWeight (alpha) weighs the normalized dense score in the convex
	// fusion. DenseWeight + LexicalWeight should equal 1.0.
	DenseWeight float64 `toml:"dense_weight" json:"dense_weight"`
	// LexicalWeight (beta) weighs the normalized lexical score.
	LexicalWeight float64 `toml:"lexical_weight" json:"lexical_weight"`
	// CandidateMultiplier is loaded from config.toml but not read by the
	// search pipeline, which fetches a fixed KDense/KLex (50) candidates
	// from each store before fusion.
	CandidateMultiplier int `toml:"candidate_multiplier" json:"candidate_multiplier"`
	// RerankEnabled toggles the cross-encoder rerank stage. When Ollama is
	// unreachable the reranker is the static lexical-overlap scorer; if a
	// rerank call fails, search keeps fused order.
	RerankEnabled bool `toml:"rerank_enabled" json:"rerank_enabled"`
}

// ChunkConfig configures chunking bounds shared across MIME-specific chunkers.
type ChunkConfig struct {
	MaxChars     int `toml:"max_chars" json:"max_chars"`
	OverlapChars int `toml:"overlap_chars" json:"overlap_chars"`
}

// IngestConfig holds the ingest write-batching settings. They are loaded
// from config.toml but not passed to the vector store, which flushes at its
// own DefaultFlushBatchSize (256 chunks) or DefaultFlushIdle (5s).
type IngestConfig struct {
	// BatchSize is the configured chunk count per vector-store flush.
	BatchSize int `toml:"batch_size" json:"batch_size"`
	// FlushIntervalMS is the configured idle flush interval, in milliseconds.
	FlushIntervalMS int `toml:"flush_interval_ms" json:"flush_interval_ms"`
}

// JobConfig configures the async job registry.
type JobConfig struct {
	// RetentionSeconds is how long a terminal job stays queryable before
	// the reaper evicts it.
	RetentionSeconds int `toml:"retention_seconds" json:"retention_seconds"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port     int    `toml:"port" json:"port"`
	LogLevel string `toml:"log_level" json:"log_level"`
}

// Config is the complete eywa configuration, loaded from config.toml at
// the content root (spec.md §6).
type Config struct {
	ContentRoot    string         `toml:"content_root" json:"content_root"`
	Device         Device         `toml:"device" json:"device"`
	EmbeddingModel EmbeddingModel `toml:"embedding_model" json:"embedding_model"`
	RerankerModel  RerankerModel  `toml:"reranker_model" json:"reranker_model"`
	Search         SearchConfig   `toml:"search" json:"search"`
	Chunk          ChunkConfig    `toml:"chunk" json:"chunk"`
	Ingest         IngestConfig   `toml:"ingest" json:"ingest"`
	Jobs           JobConfig      `toml:"jobs" json:"jobs"`
	Server         ServerConfig   `toml:"server" json:"server"`
}

// FileName is the settings file name at the content root.
const FileName = "config.toml"

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		ContentRoot: DefaultRoot(),
		Device:      DeviceAuto,
		EmbeddingModel: EmbeddingModel{
			ID:         "nomic-embed-text",
			RepoID:     "nomic-ai/nomic-embed-text-v1.5",
			Dimensions: 768,
			SizeMB:     274,
		},
		RerankerModel: RerankerModel{
			ID:     "bge-reranker-base",
			RepoID: "BAAI/bge-reranker-base",
			SizeMB: 278,
		},
		Search: SearchConfig{
			DenseWeight:         0.8,
			LexicalWeight:       0.2,
			CandidateMultiplier: 4,
			RerankEnabled:       true,
		},
		Chunk: ChunkConfig{
			MaxChars:     1000,
			OverlapChars: 200,
		},
		Ingest: IngestConfig{
			BatchSize:       256,
			FlushIntervalMS: 5000,
		},
		Jobs: JobConfig{
			RetentionSeconds: 3600,
		},
		Server: ServerConfig{
			Port:     8765,
			LogLevel: "info",
		},
	}
}

// DefaultRoot returns ~/.eywa, falling back to a temp directory if the
// home directory cannot be resolved.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".eywa")
	}
	return filepath.Join(home, ".eywa")
}

// ContentDBPath returns the path to the SQLite content database.
func (c *Config) ContentDBPath() string {
	return filepath.Join(c.ContentRoot, "data", "content.db")
}

// VectorDir returns the path to the vector store directory.
func (c *Config) VectorDir() string {
	return filepath.Join(c.ContentRoot, "data", "vectors")
}

// LexicalDir returns the path to the lexical store directory.
func (c *Config) LexicalDir() string {
	return filepath.Join(c.ContentRoot, "data", "lexical")
}

// ModelsDir returns the path to the cached model weights directory.
func (c *Config) ModelsDir() string {
	return filepath.Join(c.ContentRoot, "models")
}

// ConfigPath returns the path to the settings file under root.
func ConfigPath(root string) string {
	return filepath.Join(root, FileName)
}

// Load loads configuration rooted at root, applying in order of increasing
// precedence:
//  1. hardcoded defaults
//  2. config.toml at root (if present)
//  3. EYWA_* environment variable overrides
func Load(root string) (*Config, error) {
	cfg := NewConfig()
	cfg.ContentRoot = root

	if err := cfg.loadFromFile(root); err != nil {
		return nil, err
	}
	cfg.ContentRoot = root // the settings file never overrides its own root

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(root string) error {
	path := ConfigPath(root)
	if !fileExists(path) {
		return nil
	}
	return c.loadTOML(path)
}

func (c *Config) loadTOML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.ContentRoot != "" {
		c.ContentRoot = other.ContentRoot
	}
	if other.Device != "" {
		c.Device = other.Device
	}

	if other.EmbeddingModel.ID != "" {
		c.EmbeddingModel.ID = other.EmbeddingModel.ID
	}
	if other.EmbeddingModel.RepoID != "" {
		c.EmbeddingModel.RepoID = other.EmbeddingModel.RepoID
	}
	if other.EmbeddingModel.Dimensions != 0 {
		c.EmbeddingModel.Dimensions = other.EmbeddingModel.Dimensions
	}
	if other.EmbeddingModel.SizeMB != 0 {
		c.EmbeddingModel.SizeMB = other.EmbeddingModel.SizeMB
	}

	if other.RerankerModel.ID != "" {
		c.RerankerModel.ID = other.RerankerModel.ID
	}
	if other.RerankerModel.RepoID != "" {
		c.RerankerModel.RepoID = other.RerankerModel.RepoID
	}
	if other.RerankerModel.SizeMB != 0 {
		c.RerankerModel.SizeMB = other.RerankerModel.SizeMB
	}

	if other.Search.DenseWeight != 0 {
		c.Search.DenseWeight = other.Search.DenseWeight
	}
	if other.Search.LexicalWeight != 0 {
		c.Search.LexicalWeight = other.Search.LexicalWeight
	}
	if other.Search.CandidateMultiplier != 0 {
		c.Search.CandidateMultiplier = other.Search.CandidateMultiplier
	}

	if other.Chunk.MaxChars != 0 {
		c.Chunk.MaxChars = other.Chunk.MaxChars
	}
	if other.Chunk.OverlapChars != 0 {
		c.Chunk.OverlapChars = other.Chunk.OverlapChars
	}

	if other.Ingest.BatchSize != 0 {
		c.Ingest.BatchSize = other.Ingest.BatchSize
	}
	if other.Ingest.FlushIntervalMS != 0 {
		c.Ingest.FlushIntervalMS = other.Ingest.FlushIntervalMS
	}

	if other.Jobs.RetentionSeconds != 0 {
		c.Jobs.RetentionSeconds = other.Jobs.RetentionSeconds
	}

	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies EYWA_* environment variable overrides, the
// highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EYWA_CONTENT_ROOT"); v != "" {
		c.ContentRoot = v
	}
	if v := os.Getenv("EYWA_DEVICE"); v != "" {
		c.Device = Device(v)
	}
	if v := os.Getenv("EYWA_EMBEDDING_MODEL"); v != "" {
		c.EmbeddingModel.ID = v
	}
	if v := os.Getenv("EYWA_RERANKER_MODEL"); v != "" {
		c.RerankerModel.ID = v
	}
	if v := os.Getenv("EYWA_DENSE_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.DenseWeight = w
		}
	}
	if v := os.Getenv("EYWA_LEXICAL_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.LexicalWeight = w
		}
	}
	if v := os.Getenv("EYWA_RERANK_ENABLED"); v != "" {
		c.Search.RerankEnabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("EYWA_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("EYWA_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
}

func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.ContentRoot == "" {
		return fmt.Errorf("content_root must not be empty")
	}

	switch c.Device {
	case DeviceAuto, DeviceCpu, DeviceMetal, DeviceCuda:
	default:
		return fmt.Errorf("device must be one of Auto, Cpu, Metal, Cuda, got %s", c.Device)
	}

	if c.EmbeddingModel.Dimensions <= 0 {
		return fmt.Errorf("embedding_model.dimensions must be positive, got %d", c.EmbeddingModel.Dimensions)
	}

	if c.Search.DenseWeight < 0 || c.Search.DenseWeight > 1 {
		return fmt.Errorf("search.dense_weight must be between 0 and 1, got %f", c.Search.DenseWeight)
	}
	if c.Search.LexicalWeight < 0 || c.Search.LexicalWeight > 1 {
		return fmt.Errorf("search.lexical_weight must be between 0 and 1, got %f", c.Search.LexicalWeight)
	}
	sum := c.Search.DenseWeight + c.Search.LexicalWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("search.dense_weight + search.lexical_weight must equal 1.0, got %.2f", sum)
	}

	if c.Chunk.MaxChars <= 0 {
		return fmt.Errorf("chunk.max_chars must be positive, got %d", c.Chunk.MaxChars)
	}
	if c.Chunk.OverlapChars < 0 || c.Chunk.OverlapChars >= c.Chunk.MaxChars {
		return fmt.Errorf("chunk.overlap_chars must be non-negative and less than max_chars, got %d", c.Chunk.OverlapChars)
	}

	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be positive, got %d", c.Ingest.BatchSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteTOML writes the configuration to path as config.toml.
func (c *Config) WriteTOML(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// EnsureLayout creates the directory layout under ContentRoot
// (data/, data/vectors/, data/lexical/, models/) if missing.
func (c *Config) EnsureLayout() error {
	dirs := []string{
		filepath.Join(c.ContentRoot, "data"),
		c.VectorDir(),
		c.LexicalDir(),
		c.ModelsDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
