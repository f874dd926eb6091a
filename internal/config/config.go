// Package config provides configuration loading and structs for the mitsumori server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	ONNX      ONNXConfig      `yaml:"onnx"`
	Engine    EngineConfig    `yaml:"engine"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the prediction history database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RuntimeConfig locates the ONNX Runtime shared library. Empty uses the platform default.
type RuntimeConfig struct {
	LibraryPath string `yaml:"library_path"`
}

// ArtifactsConfig lists the pre-trained files. File names are relative to Dir unless absolute.
type ArtifactsConfig struct {
	Dir            string                  `yaml:"dir"`
	Format         string                  `yaml:"format"`
	Prediction     PredictionArtifacts     `yaml:"prediction"`
	Recommendation RecommendationArtifacts `yaml:"recommendation"`
}

// PredictionArtifacts are the files of the price model.
type PredictionArtifacts struct {
	Scaler   string `yaml:"scaler"`
	Model    string `yaml:"model"`
	Features string `yaml:"features"`
	Encoders string `yaml:"encoders"`
}

// RecommendationArtifacts are the files of the similarity engine.
type RecommendationArtifacts struct {
	Scaler   string `yaml:"scaler"`
	Features string `yaml:"features"`
	Encoders string `yaml:"encoders"`
	Houses   string `yaml:"houses"`
	Matrix   string `yaml:"matrix"`
}

// ONNXConfig names the graph tensors of exported scaler and model files.
type ONNXConfig struct {
	InputName  string `yaml:"input_name"`
	OutputName string `yaml:"output_name"`
}

// EngineConfig holds recommendation limits and the price cache size. A negative
// max_limit or price_cache_size turns that feature off.
type EngineConfig struct {
	DefaultLimit   int `yaml:"default_limit"`
	MaxLimit       int `yaml:"max_limit"`
	PriceCacheSize int `yaml:"price_cache_size"`
}

// Path resolves an artifact file name against Dir.
func (a *ArtifactsConfig) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Artifacts.Dir = expandPath(cfg.Artifacts.Dir, configDir)
	if cfg.Runtime.LibraryPath != "" {
		cfg.Runtime.LibraryPath = expandPath(cfg.Runtime.LibraryPath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
