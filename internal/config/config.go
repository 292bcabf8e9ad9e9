package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Database   DatabaseConfig
	Legacy     LegacyConfig
	Extractor  ExtractorConfig
	Matching   MatchingConfig
	Attendance AttendanceConfig
	API        APIConfig
	Models     ModelsConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type LegacyConfig struct {
	DatabaseURL string // MySQL DSN of the old attendance system, used by the import command
}

type ExtractorConfig struct {
	URL   string // defaults to http://localhost:8000
	Model string // defaults to Facenet512
}

type MatchingConfig struct {
	DistanceThreshold   float64 // maximum cosine distance for a candidate (default 0.40)
	ConfidenceThreshold float64 // minimum confidence of the best candidate (default 0.70)
	AmbiguityMargin     float64 // minimum best-to-second confidence gap (default 0.10)
	MaxCandidates       int     // ranked candidate list cap (default 5)
}

type AttendanceConfig struct {
	CheckoutMode string // "reentrant" (default) or "strict"
}

type APIConfig struct {
	Token         string // bearer token required by the API; empty disables the check
	MaxUploadSize int    // maximum capture upload in bytes (default 10 MiB)
}

type ModelsConfig struct {
	Models map[string]ModelProfile `yaml:"models"`
}

// ModelProfile carries the calibration of one embedding model.
type ModelProfile struct {
	Dim               int     `yaml:"dim"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a non-negative
// float. Returns the default value if the env var is unset, empty, or
// invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Legacy: LegacyConfig{
			DatabaseURL: os.Getenv("LEGACY_DATABASE_URL"),
		},
		Extractor: ExtractorConfig{
			URL:   os.Getenv("EXTRACTOR_URL"),
			Model: os.Getenv("EXTRACTOR_MODEL"),
		},
		Matching: MatchingConfig{
			DistanceThreshold:   envFloat("FACE_DISTANCE_THRESHOLD", 0.40),
			ConfidenceThreshold: envFloat("FACE_CONFIDENCE_THRESHOLD", 0.70),
			AmbiguityMargin:     envFloat("AMBIGUITY_MARGIN", 0.10),
			MaxCandidates:       envInt("MAX_FACE_MATCHES", 5),
		},
		Attendance: AttendanceConfig{
			CheckoutMode: os.Getenv("CHECKOUT_MODE"),
		},
		API: APIConfig{
			Token:         os.Getenv("API_TOKEN"),
			MaxUploadSize: envInt("MAX_UPLOAD_SIZE", 10<<20),
		},
		Models: models,
	}
}

// ModelProfile returns the calibration for a specific embedding model. The
// zero profile is returned for unknown models; callers fall back to the
// configured thresholds.
func (c *Config) ModelProfile(modelID string) ModelProfile {
	if profile, ok := c.Models.Models[modelID]; ok {
		return profile
	}
	return ModelProfile{}
}
