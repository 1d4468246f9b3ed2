package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/airsight-labs/airsight/internal/domain"
)

// defaultFallbackRoots is the fixed ordered list of conventional archive
// locations probed when no explicit root override is set, or when the
// override stops answering.
var defaultFallbackRoots = []string{
	"https://archive.airsight.dev/data",
	"https://archive.airsight.dev/dataset",
	"http://localhost:9000/data",
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Archive access.
	ArchiveRoot       string // explicit override; probed first when set
	FallbackRoots     []string
	ArchiveFilePrefix string
	FetchTimeout      time.Duration

	// Query bounds and rendering caps.
	EarliestDate     string // YYYYMMDD lower bound of the queryable range
	MaxSpatialPoints int
	MaxSeriesPoints  int

	// Optional YAML file extending the field resolver's alias table.
	VariablesFile   string
	VariableAliases map[string][]string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ArchiveRoot:       os.Getenv("ARCHIVE_ROOT"),
		FallbackRoots:     parseRoots(os.Getenv("ARCHIVE_FALLBACK_ROOTS")),
		ArchiveFilePrefix: envOrDefault("ARCHIVE_FILE_PREFIX", "china_sites"),
		FetchTimeout:      fetchTimeout,

		EarliestDate:     envOrDefault("EARLIEST_DATE", "20130101"),
		MaxSpatialPoints: parsePositiveInt("MAX_SPATIAL_POINTS", 600),
		MaxSeriesPoints:  parsePositiveInt("MAX_SERIES_POINTS", 2000),

		VariablesFile: os.Getenv("VARIABLES_FILE"),
	}

	if len(cfg.FallbackRoots) == 0 {
		cfg.FallbackRoots = defaultFallbackRoots
	}
	if _, err := domain.ParseDate(cfg.EarliestDate); err != nil {
		return nil, errors.New("EARLIEST_DATE must be a valid YYYYMMDD calendar date")
	}

	if cfg.VariablesFile != "" {
		aliases, err := loadAliases(cfg.VariablesFile)
		if err != nil {
			return nil, err
		}
		cfg.VariableAliases = aliases
	}

	return cfg, nil
}

// CandidateRoots returns the ordered probe list: the explicit override first
// when set, then the fixed fallbacks.
func (c *Config) CandidateRoots() []string {
	if c.ArchiveRoot == "" {
		return c.FallbackRoots
	}
	roots := make([]string, 0, len(c.FallbackRoots)+1)
	roots = append(roots, c.ArchiveRoot)
	for _, r := range c.FallbackRoots {
		if r != c.ArchiveRoot {
			roots = append(roots, r)
		}
	}
	return roots
}

// DefaultRoot is the root used before any probe succeeds.
func (c *Config) DefaultRoot() string {
	if c.ArchiveRoot != "" {
		return c.ArchiveRoot
	}
	return c.FallbackRoots[0]
}

// variablesFile is the on-disk shape of the optional alias table:
//
//	aliases:
//	  PM2.5: ["PM25", "pm2_5"]
type variablesFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

func loadAliases(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variables file: %w", err)
	}
	var vf variablesFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse variables file: %w", err)
	}
	return vf.Aliases, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseRoots(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	roots := make([]string, 0, len(parts))
	for _, p := range parts {
		if r := strings.TrimSpace(p); r != "" {
			roots = append(roots, r)
		}
	}
	return roots
}
