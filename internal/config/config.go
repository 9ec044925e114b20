package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv  = "CATALOG_LOCALIZER_CONFIG"
	sitemapURLEnv  = "SITEMAP_URL"
	inputPathEnv   = "INPUT_CSV"
	outputPathEnv  = "OUTPUT_CSV"
	recursiveEnv   = "RECURSIVE"
	openAIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv = "OPENAI_MODEL"
	maxProductsEnv = "MAX_PRODUCTS"
	debugEnv       = "DEBUG"
	forceModeEnv   = "FORCE_MODE"
	metricsPortEnv = "METRICS_PORT"
	logLevelEnv    = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Sitemap    SitemapConfig    `yaml:"sitemap"`
	Files      FileConfig       `yaml:"files"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Run        RunConfig        `yaml:"run"`
	Heuristics HeuristicsConfig `yaml:"heuristics"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SitemapConfig points at the storefront sitemap to traverse.
type SitemapConfig struct {
	URL string `yaml:"url"`
	// Recursive is accepted for compatibility; index traversal already
	// follows product sub-sitemaps.
	Recursive bool `yaml:"recursive"`
}

// FileConfig names the input and output files of one run.
type FileConfig struct {
	InputPath     string `yaml:"inputPath"`
	OutputPath    string `yaml:"outputPath"`
	DebugPagePath string `yaml:"debugPagePath"`
}

// OpenAIConfig defines how to contact the localization model.
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// RunConfig carries per-run processing switches.
type RunConfig struct {
	MaxProducts int  `yaml:"maxProducts"`
	Debug       bool `yaml:"debug"`
	ForceMode   bool `yaml:"forceMode"`
}

// HeuristicsConfig tunes the text heuristics used during extraction and
// localization. Defaults match the storefront this tool was built for.
type HeuristicsConfig struct {
	Brand               string   `yaml:"brand"`
	IntentKeywords      []string `yaml:"intentKeywords"`
	ApplicationKeywords []string `yaml:"applicationKeywords"`
	PlierKeywords       []string `yaml:"plierKeywords"`
}

// MetricsConfig enables the Prometheus listener when a port is set.
type MetricsConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig selects the log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("config: loaded environment from .env")
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(sitemapURLEnv); v != "" {
		c.Sitemap.URL = v
	}
	if v := os.Getenv(recursiveEnv); v != "" {
		c.Sitemap.Recursive = parseBool(v)
	}

	if v := os.Getenv(inputPathEnv); v != "" {
		c.Files.InputPath = v
	}
	if v := os.Getenv(outputPathEnv); v != "" {
		c.Files.OutputPath = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(maxProductsEnv); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
			log.Printf("config: invalid %s value %q, keeping %d", maxProductsEnv, v, c.Run.MaxProducts)
		} else {
			c.Run.MaxProducts = n
		}
	}
	if v := os.Getenv(debugEnv); v != "" {
		c.Run.Debug = parseBool(v)
	}
	if v := os.Getenv(forceModeEnv); v != "" {
		c.Run.ForceMode = parseBool(v)
	}

	if v := os.Getenv(metricsPortEnv); v != "" {
		c.Metrics.Port = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if c.Run.Debug && os.Getenv(logLevelEnv) == "" {
		c.Logging.Level = "debug"
	}
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func mergeConfig(base, override Config) Config {
	if override.Sitemap.URL != "" {
		base.Sitemap.URL = override.Sitemap.URL
	}
	if override.Sitemap.Recursive {
		base.Sitemap.Recursive = true
	}

	if override.Files.InputPath != "" {
		base.Files.InputPath = override.Files.InputPath
	}
	if override.Files.OutputPath != "" {
		base.Files.OutputPath = override.Files.OutputPath
	}
	if override.Files.DebugPagePath != "" {
		base.Files.DebugPagePath = override.Files.DebugPagePath
	}

	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}

	if override.Run.MaxProducts > 0 {
		base.Run.MaxProducts = override.Run.MaxProducts
	}
	if override.Run.Debug {
		base.Run.Debug = true
	}
	if override.Run.ForceMode {
		base.Run.ForceMode = true
	}

	if override.Heuristics.Brand != "" {
		base.Heuristics.Brand = override.Heuristics.Brand
	}
	if len(override.Heuristics.IntentKeywords) > 0 {
		base.Heuristics.IntentKeywords = override.Heuristics.IntentKeywords
	}
	if len(override.Heuristics.ApplicationKeywords) > 0 {
		base.Heuristics.ApplicationKeywords = override.Heuristics.ApplicationKeywords
	}
	if len(override.Heuristics.PlierKeywords) > 0 {
		base.Heuristics.PlierKeywords = override.Heuristics.PlierKeywords
	}

	if override.Metrics.Port != "" {
		base.Metrics.Port = override.Metrics.Port
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Sitemap: SitemapConfig{URL: ""},
		Files: FileConfig{
			InputPath:     "codes.csv",
			OutputPath:    "products.csv",
			DebugPagePath: "debug_html.html",
		},
		OpenAI: OpenAIConfig{Model: "gpt-4o"},
		Run:    RunConfig{MaxProducts: 0},
		Heuristics: HeuristicsConfig{
			Brand:               "Wiha",
			IntentKeywords:      []string{"ideal for", "perfect for", "used for", "designed for", "suitable for", "applications"},
			ApplicationKeywords: []string{"application", "use", "usage", "suitable"},
			PlierKeywords:       []string{"plier", "pliers", "alicate", "pinza"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
