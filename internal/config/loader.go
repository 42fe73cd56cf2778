package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "orderlens"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "ORDERLENS"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader. It uses the global
// viper instance so that cobra flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration from files, environment variables, and
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/orderlens")

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "orderlens"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "orderlens"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("pipeline.recognizer.language", defaults.Pipeline.Recognizer.Language)
	l.v.SetDefault("pipeline.recognizer.min_height", defaults.Pipeline.Recognizer.MinHeight)
	l.v.SetDefault("pipeline.candidates.aggressive", defaults.Pipeline.Candidates.Aggressive)
	l.v.SetDefault("pipeline.candidates.deskew", defaults.Pipeline.Candidates.Deskew)
	l.v.SetDefault("pipeline.candidates.min_region", defaults.Pipeline.Candidates.MinRegion)
	l.v.SetDefault("pipeline.confidence_threshold", defaults.Pipeline.ConfidenceThreshold)
	l.v.SetDefault("pipeline.review_threshold", defaults.Pipeline.ReviewThreshold)
	l.v.SetDefault("pipeline.total_tolerance", defaults.Pipeline.TotalTolerance)
	l.v.SetDefault("pipeline.raw_text_limit", defaults.Pipeline.RawTextLimit)

	l.v.SetDefault("ai.mode", defaults.AI.Mode)
	l.v.SetDefault("ai.provider", defaults.AI.Provider)
	l.v.SetDefault("ai.max_attempts", defaults.AI.MaxAttempts)
	l.v.SetDefault("ai.initial_backoff_ms", defaults.AI.InitialBackoffMS)
	l.v.SetDefault("ai.call_timeout_sec", defaults.AI.CallTimeoutSec)
	l.v.SetDefault("ai.openai.model", defaults.AI.OpenAI.Model)
	l.v.SetDefault("ai.anthropic.model", defaults.AI.Anthropic.Model)
	l.v.SetDefault("ai.gemini.model", defaults.AI.Gemini.Model)
	l.v.SetDefault("ai.ollama.url", defaults.AI.Ollama.URL)
	l.v.SetDefault("ai.ollama.model", defaults.AI.Ollama.Model)

	l.v.SetDefault("batch.workers", defaults.Batch.Workers)
	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)
	l.v.SetDefault("batch.detect_duplicates", defaults.Batch.DetectDuplicates)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.file", defaults.Output.File)

	l.v.SetDefault("debug.save_images", defaults.Debug.SaveImages)
	l.v.SetDefault("debug.dir", defaults.Debug.Dir)
}

// GenerateDefaultConfigFile writes a config file populated with the
// default values.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
		paths = append(paths, filepath.Join(home, ".config", "orderlens"))
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "orderlens"))
	}

	paths = append(paths, "/etc/orderlens")

	return paths
}
