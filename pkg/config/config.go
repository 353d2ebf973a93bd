/*
Package config manages the TOML config for the pinyin IME.

Values come from three layers: built-in defaults, the config.toml file
(created with defaults on first run, partially recovered when malformed),
and finally environment variables for the generation backend.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFileName is the config file looked up in the config directory.
const ConfigFileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Generation GenerationConfig `toml:"generation"`
	IME        IMEConfig        `toml:"ime"`
	Dict       DictConfig       `toml:"dict"`
	CLI        CliConfig        `toml:"cli"`
}

// GenerationConfig describes the text-generation backend. With APIVersion
// set the endpoint is an Azure OpenAI resource and Deployment names the
// model; otherwise Endpoint is an OpenAI-compatible base URL and Model is used.
type GenerationConfig struct {
	Endpoint   string `toml:"endpoint" env:"AZURE_OPENAI_ENDPOINT"`
	APIKey     string `toml:"api_key" env:"AZURE_OPENAI_API_KEY"`
	APIVersion string `toml:"api_version" env:"AZURE_OPENAI_API_VERSION"`
	Deployment string `toml:"deployment" env:"AZURE_OPENAI_DEPLOYMENT_NAME"`
	Model      string `toml:"model" env:"PINYINIME_MODEL"`
	TimeoutMs  int    `toml:"timeout_ms" env:"PINYINIME_TIMEOUT_MS"`
	MaxRetries int    `toml:"max_retries"`
}

// IMEConfig has engine options.
type IMEConfig struct {
	DebounceMs int `toml:"debounce_ms"`
	CacheSize  int `toml:"cache_size"`
}

// DictConfig locates the dictionary.
type DictConfig struct {
	Path   string `toml:"path" env:"PINYINIME_DICT"`
	Format string `toml:"format"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	ShowFrequency bool `toml:"show_frequency"`
	ShowPinyin    bool `toml:"show_pinyin"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			APIVersion: "2024-10-21",
			TimeoutMs:  30000,
			MaxRetries: 2,
		},
		IME: IMEConfig{
			DebounceMs: 1000,
			CacheSize:  256,
		},
		Dict: DictConfig{
			Path:   "data/dict.json",
			Format: "auto",
		},
		CLI: CliConfig{
			ShowFrequency: false,
			ShowPinyin:    true,
		},
	}
}

// Azure reports whether the backend is an Azure OpenAI resource.
func (g GenerationConfig) Azure() bool { return g.APIVersion != "" }

// ModelName is the model sent with each request: the deployment in Azure
// mode, the model otherwise.
func (g GenerationConfig) ModelName() string {
	if g.Azure() && g.Deployment != "" {
		return g.Deployment
	}
	return g.Model
}

// Timeout returns the per-request timeout.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// Validate reports the first missing generation setting as a
// *ConfigurationError matching ErrNotConfigured.
func (g GenerationConfig) Validate() error {
	switch {
	case g.APIKey == "":
		return missing("generation.api_key")
	case g.Endpoint == "" && g.Azure():
		return missing("generation.endpoint")
	case g.ModelName() == "":
		if g.Azure() {
			return missing("generation.deployment")
		}
		return missing("generation.model")
	}
	return nil
}

// Debounce returns the conversion debounce delay.
func (c IMEConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(ConfigFileName)
}

// Load runs LoadConfigWithPriority and then applies environment overrides.
func Load(customConfigPath string) (*Config, string, error) {
	cfg, path, err := LoadConfigWithPriority(customConfigPath)
	if err != nil {
		return nil, "", err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// ApplyEnv overrides config values from the environment.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return &ConfigurationError{Field: "env", Err: err}
	}
	return nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/pinyinime/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.DecodeTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value from a file that failed
// strict decoding.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	table, err := utils.DecodeTOMLTable(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := table.Section("generation"); ok {
		extractGenerationConfig(section, &config.Generation)
	}
	if section, ok := table.Section("ime"); ok {
		section.Int("debounce_ms", &config.IME.DebounceMs)
		section.Int("cache_size", &config.IME.CacheSize)
	}
	if section, ok := table.Section("dict"); ok {
		section.String("path", &config.Dict.Path)
		section.String("format", &config.Dict.Format)
	}
	if section, ok := table.Section("cli"); ok {
		section.Bool("show_frequency", &config.CLI.ShowFrequency)
		section.Bool("show_pinyin", &config.CLI.ShowPinyin)
	}
	return config, nil
}

func extractGenerationConfig(t utils.Table, gen *GenerationConfig) {
	t.String("endpoint", &gen.Endpoint)
	t.String("api_key", &gen.APIKey)
	t.String("api_version", &gen.APIVersion)
	t.String("deployment", &gen.Deployment)
	t.String("model", &gen.Model)
	t.Int("timeout_ms", &gen.TimeoutMs)
	t.Int("max_retries", &gen.MaxRetries)
}

// RebuildConfigFile force creates a new config.toml at default
func RebuildConfigFile() (string, error) {
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(defaultPath)); err != nil {
		return "", err
	}
	return defaultPath, SaveConfig(DefaultConfig(), defaultPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
