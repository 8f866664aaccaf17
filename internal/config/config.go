package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	// Start with defaults
	_loaded = &defaultConfig

	// Try to load from config file and merge over defaults
	configFile := os.Getenv("PARLEY_CONFIG_FILE")
	if configFile == "" {
		configFile = "parley.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Loaded config from file: %s", configFile)
	}

	// Apply environment variable overrides (highest priority)
	ApplyEnvOverrides()
}

func LoadDefault() {
	config := defaultConfig
	_loaded = &config
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := defaultConfig

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			MaxRequestSize: 1048576,
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "parley",
			MaxOpenConnections: 10,
		},
		LLM: llmConfig{
			APIKey:         "",
			ChatModel:      "gemini-2.0-flash",
			AnalysisModel:  "gemini-2.0-flash",
			RequestTimeout: 30,
		},
		Interview: interviewConfig{
			MinUserTurns: 6,
			TopThemes:    10,
		},
	},
}

type Common struct {
	Log       logConfig       `yaml:"log"`
	Http      httpConfig      `yaml:"http"`
	Postgres  postgresConfig  `yaml:"postgres"`
	LLM       llmConfig       `yaml:"llm"`
	Interview interviewConfig `yaml:"interview"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type httpConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

type postgresConfig struct {
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	MaxOpenConnections int    `yaml:"max_open_connections"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type llmConfig struct {
	APIKey        string `yaml:"api_key"`        // Gemini API key
	ChatModel     string `yaml:"chat_model"`     // model used for interview replies
	AnalysisModel string `yaml:"analysis_model"` // model used for summaries and insights
	// RequestTimeout is the coarse ceiling, in seconds, applied to every
	// upstream model call. Requests past it are abandoned.
	RequestTimeout int `yaml:"request_timeout"`
}

type interviewConfig struct {
	MinUserTurns int `yaml:"min_user_turns"` // exchange floor before auto-completion
	TopThemes    int `yaml:"top_themes"`     // theme table truncation in insights
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func LLM() llmConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.LLM
}

func Interview() interviewConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Interview
}

func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	// Override with environment variables if present
	if dbHost := os.Getenv("PARLEY_DB_HOST"); dbHost != "" {
		_loaded.Common.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("PARLEY_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			_loaded.Common.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("PARLEY_DB_USER"); dbUser != "" {
		_loaded.Common.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("PARLEY_DB_PASSWORD"); dbPassword != "" {
		_loaded.Common.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("PARLEY_DB_NAME"); dbName != "" {
		_loaded.Common.Postgres.Database = dbName
	}

	if httpHost := os.Getenv("PARLEY_HTTP_HOST"); httpHost != "" {
		_loaded.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("PARLEY_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}

	if apiKey := os.Getenv("PARLEY_GEMINI_API_KEY"); apiKey != "" {
		_loaded.Common.LLM.APIKey = apiKey
	}
	if chatModel := os.Getenv("PARLEY_CHAT_MODEL"); chatModel != "" {
		_loaded.Common.LLM.ChatModel = chatModel
	}
	if analysisModel := os.Getenv("PARLEY_ANALYSIS_MODEL"); analysisModel != "" {
		_loaded.Common.LLM.AnalysisModel = analysisModel
	}
	if timeout := os.Getenv("PARLEY_LLM_TIMEOUT"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil {
			_loaded.Common.LLM.RequestTimeout = seconds
		}
	}
	if minTurns := os.Getenv("PARLEY_MIN_USER_TURNS"); minTurns != "" {
		if n, err := strconv.Atoi(minTurns); err == nil {
			_loaded.Common.Interview.MinUserTurns = n
		}
	}
}
