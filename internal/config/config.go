package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "COMMUNITY_SCANNER_CONFIG"
	logLevelEnv        = "COMMUNITY_SCANNER_LOG_LEVEL"
	credentialsPathEnv = "REDDIT_CREDENTIALS_PATH"
	redditUserAgentEnv = "REDDIT_USER_AGENT"
	chromePathEnv      = "CHROME_PATH"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Browser BrowserConfig `yaml:"browser"`
	Discord DiscordConfig `yaml:"discord"`
	Reddit  RedditConfig  `yaml:"reddit"`
	Export  ExportConfig  `yaml:"export"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BrowserConfig controls the headless browser used for client-rendered pages.
type BrowserConfig struct {
	ExecPath   string `yaml:"execPath"`
	ShowWindow bool   `yaml:"showWindow"`
	UserAgent  string `yaml:"userAgent"`
	// InitialWait lets the first page render before any interaction.
	InitialWait  time.Duration `yaml:"initialWait"`
	ScrollWait   time.Duration `yaml:"scrollWait"`
	ClickWait    time.Duration `yaml:"clickWait"`
	ClickTimeout time.Duration `yaml:"clickTimeout"`
}

// DiscordConfig describes the server directory site.
type DiscordConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	LoadMoreText string `yaml:"loadMoreText"`
	MaxLoads     int    `yaml:"maxLoads"`
}

// RedditConfig defines how to reach the discussion platform.
type RedditConfig struct {
	AuthURL           string        `yaml:"authUrl"`
	APIURL            string        `yaml:"apiUrl"`
	WebURL            string        `yaml:"webUrl"`
	UserAgent         string        `yaml:"userAgent"`
	PageUserAgent     string        `yaml:"pageUserAgent"`
	PageSize          int           `yaml:"pageSize"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
	RequestTimeout    time.Duration `yaml:"requestTimeout"`
	OnlineTimeout     time.Duration `yaml:"onlineTimeout"`
	Listings          []string      `yaml:"listings"`
	SearchQueries     []string      `yaml:"searchQueries"`
	CredentialsPath   string        `yaml:"credentialsPath"`
}

// ExportConfig shapes the spreadsheet output.
type ExportConfig struct {
	SheetName string `yaml:"sheetName"`
}

// Load reads YAML configuration from the env-provided path (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path; an empty path yields defaults plus env overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
				log.Printf("config: cannot merge %s: %v (falling back to defaults)", path, err)
				cfg = defaultConfig()
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(credentialsPathEnv); v != "" {
		c.Reddit.CredentialsPath = v
	}

	if v := os.Getenv(redditUserAgentEnv); v != "" {
		c.Reddit.UserAgent = v
	}

	if v := os.Getenv(chromePathEnv); v != "" {
		c.Browser.ExecPath = v
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "reddit_config.json"
	}
	return filepath.Join(dir, "communityscanner", "reddit_config.json")
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Browser: BrowserConfig{
			UserAgent:    browserUserAgent,
			InitialWait:  3 * time.Second,
			ScrollWait:   time.Second,
			ClickWait:    2500 * time.Millisecond,
			ClickTimeout: 10 * time.Second,
		},
		Discord: DiscordConfig{
			BaseURL:      "https://discordservers.com",
			LoadMoreText: "Load More Servers",
			MaxLoads:     5,
		},
		Reddit: RedditConfig{
			AuthURL:           "https://www.reddit.com/api/v1/access_token",
			APIURL:            "https://oauth.reddit.com",
			WebURL:            "https://www.reddit.com",
			UserAgent:         "CommunityScanner/1.0",
			PageUserAgent:     browserUserAgent,
			PageSize:          100,
			RequestsPerMinute: 100,
			RequestTimeout:    20 * time.Second,
			OnlineTimeout:     10 * time.Second,
			Listings:          []string{"popular", "new", "default"},
			SearchQueries:     []string{"a", "e", "i", "o", "u"},
			CredentialsPath:   defaultCredentialsPath(),
		},
		Export: ExportConfig{SheetName: "Sheet1"},
	}
}
