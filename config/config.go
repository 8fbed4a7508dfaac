package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"venue-crawler/crawler"
	"venue-crawler/extraction"
	"venue-crawler/models"
	"venue-crawler/scraper"
)

var ErrMissingBaseURL = errors.New("config: BASE_URL is required")

const defaultInstruction = "Extract all venue objects with 'name', 'location', 'price', 'capacity', " +
	"'rating', 'reviews', and a 1 sentence description of the venue from the following content."

// Config holds all application configuration. Values come, in increasing
// precedence, from defaults, an optional YAML file, a .env file and the
// process environment.
type Config struct {
	BaseURL         string   `yaml:"base_url"`
	CSSSelector     string   `yaml:"css_selector"`
	SessionID       string   `yaml:"session_id"`
	NoResultsMarker string   `yaml:"no_results_marker"`
	RequiredKeys    []string `yaml:"required_keys"`

	BrowserEngine string `yaml:"browser_engine"`
	BrowserType   string `yaml:"browser_type"`
	Headless      bool   `yaml:"headless"`
	ChromeBin     string `yaml:"chrome_bin"`
	PageTimeoutS  int    `yaml:"page_timeout_sec"`
	PageWaitMs    int    `yaml:"page_wait_ms"`
	LaunchRetries int    `yaml:"launch_retries"`

	ExtractionStrategy  string               `yaml:"extraction_strategy"`
	LLMProvider         string               `yaml:"llm_provider"`
	LLMAPIKey           string               `yaml:"-"`
	LLMInstruction      string               `yaml:"llm_instruction"`
	LLMInputFormat      string               `yaml:"llm_input_format"`
	ChunkTokenThreshold int                  `yaml:"chunk_token_threshold"`
	LLMMaxTokens        int                  `yaml:"llm_max_tokens"`
	CSSSchema           extraction.CSSSchema `yaml:"css_schema"`

	MaxPages      int    `yaml:"max_pages"`
	MaxEmptyPages int    `yaml:"max_empty_pages"`
	StatePath     string `yaml:"state_path"`
	Resume        bool   `yaml:"resume"`

	CSVOutputPath string `yaml:"csv_output_path"`
	SinkDriver    string `yaml:"sink_driver"`
	SinkDSN       string `yaml:"-"`

	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"-"`
	PostgresDB       string `yaml:"postgres_db"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	Verbose  bool   `yaml:"verbose"`
}

func defaults() *Config {
	return &Config{
		NoResultsMarker: "No Results Found",
		RequiredKeys:    models.FieldNames(),

		BrowserEngine: "chromedp",
		BrowserType:   "chromium",
		Headless:      true,
		PageTimeoutS:  60,
		PageWaitMs:    2000,
		LaunchRetries: 3,

		ExtractionStrategy:  "llm",
		LLMProvider:         "openai/gpt-4o",
		LLMInstruction:      defaultInstruction,
		LLMInputFormat:      string(extraction.InputMarkdown),
		ChunkTokenThreshold: 2048,
		LLMMaxTokens:        4096,

		MaxPages:      50,
		MaxEmptyPages: 3,
		StatePath:     "./output/crawl_state.json",

		CSVOutputPath: "./output/complete_sites.csv",

		PostgresHost:    "localhost",
		PostgresPort:    "5432",
		PostgresUser:    "scraper",
		PostgresDB:      "venues_db",
		PostgresSSLMode: "disable",

		LogLevel: "info",
	}
}

// Load reads the optional YAML file at path (falling back to CRAWL_CONFIG),
// then the .env file and environment, and returns a populated Config.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := defaults()

	if path == "" {
		path = os.Getenv("CRAWL_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.SessionID == "" {
		cfg.SessionID = "crawl-" + uuid.NewString()
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.CSSSelector = getEnv("CSS_SELECTOR", c.CSSSelector)
	c.SessionID = getEnv("SESSION_ID", c.SessionID)
	c.NoResultsMarker = getEnv("NO_RESULTS_MARKER", c.NoResultsMarker)
	c.RequiredKeys = getEnvList("REQUIRED_KEYS", c.RequiredKeys)

	c.BrowserEngine = getEnv("BROWSER_ENGINE", c.BrowserEngine)
	c.BrowserType = getEnv("BROWSER_TYPE", c.BrowserType)
	c.Headless = getEnvBool("HEADLESS", c.Headless)
	c.ChromeBin = getEnv("CHROME_BIN", c.ChromeBin)
	c.PageTimeoutS = getEnvInt("PAGE_TIMEOUT_SEC", c.PageTimeoutS)
	c.PageWaitMs = getEnvInt("PAGE_WAIT_MS", c.PageWaitMs)
	c.LaunchRetries = getEnvInt("LAUNCH_RETRIES", c.LaunchRetries)

	c.ExtractionStrategy = getEnv("EXTRACTION_STRATEGY", c.ExtractionStrategy)
	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.LLMAPIKey = getEnv("LLM_API_KEY", c.LLMAPIKey)
	if c.LLMAPIKey == "" {
		c.LLMAPIKey = providerKey(c.LLMProvider)
	}
	c.LLMInstruction = getEnv("LLM_INSTRUCTION", c.LLMInstruction)
	c.LLMInputFormat = getEnv("LLM_INPUT_FORMAT", c.LLMInputFormat)
	c.ChunkTokenThreshold = getEnvInt("CHUNK_TOKEN_THRESHOLD", c.ChunkTokenThreshold)
	c.LLMMaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLMMaxTokens)

	c.MaxPages = getEnvInt("MAX_PAGES", c.MaxPages)
	c.MaxEmptyPages = getEnvInt("MAX_EMPTY_PAGES", c.MaxEmptyPages)
	c.StatePath = getEnv("STATE_PATH", c.StatePath)
	c.Resume = getEnvBool("RESUME", c.Resume)

	c.CSVOutputPath = getEnv("CSV_OUTPUT_PATH", c.CSVOutputPath)
	c.SinkDriver = getEnv("SINK_DRIVER", c.SinkDriver)
	c.SinkDSN = getEnv("SINK_DSN", c.SinkDSN)

	c.PostgresHost = getEnv("POSTGRES_HOST", c.PostgresHost)
	c.PostgresPort = getEnv("POSTGRES_PORT", c.PostgresPort)
	c.PostgresUser = getEnv("POSTGRES_USER", c.PostgresUser)
	c.PostgresPassword = getEnv("POSTGRES_PASSWORD", c.PostgresPassword)
	c.PostgresDB = getEnv("POSTGRES_DB", c.PostgresDB)
	c.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", c.PostgresSSLMode)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
}

// providerKey returns the vendor-specific API key variable for provider.
func providerKey(provider string) string {
	name, _ := extraction.SplitProvider(provider)
	switch name {
	case "openai", "gpt":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// Validate reports configuration errors that would otherwise surface only
// mid-crawl.
func (c *Config) Validate() error {
	var errs []error

	if c.BaseURL == "" {
		errs = append(errs, ErrMissingBaseURL)
	}
	if len(c.RequiredKeys) == 0 {
		errs = append(errs, errors.New("config: REQUIRED_KEYS must not be empty"))
	}
	if c.MaxPages < 0 || c.MaxEmptyPages < 0 {
		errs = append(errs, errors.New("config: MAX_PAGES and MAX_EMPTY_PAGES must not be negative"))
	}
	switch strings.ToLower(c.BrowserEngine) {
	case "chromedp", "rod":
	default:
		errs = append(errs, fmt.Errorf("config: unknown BROWSER_ENGINE %q", c.BrowserEngine))
	}

	switch strings.ToLower(c.ExtractionStrategy) {
	case "llm":
		if c.LLMAPIKey == "" {
			errs = append(errs, fmt.Errorf("config: %w: set LLM_API_KEY for %s", extraction.ErrMissingAPIKey, c.LLMProvider))
		}
		if name, _ := extraction.SplitProvider(c.LLMProvider); name != "openai" && name != "anthropic" &&
			name != "gpt" && name != "claude" {
			errs = append(errs, fmt.Errorf("config: %w: %q", extraction.ErrUnknownProvider, c.LLMProvider))
		}
		if _, err := extraction.ParseInputFormat(c.LLMInputFormat); err != nil {
			errs = append(errs, err)
		}
	case "css":
		if err := c.CSSSchema.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("config: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown EXTRACTION_STRATEGY %q (supported: llm, css)", c.ExtractionStrategy))
	}

	return errors.Join(errs...)
}

// DSN returns the SQL sink connection string. For postgres without an
// explicit SINK_DSN it is assembled from the POSTGRES_* settings.
func (c *Config) DSN() string {
	if c.SinkDSN != "" || c.SinkDriver != "postgres" {
		return c.SinkDSN
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func (c *Config) Browser() scraper.BrowserConfig {
	return scraper.BrowserConfig{
		Engine:      c.BrowserEngine,
		BrowserType: c.BrowserType,
		Headless:    c.Headless,
		ChromeBin:   c.ChromeBin,
		PageTimeout: time.Duration(c.PageTimeoutS) * time.Second,
		PageWait:    time.Duration(c.PageWaitMs) * time.Millisecond,
		Verbose:     c.Verbose,
	}
}

func (c *Config) LLM() extraction.LLMConfig {
	// Validate has already rejected unknown formats.
	format, _ := extraction.ParseInputFormat(c.LLMInputFormat)
	return extraction.LLMConfig{
		Provider:            c.LLMProvider,
		APIToken:            c.LLMAPIKey,
		Schema:              models.SiteSchema(),
		Instruction:         c.LLMInstruction,
		InputFormat:         format,
		ChunkTokenThreshold: c.ChunkTokenThreshold,
		MaxTokens:           c.LLMMaxTokens,
	}
}

func (c *Config) Driver() crawler.DriverConfig {
	return crawler.DriverConfig{
		PageRequest: crawler.PageRequest{
			BaseURL:         c.BaseURL,
			CSSSelector:     c.CSSSelector,
			SessionID:       c.SessionID,
			RequiredKeys:    c.RequiredKeys,
			NoResultsMarker: c.NoResultsMarker,
		},
		MaxPages:      c.MaxPages,
		MaxEmptyPages: c.MaxEmptyPages,
		Resume:        c.Resume,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
