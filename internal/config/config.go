package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"AffiliationChecker/internal/domain"
)

const (
	configPathEnv     = "AFFILIATION_CHECKER_CONFIG"
	databaseDSNEnv    = "AFFILIATION_DATABASE_DSN"
	politeEmailEnv    = "OPENALEX_EMAIL"
	logLevelEnv       = "AFFILIATION_LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Screening     ScreeningConfig    `yaml:"screening"`
	Source        SourceConfig       `yaml:"source"`
	Run           RunConfig          `yaml:"run"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ScreeningConfig is the read-only rule data handed to the screening engine.
type ScreeningConfig struct {
	TargetCountries []string          `yaml:"targetCountries"`
	MaxWorks        int               `yaml:"maxWorks"`
	GenericPatterns []string          `yaml:"genericPatterns"`
	StopWords       []string          `yaml:"stopWords"`
	Acronyms        map[string]string `yaml:"acronyms"`
}

// SourceConfig describes the bibliographic metadata service and how to pace it.
type SourceConfig struct {
	Name             string        `yaml:"name"`
	BaseURL          string        `yaml:"baseUrl"`
	PoliteIdentifier string        `yaml:"politeIdentifier"`
	Timeout          time.Duration `yaml:"timeout"`
	RequestInterval  time.Duration `yaml:"requestInterval"`
	Burst            int           `yaml:"burst"`
	MaxAttempts      int           `yaml:"maxAttempts"`
	InitialBackoff   time.Duration `yaml:"initialBackoff"`
	MaxBackoff       time.Duration `yaml:"maxBackoff"`
	SearchLimit      int           `yaml:"searchLimit"`
}

// RunConfig covers a single batch invocation.
type RunConfig struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Workers int    `yaml:"workers"`
	Resume  bool   `yaml:"resume"`
}

// DatabaseConfig points at the verdict history store; empty DSN disables it.
// postgres:// URLs use Postgres, anything else is a SQLite file path.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// MetricsConfig names the Prometheus textfile written at the end of a run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads an optional .env file, the YAML configuration at path (or the path named by
// AFFILIATION_CHECKER_CONFIG) and applies environment overrides. A path that was asked
// for but cannot be read is an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.Screening.TargetCountries = normalizeCountries(cfg.Screening.TargetCountries)
	return cfg, nil
}

// Validate reports configuration errors that must stop the run before it starts.
func (c Config) Validate() error {
	var problems []string

	if len(c.Screening.TargetCountries) == 0 {
		problems = append(problems, "target country set is empty")
	}
	for _, code := range c.Screening.TargetCountries {
		if !domain.IsAlpha2(code) {
			problems = append(problems, fmt.Sprintf("target country %q is not an ISO 3166-1 alpha-2 code", code))
		}
	}
	if c.Screening.MaxWorks < 1 {
		problems = append(problems, "screening.maxWorks must be at least 1")
	}
	if c.Run.Workers < 1 {
		problems = append(problems, "run.workers must be at least 1")
	}
	if c.Source.MaxAttempts < 1 {
		problems = append(problems, "source.maxAttempts must be at least 1")
	}
	if c.Source.Timeout <= 0 {
		problems = append(problems, "source.timeout must be positive")
	}
	if strings.TrimSpace(c.Run.Input) == "" {
		problems = append(problems, "run.input is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SetTargetCountries replaces the flagged set with normalized, deduplicated codes.
func (c *Config) SetTargetCountries(codes []string) {
	c.Screening.TargetCountries = normalizeCountries(codes)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(politeEmailEnv); v != "" {
		c.Source.PoliteIdentifier = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func normalizeCountries(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		for _, part := range strings.FieldsFunc(code, func(r rune) bool { return r == ',' || r == ' ' }) {
			part = domain.NormalizeCountryCode(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if len(override.Screening.TargetCountries) > 0 {
		base.Screening.TargetCountries = override.Screening.TargetCountries
	}
	if override.Screening.MaxWorks != 0 {
		base.Screening.MaxWorks = override.Screening.MaxWorks
	}
	if len(override.Screening.GenericPatterns) > 0 {
		base.Screening.GenericPatterns = override.Screening.GenericPatterns
	}
	if len(override.Screening.StopWords) > 0 {
		base.Screening.StopWords = override.Screening.StopWords
	}
	if len(override.Screening.Acronyms) > 0 {
		base.Screening.Acronyms = override.Screening.Acronyms
	}

	if override.Source.Name != "" {
		base.Source.Name = override.Source.Name
	}
	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.PoliteIdentifier != "" {
		base.Source.PoliteIdentifier = override.Source.PoliteIdentifier
	}
	if override.Source.Timeout != 0 {
		base.Source.Timeout = override.Source.Timeout
	}
	if override.Source.RequestInterval != 0 {
		base.Source.RequestInterval = override.Source.RequestInterval
	}
	if override.Source.Burst != 0 {
		base.Source.Burst = override.Source.Burst
	}
	if override.Source.MaxAttempts != 0 {
		base.Source.MaxAttempts = override.Source.MaxAttempts
	}
	if override.Source.InitialBackoff != 0 {
		base.Source.InitialBackoff = override.Source.InitialBackoff
	}
	if override.Source.MaxBackoff != 0 {
		base.Source.MaxBackoff = override.Source.MaxBackoff
	}
	if override.Source.SearchLimit != 0 {
		base.Source.SearchLimit = override.Source.SearchLimit
	}

	if override.Run.Input != "" {
		base.Run.Input = override.Run.Input
	}
	if override.Run.Output != "" {
		base.Run.Output = override.Run.Output
	}
	if override.Run.Workers != 0 {
		base.Run.Workers = override.Run.Workers
	}
	if override.Run.Resume {
		base.Run.Resume = true
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Metrics.Textfile != "" {
		base.Metrics.Textfile = override.Metrics.Textfile
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Screening: ScreeningConfig{
			TargetCountries: []string{"IL", "IR"},
			MaxWorks:        30,
			GenericPatterns: []string{
				"ministry of education",
				"ministry of science",
				"ministry of health",
				"ministry of",
				"department of education",
				"national science foundation",
				"government of",
				"state council",
			},
			StopWords: []string{
				"university", "of", "the", "institute", "college", "school",
				"department", "faculty", "center", "centre", "national", "state",
				"technical", "technology", "and",
			},
			Acronyms: map[string]string{
				"MIT":     "Massachusetts Institute of Technology",
				"TUM":     "Technical University of Munich",
				"ETH":     "Swiss Federal Institute of Technology",
				"EPFL":    "Ecole Polytechnique Federale de Lausanne",
				"UCL":     "University College London",
				"UCLA":    "University of California Los Angeles",
				"CMU":     "Carnegie Mellon University",
				"KAIST":   "Korea Advanced Institute of Science and Technology",
				"NUS":     "National University of Singapore",
				"Caltech": "California Institute of Technology",
			},
		},
		Source: SourceConfig{
			Name:            "openalex",
			BaseURL:         "https://api.openalex.org",
			Timeout:         30 * time.Second,
			RequestInterval: 200 * time.Millisecond,
			Burst:           1,
			MaxAttempts:     4,
			InitialBackoff:  time.Second,
			MaxBackoff:      30 * time.Second,
			SearchLimit:     25,
		},
		Run: RunConfig{
			Input:   "Data.csv",
			Output:  "Vetted_Output.xlsx",
			Workers: 4,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
