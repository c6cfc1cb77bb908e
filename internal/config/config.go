package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceNinetyNineFreelas = "99freelas"
	SourcePonisha           = "ponisha"
	SourceKarlancer         = "karlancer"
	SourceRSS               = "rss"

	NotifierDiscord  = "discord"
	NotifierTelegram = "telegram"
	NotifierNATS     = "nats"

	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
)

var (
	DefaultKeywords = []string{"Node.js", "NestJS", "Backend", "TypeScript"}

	knownSources   = []string{SourceNinetyNineFreelas, SourcePonisha, SourceKarlancer, SourceRSS}
	knownNotifiers = []string{NotifierDiscord, NotifierTelegram, NotifierNATS}
	knownStores    = []string{StoreMemory, StoreFile, StorePostgres, StoreRedis, StoreSQLite}
)

type Config struct {
	Keywords         []string
	Sources          []string
	RSSFeeds         []string
	PollInterval     time.Duration
	PollCron         string
	RunOnStart       bool
	FetchConcurrency int
	HTTPTimeout      time.Duration
	UserAgent        string

	Notifier          string
	DiscordWebhookURL string
	TelegramToken     string
	TelegramChat      string
	TelegramThreadID  *int
	TelegramJalali    bool
	NATSURL           string
	NATSSubject       string

	LedgerStore      string
	LedgerFile       string
	LedgerSQLitePath string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisKey         string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	HTTPPort  string
	LogLevel  string
	LogFormat string
}

// Load reads .env, then the optional CONFIG_FILE, then the environment.
// Environment values win over the file. A returned error is fatal.
func Load() (Config, error) {
	_ = godotenv.Load()

	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Keywords:         envList("KEYWORDS", file.Keywords, DefaultKeywords),
		Sources:          envList("SOURCES", file.Sources, []string{SourceNinetyNineFreelas}),
		RSSFeeds:         envList("RSS_FEEDS", file.RSSFeeds, nil),
		PollCron:         envOrDefault("POLL_CRON", file.PollCron),
		FetchConcurrency: 4,
		UserAgent:        os.Getenv("USER_AGENT"),

		Notifier:          strings.ToLower(envOrDefault("NOTIFIER", NotifierDiscord)),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChat:      os.Getenv("TELEGRAM_CHAT_ID"),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubject:       envOrDefault("NATS_SUBJECT", "postings.new"),

		LedgerStore:      strings.ToLower(envOrDefault("LEDGER_STORE", StoreMemory)),
		LedgerFile:       envOrDefault("LEDGER_FILE", "data/seen.txt"),
		LedgerSQLitePath: envOrDefault("LEDGER_SQLITE_PATH", "data/ledger.db"),
		RedisAddr:        envOrDefault("LEDGER_REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("LEDGER_REDIS_PASSWORD"),
		RedisKey:         envOrDefault("LEDGER_REDIS_KEY", "freelas-watch:seen"),

		DBHost:     envOrDefault("DB_HOST", "localhost"),
		DBPort:     envOrDefault("DB_PORT", "5432"),
		DBUser:     envOrDefault("DB_USERNAME", "postgres"),
		DBPassword: envOrDefault("DB_PASSWORD", "postgres"),
		DBName:     envOrDefault("DB_DATABASE", "freelas_watch"),
		DBSSLMode:  envOrDefault("DB_SSLMODE", "disable"),

		HTTPPort:  envOrDefault("HTTP_PORT", "3000"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	for i, name := range cfg.Sources {
		cfg.Sources[i] = strings.ToLower(name)
	}
	cfg.Sources = normalizeList(cfg.Sources)

	interval := envOrDefault("POLL_INTERVAL", file.PollInterval)
	if interval == "" {
		interval = "10m"
	}
	if cfg.PollInterval, err = time.ParseDuration(interval); err != nil {
		return cfg, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}
	if cfg.HTTPTimeout, err = envDuration("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return cfg, err
	}
	if cfg.FetchConcurrency, err = envInt("FETCH_CONCURRENCY", cfg.FetchConcurrency); err != nil {
		return cfg, err
	}
	if cfg.RedisDB, err = envInt("LEDGER_REDIS_DB", 0); err != nil {
		return cfg, err
	}
	if cfg.RunOnStart, err = envBool("RUN_ON_START", false); err != nil {
		return cfg, err
	}
	if cfg.TelegramJalali, err = envBool("TELEGRAM_JALALI", false); err != nil {
		return cfg, err
	}
	if cfg.TelegramThreadID, err = envOrIntPtr("TELEGRAM_CHAT_THREAD_ID"); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Keywords) == 0 {
		return errors.New("at least one keyword is required")
	}
	if len(c.Sources) == 0 {
		return errors.New("at least one source is required")
	}
	for _, s := range c.Sources {
		if !slices.Contains(knownSources, s) {
			return fmt.Errorf("unknown source %q", s)
		}
	}
	if slices.Contains(c.Sources, SourceRSS) && len(c.RSSFeeds) == 0 {
		return errors.New("source rss requires RSS_FEEDS")
	}
	if c.PollCron == "" && c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.FetchConcurrency <= 0 {
		return errors.New("FETCH_CONCURRENCY must be positive")
	}

	switch c.Notifier {
	case NotifierDiscord:
		if c.DiscordWebhookURL == "" {
			return errors.New("DISCORD_WEBHOOK_URL is not configured")
		}
	case NotifierTelegram:
		if c.TelegramToken == "" || c.TelegramChat == "" {
			return errors.New("missing TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID")
		}
	case NotifierNATS:
		if c.NATSURL == "" {
			return errors.New("missing NATS_URL")
		}
	default:
		return fmt.Errorf("unknown notifier %q (want one of %s)", c.Notifier, strings.Join(knownNotifiers, ", "))
	}

	if !slices.Contains(knownStores, c.LedgerStore) {
		return fmt.Errorf("unknown ledger store %q (want one of %s)", c.LedgerStore, strings.Join(knownStores, ", "))
	}
	if c.LedgerStore == StorePostgres && (c.DBHost == "" || c.DBUser == "" || c.DBName == "") {
		return errors.New("missing database configuration")
	}
	return nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}

func envInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// envList splits a comma separated variable. The file value is used when the
// variable is unset, the fallback when both are empty.
func envList(key string, fromFile, fallback []string) []string {
	raw := fromFile
	if val := os.Getenv(key); val != "" {
		raw = strings.Split(val, ",")
	}
	list := normalizeList(raw)
	if len(list) == 0 {
		return normalizeList(fallback)
	}
	return list
}

// normalizeList trims entries, drops blanks and keeps the first of any duplicates.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
