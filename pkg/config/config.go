package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis       RedisConfig
	Session     SessionConfig
	CORS        CORSConfig
	Log         LogConfig
	Upstream    UpstreamConfig
	Leaderboard LeaderboardConfig
	Submission  SubmissionConfig
	Moderation  ModerationConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// CacheEnabled puts the leaderboard feed cache in Redis even when sessions stay in memory.
	CacheEnabled bool
}

// SessionConfig governs the admin session handle and where session state lives.
type SessionConfig struct {
	Store   string
	Secret  string
	SealKey string
	TTL     time.Duration
	Issuer  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig points at the external hqhq API.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LeaderboardConfig configures the public leaderboard feed.
type LeaderboardConfig struct {
	FeedURL  string
	CacheTTL time.Duration

	// WarmInterval reloads the cached feed in the background; zero disables it.
	WarmInterval time.Duration

	// PDFFontPath names a TrueType font for PDF exports. Empty uses the bundled DejaVu Sans.
	PDFFontPath string
}

// SubmissionConfig controls record intake.
type SubmissionConfig struct {
	RequireVlogs   bool
	MaxUploadBytes int64
	DefaultVersion string
}

// ModerationConfig holds constants sent with approve/reject decisions.
type ModerationConfig struct {
	Version string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),

		CacheEnabled: v.GetBool("CACHE_ENABLED"),
	}

	cfg.Session = SessionConfig{
		Store:   strings.ToLower(v.GetString("SESSION_STORE")),
		Secret:  v.GetString("SESSION_SECRET"),
		SealKey: v.GetString("SESSION_SEAL_KEY"),
		TTL:     parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		Issuer:  v.GetString("SESSION_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL: strings.TrimRight(v.GetString("HQHQ_API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("HQHQ_API_TIMEOUT"), 2*time.Minute),
	}

	cfg.Leaderboard = LeaderboardConfig{
		FeedURL:  v.GetString("LEADERBOARD_FEED_URL"),
		CacheTTL: parseDuration(v.GetString("LEADERBOARD_CACHE_TTL"), 5*time.Minute),

		WarmInterval: parseDuration(v.GetString("LEADERBOARD_WARM_INTERVAL"), 0),

		PDFFontPath: v.GetString("LEADERBOARD_PDF_FONT"),
	}

	maxUpload := v.GetInt64("SUBMISSION_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 64 * 1024 * 1024
	}
	cfg.Submission = SubmissionConfig{
		RequireVlogs:   v.GetBool("SUBMISSION_REQUIRE_VLOGS"),
		MaxUploadBytes: maxUpload,
		DefaultVersion: v.GetString("SUBMISSION_DEFAULT_VERSION"),
	}

	cfg.Moderation = ModerationConfig{
		Version: v.GetString("MODERATION_VERSION"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_SEAL_KEY", "dev_session_seal_key")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_ISSUER", "hqhq-web")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("HQHQ_API_BASE_URL", "https://api.hqhq.kr")
	v.SetDefault("HQHQ_API_TIMEOUT", "2m")

	v.SetDefault("LEADERBOARD_FEED_URL", "https://f.asta.rs/krhq/hqhq.json")
	v.SetDefault("LEADERBOARD_CACHE_TTL", "5m")
	v.SetDefault("LEADERBOARD_WARM_INTERVAL", "4m")
	v.SetDefault("LEADERBOARD_PDF_FONT", "")

	v.SetDefault("SUBMISSION_REQUIRE_VLOGS", false)
	v.SetDefault("SUBMISSION_MAX_UPLOAD_BYTES", 64*1024*1024)
	v.SetDefault("SUBMISSION_DEFAULT_VERSION", "v73")

	v.SetDefault("MODERATION_VERSION", "v69")
}

// isMissingFile covers viper returning a raw fs error when SetConfigFile points at an absent .env.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
