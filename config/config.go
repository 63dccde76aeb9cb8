package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full runtime configuration, read from the environment.
type Config struct {
	Port          string
	MonitorHandle string
	FeedBaseURL   string

	MaxPostsPerPass int
	CronSchedule    string
	CronSecret      string

	DatabaseURL string
	RedisURL    string
	BloomKey    string

	LLMProvider     string
	LLMModel        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	CohereAPIKey    string

	FinnhubAPIKey string
	QuoteSpacing  time.Duration
	QuoteCacheTTL time.Duration

	BackfillPacing    time.Duration
	SourceTimeout     time.Duration
	ExtractionTimeout time.Duration

	KafkaBrokers       []string
	KafkaTriggerTopic  string
	KafkaCatalystTopic string
	KafkaGroupID       string

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool

	LogFormat string
	LogLevel  string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() Config {
	feed := GetEnvOrDefault("FEED_BASE_URL", "")
	if feed == "" {
		feed = GetEnvOrDefault("FEED_PRESET", DefaultFeedPreset)
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BOOTSTRAP_SERVERS")); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	prefix := strings.TrimSpace(os.Getenv("S3_PREFIX"))
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
	}

	return Config{
		Port:          GetEnvOrDefault("PORT", "8080"),
		MonitorHandle: strings.TrimPrefix(GetEnvOrDefault("MONITOR_HANDLE", "elonmusk"), "@"),
		FeedBaseURL:   ResolveFeedURL(feed),

		MaxPostsPerPass: getEnvIntOrDefault("MAX_POSTS_PER_PASS", DefaultMaxPostsPerPass),
		CronSchedule:    GetEnvOrDefault("CRON_SCHEDULE", "0 */2 * * *"),
		CronSecret:      os.Getenv("CRON_SECRET"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		BloomKey:    GetEnvOrDefault("BLOOM_KEY", "stockbot:ledger:bloom"),

		LLMProvider:     strings.ToLower(GetEnvOrDefault("LLM_PROVIDER", "anthropic")),
		LLMModel:        os.Getenv("LLM_MODEL"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		CohereAPIKey:    os.Getenv("COHERE_API_KEY"),

		FinnhubAPIKey: os.Getenv("FINNHUB_API_KEY"),
		QuoteSpacing:  getEnvMillisOrDefault("QUOTE_SPACING_MS", DefaultQuoteSpacing),
		QuoteCacheTTL: getEnvSecondsOrDefault("QUOTE_CACHE_TTL_SECONDS", DefaultQuoteCacheTTL),

		BackfillPacing:    getEnvMillisOrDefault("BACKFILL_PACING_MS", DefaultBackfillPacing),
		SourceTimeout:     getEnvSecondsOrDefault("SOURCE_TIMEOUT_SECONDS", DefaultSourceTimeout),
		ExtractionTimeout: getEnvSecondsOrDefault("EXTRACTION_TIMEOUT_SECONDS", DefaultExtractionTimeout),

		KafkaBrokers:       brokers,
		KafkaTriggerTopic:  GetEnvOrDefault("KAFKA_TRIGGER_TOPIC", "stockbot-triggers"),
		KafkaCatalystTopic: GetEnvOrDefault("KAFKA_CATALYST_TOPIC", "stockbot-catalysts"),
		KafkaGroupID:       GetEnvOrDefault("KAFKA_GROUP_ID", "stockbot-trigger-group"),

		S3Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Prefix:       prefix,
		S3Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Profile:      strings.TrimSpace(os.Getenv("S3_PROFILE")),
		S3UsePathStyle: strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),

		LogFormat: GetEnvOrDefault("LOG_FORMAT", "json"),
		LogLevel:  GetEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// GetEnvOrDefault returns the trimmed value of key, or defaultVal when unset.
func GetEnvOrDefault(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getEnvMillisOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if ms, err := strconv.Atoi(val); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getEnvSecondsOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
