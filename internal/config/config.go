package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	LogLevel string

	BotToken string

	DBDriver   string
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string
	SQLitePath string

	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string

	BirdeyeBaseURL   string
	BirdeyeAgentID   string
	BirdeyeRPS       float64
	TrendingCacheTTL time.Duration

	BetHoldPeriod      time.Duration
	SettleInterval     time.Duration
	SampleInterval     time.Duration
	LeaderboardMinBets int
	LeaderboardSize    int

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	KafkaBrokers          []string
	KafkaTopicBetPlaced   string
	KafkaTopicBetResolved string

	HTTPPort          string
	AdminAllowedCIDRs []string
}

var defaults = map[string]any{
	"APP_ENV":                  "local",
	"LOG_LEVEL":                "info",
	"TELEGRAM_BOT_TOKEN":       "",
	"DB_DRIVER":                "postgres",
	"DB_USER":                  "postgres",
	"DB_PASSWORD":              "postgres",
	"DB_NAME":                  "trendbet",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"SQLITE_PATH":              "data/trendbet.db",
	"REDIS_ENABLED":            true,
	"REDIS_HOST":               "localhost",
	"REDIS_PORT":               "6379",
	"REDIS_PASSWORD":           "",
	"BIRDEYE_BASE_URL":         "https://multichain-api.birdeye.so",
	"BIRDEYE_AGENT_ID":         "",
	"BIRDEYE_RPS":              2.0,
	"TRENDING_CACHE_TTL":       "30s",
	"BET_HOLD_PERIOD":          "0s",
	"SETTLE_INTERVAL":          "1m",
	"SAMPLE_INTERVAL":          "5m",
	"LEADERBOARD_MIN_BETS":     5,
	"LEADERBOARD_SIZE":         10,
	"OPENAI_API_KEY":           "",
	"OPENAI_MODEL":             "gpt-3.5-turbo",
	"OPENAI_BASE_URL":          "",
	"KAFKA_BROKERS":            "",
	"KAFKA_TOPIC_BET_PLACED":   "bet_placed",
	"KAFKA_TOPIC_BET_RESOLVED": "bet_resolved",
	"HTTP_PORT":                "8080",
	"ADMIN_ALLOWED_CIDRS":      "",
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env:      v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),

		BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisEnabled:  v.GetBool("REDIS_ENABLED"),
		RedisHost:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		BirdeyeBaseURL:   strings.TrimRight(v.GetString("BIRDEYE_BASE_URL"), "/"),
		BirdeyeAgentID:   v.GetString("BIRDEYE_AGENT_ID"),
		BirdeyeRPS:       v.GetFloat64("BIRDEYE_RPS"),
		TrendingCacheTTL: v.GetDuration("TRENDING_CACHE_TTL"),

		BetHoldPeriod:      v.GetDuration("BET_HOLD_PERIOD"),
		SettleInterval:     positiveDuration(v, "SETTLE_INTERVAL"),
		SampleInterval:     positiveDuration(v, "SAMPLE_INTERVAL"),
		LeaderboardMinBets: v.GetInt("LEADERBOARD_MIN_BETS"),
		LeaderboardSize:    v.GetInt("LEADERBOARD_SIZE"),

		OpenAIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIModel:   v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),

		KafkaBrokers:          splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopicBetPlaced:   v.GetString("KAFKA_TOPIC_BET_PLACED"),
		KafkaTopicBetResolved: v.GetString("KAFKA_TOPIC_BET_RESOLVED"),

		HTTPPort:          v.GetString("HTTP_PORT"),
		AdminAllowedCIDRs: splitList(v.GetString("ADMIN_ALLOWED_CIDRS")),
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// positiveDuration reads key and falls back to its default when the value is
// zero or negative.
func positiveDuration(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	d, err := time.ParseDuration(fmt.Sprint(defaults[key]))
	if err != nil {
		log.Printf("Invalid default for %s: %v", key, err)
		return time.Minute
	}
	log.Printf("%s must be positive, using default %s", key, d)
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
