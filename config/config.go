package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"football-trends/analysis"
)

type Config struct {
	// Upstream statistics API
	FootballAPIKey     string
	FootballAPIBaseURL string
	FootballAPIHost    string
	FootballAPITimeout time.Duration

	// Defaults for requests that omit league/season
	DefaultLeague int
	DefaultSeason int

	// Upstream responses are memoized for this long
	CacheTTL time.Duration

	// Optional collaborators; empty disables them
	DatabaseURL  string
	AMQPURL      string
	AMQPExchange string
	MQTTBroker   string
	MQTTTopic    string
	MQTTUsername string
	MQTTPassword string

	// Server
	Port        string
	Environment string
	LogLevel    string
	LogFormat   string

	// Model constants
	Model analysis.Params
}

func Load() *Config {
	model := analysis.DefaultParams()
	model.GoalDenominator = getEnvFloat("GOAL_DENOMINATOR", model.GoalDenominator)
	model.ConcededDenominator = getEnvFloat("CONCEDED_DENOMINATOR", model.ConcededDenominator)
	model.KeyPlayers = getEnvInt("KEY_PLAYERS", model.KeyPlayers)
	model.DrawThreshold = getEnvFloat("DRAW_THRESHOLD", model.DrawThreshold)
	model.FormWindow = getEnvInt("FORM_WINDOW", model.FormWindow)

	return &Config{
		FootballAPIKey:     getEnv("FOOTBALL_API_KEY", ""),
		FootballAPIBaseURL: getEnv("FOOTBALL_API_BASE_URL", "https://v3.football.api-sports.io"),
		FootballAPIHost:    getEnv("FOOTBALL_API_HOST", ""),
		FootballAPITimeout: getEnvDuration("FOOTBALL_API_TIMEOUT", 10*time.Second),

		DefaultLeague: getEnvInt("DEFAULT_LEAGUE", 39),
		DefaultSeason: getEnvInt("DEFAULT_SEASON", 2024),

		CacheTTL: getEnvDuration("CACHE_TTL", time.Hour),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "football.predictions"),
		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "football/live/#"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		Model: model,
	}
}

// Validate reports settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.FootballAPIKey == "" {
		errs = append(errs, errors.New("FOOTBALL_API_KEY is required"))
	}
	if c.FootballAPITimeout <= 0 {
		errs = append(errs, errors.New("FOOTBALL_API_TIMEOUT must be positive"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if err := c.Model.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// minCleanupInterval bounds how often expired cache entries are swept.
const minCleanupInterval = time.Second

// CacheCleanupInterval is half the cache TTL, never below one second.
func (c *Config) CacheCleanupInterval() time.Duration {
	interval := c.CacheTTL / 2
	if interval < minCleanupInterval {
		return minCleanupInterval
	}
	return interval
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return result
}
